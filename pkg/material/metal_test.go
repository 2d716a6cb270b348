package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

func TestNewMetalClampsFuzz(t *testing.T) {
	tests := []struct {
		name     string
		fuzz     float64
		expected float64
	}{
		{"negative fuzz", -0.5, 0},
		{"in range", 0.3, 0.3},
		{"too fuzzy", 2.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metal := NewMetal(core.NewVec3(0.8, 0.8, 0.8), tt.fuzz)
			if metal.Fuzzness != tt.expected {
				t.Errorf("Expected fuzz %f, got %f", tt.expected, metal.Fuzzness)
			}
		})
	}
}

func TestMetalPerfectMirror(t *testing.T) {
	albedo := core.NewVec3(0.7, 0.6, 0.5)
	metal := NewMetal(albedo, 0)

	hit := core.HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 1, 0),
	}
	ray := core.NewRay(core.NewVec3(-1, 1, 0), core.NewVec3(1, -1, 0))

	result, scattered := metal.Scatter(ray, hit, rand.New(rand.NewSource(1)))
	if !scattered {
		t.Fatal("Perfect mirror should scatter a ray above the surface")
	}
	if result.Attenuation != albedo {
		t.Errorf("Expected attenuation %v, got %v", albedo, result.Attenuation)
	}

	expected := core.NewVec3(1, 1, 0).Normalize()
	got := result.Scattered.Direction
	if math.Abs(got.X-expected.X) > 1e-9 || math.Abs(got.Y-expected.Y) > 1e-9 || math.Abs(got.Z-expected.Z) > 1e-9 {
		t.Errorf("Expected reflection %v, got %v", expected, got)
	}
}

func TestMetalFuzzAbsorbsBelowSurface(t *testing.T) {
	metal := NewMetal(core.NewVec3(0.9, 0.9, 0.9), 1.0)

	hit := core.HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 1, 0),
	}
	// Grazing incidence: heavy fuzz pushes many reflections below the surface
	ray := core.NewRay(core.NewVec3(-1, 0.05, 0), core.NewVec3(1, -0.05, 0))
	random := rand.New(rand.NewSource(42))

	absorbed, reflected := 0, 0
	for i := 0; i < 2000; i++ {
		result, scattered := metal.Scatter(ray, hit, random)
		if scattered {
			reflected++
			if result.Scattered.Direction.Dot(hit.Normal) <= 0 {
				t.Fatalf("Scattered ray %v should be above the surface", result.Scattered.Direction)
			}
			continue
		}
		absorbed++
		if !result.Attenuation.IsZero() {
			t.Errorf("Absorbed ray should carry zero attenuation, got %v", result.Attenuation)
		}
	}

	if absorbed == 0 || reflected == 0 {
		t.Errorf("Expected both absorption and reflection, got absorbed=%d reflected=%d", absorbed, reflected)
	}
}
