package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, 0.001, 1000.0)
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit_ThroughCenter(t *testing.T) {
	radius := 1.0
	sphere := NewSphere(core.NewVec3(0, 0, 0), radius, nil)

	// Origin 5 units away, direction of length 2: roots must be symmetric about 5/2
	direction := core.NewVec3(0, 0, -2)
	ray := core.NewRay(core.NewVec3(0, 0, 5), direction)
	mid := 5.0 / direction.Length()

	near, isHit := sphere.Hit(ray, 0, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit, but got miss")
	}
	far, isHit := sphere.Hit(ray, near.T+1e-6, math.Inf(1))
	if !isHit {
		t.Fatal("Expected the far root when the near one is excluded")
	}

	if math.Abs(near.T-2.0) > 1e-9 || math.Abs(far.T-3.0) > 1e-9 {
		t.Errorf("Expected roots 2 and 3, got %f and %f", near.T, far.T)
	}
	if math.Abs((mid-near.T)-(far.T-mid)) > 1e-9 {
		t.Errorf("Roots %f and %f are not symmetric about %f", near.T, far.T, mid)
	}

	for _, hit := range []*core.HitRecord{near, far} {
		if math.Abs(hit.Normal.Length()-1) > 1e-9 {
			t.Errorf("Expected unit normal, got length %f", hit.Normal.Length())
		}
		if hit.Normal.Dot(hit.Point.Subtract(sphere.Center)) <= 0 {
			t.Errorf("Normal %v should point away from the center", hit.Normal)
		}
	}
}

func TestSphere_Hit_OpenInterval(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	tests := []struct {
		name      string
		tMin      float64
		tMax      float64
		expectHit bool
		expectedT float64
	}{
		{"both roots inside", 0.001, 1000, true, 1},
		{"near root equals tMin", 1, 1000, true, 3},
		{"far root equals tMax", 1.5, 3, false, 0},
		{"interval before sphere", 0.001, 0.5, false, 0},
		{"interval past sphere", 3.5, 1000, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(ray, tt.tMin, tt.tMax)
			if isHit != tt.expectHit {
				t.Fatalf("Expected hit=%t, got %t", tt.expectHit, isHit)
			}
			if isHit && math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got %f", tt.expectedT, hit.T)
			}
		})
	}
}

func TestSphere_NegativeRadiusFlipsNormal(t *testing.T) {
	outer := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	inner := NewSphere(core.NewVec3(0, 0, 0), -1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	outerHit, ok1 := outer.Hit(ray, 0.001, 1000)
	innerHit, ok2 := inner.Hit(ray, 0.001, 1000)
	if !ok1 || !ok2 {
		t.Fatal("Expected both spheres to be hit")
	}
	if outerHit.T != innerHit.T {
		t.Errorf("Negative radius should not move the surface: %f vs %f", outerHit.T, innerHit.T)
	}
	if outerHit.Normal != innerHit.Normal.Negate() {
		t.Errorf("Expected flipped normals, got %v and %v", outerHit.Normal, innerHit.Normal)
	}

	box, ok := inner.BoundingBox(0, 1)
	if !ok || box.Min != core.NewVec3(-1, -1, -1) || box.Max != core.NewVec3(1, 1, 1) {
		t.Errorf("Negative radius box should still be valid, got %v", box)
	}
}

func TestSphere_Validate(t *testing.T) {
	if err := NewSphere(core.NewVec3(0, 0, 0), 0, nil).Validate(); !errors.Is(err, ErrZeroRadius) {
		t.Errorf("Expected ErrZeroRadius, got %v", err)
	}
	if err := NewSphere(core.NewVec3(0, 0, 0), -0.5, nil).Validate(); err != nil {
		t.Errorf("Negative radius should be valid, got %v", err)
	}
}

func TestSphere_HitCarriesMaterial(t *testing.T) {
	mat := &stubMaterial{}
	sphere := NewSphere(core.NewVec3(0, 0, -1), 0.5, mat)

	hit, ok := sphere.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, 100)
	if !ok {
		t.Fatal("Expected hit")
	}
	if hit.Material != mat {
		t.Error("Hit record should reference the sphere's material")
	}
}
