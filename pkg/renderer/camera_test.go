package renderer

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

func vecNear(a, b core.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestCameraGetCameraForward(t *testing.T) {
	camera, err := NewCamera(DefaultCameraConfig())
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}

	forward := camera.GetCameraForward()
	expected := core.NewVec3(0, 0, -1)
	if !vecNear(forward, expected, 1e-9) {
		t.Errorf("Expected forward direction %v, got %v", expected, forward)
	}
}

func TestCameraPinholeRays(t *testing.T) {
	// 90 degree vertical field of view with 2:1 aspect spans x in [-2,2], y in [-1,1] at z=-1
	camera, err := NewCamera(DefaultCameraConfig())
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}
	random := rand.New(rand.NewSource(1))

	tests := []struct {
		name      string
		s, t      float64
		direction core.Vec3
	}{
		{"lower left", 0, 0, core.NewVec3(-2, -1, -1)},
		{"center", 0.5, 0.5, core.NewVec3(0, 0, -1)},
		{"upper right", 1, 1, core.NewVec3(2, 1, -1)},
		{"right edge", 1, 0.5, core.NewVec3(2, 0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.s, tt.t, random)
			if !ray.Origin.IsZero() {
				t.Errorf("Pinhole camera rays should start at the eye, got %v", ray.Origin)
			}
			if !vecNear(ray.Direction, tt.direction, 1e-9) {
				t.Errorf("Expected direction %v, got %v", tt.direction, ray.Direction)
			}
		})
	}
}

func TestCameraDepthOfField(t *testing.T) {
	config := CameraConfig{
		LookFrom:      core.NewVec3(3, 3, 2),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   2,
		Aperture:      2,
		FocusDistance: 0, // Auto-focus on the look-at point
	}
	camera, err := NewCamera(config)
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}
	random := rand.New(rand.NewSource(7))

	focusPoint := camera.GetRay(0.5, 0.5, random)
	target := focusPoint.At(1)
	if !vecNear(target, config.LookAt, 1e-9) {
		t.Errorf("Auto-focus should place the focus plane on the look-at point, got %v", target)
	}

	moved := false
	for i := 0; i < 100; i++ {
		ray := camera.GetRay(0.5, 0.5, random)

		// Lens samples stay within the aperture radius around the eye
		offset := ray.Origin.Subtract(config.LookFrom)
		if offset.Length() > config.Aperture/2+1e-9 {
			t.Fatalf("Lens offset %v exceeds aperture radius", offset)
		}
		if !offset.IsZero() {
			moved = true
		}

		// Every ray through the same screen point converges on the focus plane
		if !vecNear(ray.At(1), target, 1e-9) {
			t.Fatalf("Ray %v does not pass through focus point %v", ray, target)
		}
	}
	if !moved {
		t.Error("Expected lens sampling to move the ray origin")
	}
}

func TestCameraShutterTime(t *testing.T) {
	config := DefaultCameraConfig()
	config.Time0, config.Time1 = 0.25, 0.75
	camera, err := NewCamera(config)
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}
	random := rand.New(rand.NewSource(3))

	seen := make(map[float64]bool)
	for i := 0; i < 50; i++ {
		ray := camera.GetRay(0.5, 0.5, random)
		if ray.Time < 0.25 || ray.Time > 0.75 {
			t.Fatalf("Ray time %f outside shutter interval", ray.Time)
		}
		seen[ray.Time] = true
	}
	if len(seen) < 2 {
		t.Error("Expected ray times to vary over the shutter interval")
	}

	config.Time0, config.Time1 = 0.5, 0.5
	camera, _ = NewCamera(config)
	if got := camera.GetRay(0.5, 0.5, random).Time; got != 0.5 {
		t.Errorf("Expected fixed time 0.5 for an instant shutter, got %f", got)
	}
}

func TestCameraConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*CameraConfig)
		expected error
	}{
		{"look-from equals look-at", func(c *CameraConfig) { c.LookAt = c.LookFrom }, ErrDegenerateCamera},
		{"up parallel to view", func(c *CameraConfig) { c.Up = core.NewVec3(0, 0, 1) }, ErrDegenerateCamera},
		{"zero field of view", func(c *CameraConfig) { c.VFov = 0 }, ErrInvalidCamera},
		{"straight angle field of view", func(c *CameraConfig) { c.VFov = 180 }, ErrInvalidCamera},
		{"zero aspect", func(c *CameraConfig) { c.AspectRatio = 0 }, ErrInvalidCamera},
		{"negative aperture", func(c *CameraConfig) { c.Aperture = -1 }, ErrInvalidCamera},
		{"negative focus distance", func(c *CameraConfig) { c.FocusDistance = -2 }, ErrInvalidCamera},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCameraConfig()
			tt.modify(&config)
			camera, err := NewCamera(config)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
			if camera != nil {
				t.Error("Expected no camera on error")
			}
		})
	}
}
