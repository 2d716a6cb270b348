package geometry

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// MovingSphere is a sphere whose center travels linearly with time.
// The embedded sphere is its position at time 0.
type MovingSphere struct {
	Sphere
	Motion core.Vec3 // Displacement per unit of time
}

// NewMovingSphere creates a sphere centered at center at time 0 that moves by motion per unit time
func NewMovingSphere(center core.Vec3, radius float64, motion core.Vec3, material core.Material) *MovingSphere {
	return &MovingSphere{
		Sphere: Sphere{Center: center, Radius: radius, Material: material},
		Motion: motion,
	}
}

// CenterAt returns the sphere center at the given time
func (m *MovingSphere) CenterAt(time float64) core.Vec3 {
	return m.Center.Add(m.Motion.Multiply(time))
}

// Hit tests the ray against the sphere at the ray's time
func (m *MovingSphere) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	return hitSphere(m.CenterAt(ray.Time), m.Radius, m.Material, ray, tMin, tMax)
}

// BoundingBox returns the union of the boxes at both ends of [t0, t1]
func (m *MovingSphere) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	start := sphereBox(m.CenterAt(t0), m.Radius)
	end := sphereBox(m.CenterAt(t1), m.Radius)
	return start.Union(end), true
}
