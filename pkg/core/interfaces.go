package core

import "math/rand"

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// HitRecord contains information about a ray-object intersection.
// Normal is unit length and points away from the sphere center for positive radii.
type HitRecord struct {
	T        float64  // Parameter t along the ray
	Point    Vec3     // Point of intersection
	Normal   Vec3     // Surface normal at intersection
	Material Material // Shared, read-only material of the hit object
}

// Hitable is implemented by every object that can be intersected by rays
type Hitable interface {
	// Hit reports the nearest intersection with t in the open interval (tMin, tMax)
	Hit(ray Ray, tMin, tMax float64) (*HitRecord, bool)
	// BoundingBox returns the box enclosing the object over the time interval [t0, t1]
	BoundingBox(t0, t1 float64) (AABB, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Attenuation Vec3 // Color attenuation
	Scattered   Ray  // Outgoing ray, valid only when the material scattered
}

// Material decides whether and how an incoming ray scatters off a surface.
// The bool result is false when the ray is absorbed; Attenuation is still meaningful.
type Material interface {
	Scatter(rayIn Ray, hit HitRecord, random *rand.Rand) (ScatterResult, bool)
}

// Validator is implemented by scene objects that can detect invalid configuration
type Validator interface {
	Validate() error
}
