package geometry

import (
	"errors"
	"math"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// ErrZeroRadius is returned when a sphere is configured with radius 0
var ErrZeroRadius = errors.New("sphere radius must be non-zero")

// Sphere represents a static sphere. A negative radius flips the normal
// inward, which turns a sphere into the inner wall of a hollow glass shell.
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material core.Material
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, material core.Material) *Sphere {
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: material,
	}
}

// Validate reports configuration errors for this sphere
func (s *Sphere) Validate() error {
	if s.Radius == 0 || math.IsNaN(s.Radius) {
		return ErrZeroRadius
	}
	return nil
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	return hitSphere(s.Center, s.Radius, s.Material, ray, tMin, tMax)
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	return sphereBox(s.Center, s.Radius), true
}

// hitSphere solves |O + tD - C|² = r² for the nearest root in (tMin, tMax)
func hitSphere(center core.Vec3, radius float64, mat core.Material, ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	// Vector from sphere center to ray origin
	oc := ray.Origin.Subtract(center)

	// Quadratic equation coefficients with halved b: at² + 2bt + c = 0
	a := ray.Direction.LengthSquared()
	b := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - radius*radius

	discriminant := b*b - a*c
	if discriminant < 0 {
		return nil, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first, then the farther one
	root := (-b - sqrtD) / a
	if root <= tMin || root >= tMax {
		root = (-b + sqrtD) / a
		if root <= tMin || root >= tMax {
			return nil, false
		}
	}

	point := ray.At(root)
	return &core.HitRecord{
		T:        root,
		Point:    point,
		Normal:   point.Subtract(center).Divide(radius),
		Material: mat,
	}, true
}

func sphereBox(center core.Vec3, radius float64) core.AABB {
	r := math.Abs(radius)
	extent := core.NewVec3(r, r, r)
	return core.NewAABB(center.Subtract(extent), center.Add(extent))
}
