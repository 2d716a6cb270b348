package material

import (
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering
func (l *Lambertian) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	// Aim at a random point in the unit sphere tangent to the surface
	target := hit.Point.Add(hit.Normal).Add(core.RandomInUnitSphere(random))
	scattered := core.NewRayAt(hit.Point, target.Subtract(hit.Point), rayIn.Time)

	return core.ScatterResult{
		Scattered:   scattered,
		Attenuation: l.Albedo,
	}, true
}
