package material

import (
	"math"
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex}
}

// Scatter implements the Material interface for dielectric scattering.
// Schlick's approximation is the probability of reflecting; the ray
// refracts when the uniform draw is at or above it.
func (d *Dielectric) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	// Dielectrics always attenuate by 1.0 (no color absorption for clear glass)
	attenuation := core.NewVec3(1.0, 1.0, 1.0)

	direction := rayIn.Direction
	directionDotNormal := direction.Dot(hit.Normal)

	var outwardNormal core.Vec3
	var niOverNt, cosine float64
	if directionDotNormal > 0 {
		// Exiting the material (from glass to air)
		outwardNormal = hit.Normal.Negate()
		niOverNt = d.RefractiveIndex
		cosine = math.Min(1, directionDotNormal/direction.Length())
	} else {
		// Entering the material (from air to glass)
		outwardNormal = hit.Normal
		niOverNt = 1.0 / d.RefractiveIndex
		cosine = math.Min(1, -directionDotNormal/direction.Length())
	}

	reflectProbability := 1.0
	refracted, canRefract := direction.Refract(outwardNormal, niOverNt)
	if canRefract {
		reflectProbability = Schlick(cosine, d.RefractiveIndex)
	}

	var scattered core.Ray
	if random.Float64() < reflectProbability {
		scattered = core.NewRayAt(hit.Point, direction.Reflect(hit.Normal), rayIn.Time)
	} else {
		scattered = core.NewRayAt(hit.Point, refracted, rayIn.Time)
	}

	return core.ScatterResult{
		Scattered:   scattered,
		Attenuation: attenuation,
	}, true
}

// Schlick approximates the Fresnel reflectance at the given incidence cosine
func Schlick(cosine, refractiveIndex float64) float64 {
	r0 := (1 - refractiveIndex) / (1 + refractiveIndex)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
