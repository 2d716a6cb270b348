package integrator

import (
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the color carried back along a camera ray
	RayColor(ray core.Ray, world core.Hitable, random *rand.Rand) core.Vec3
}
