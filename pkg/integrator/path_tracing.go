package integrator

import (
	"math"
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// DefaultMaxDepth is the bounce budget used when none is configured
const DefaultMaxDepth = 50

// Ray parameter interval searched for intersections. The lower bound keeps
// scattered rays from re-hitting the surface they start on.
const (
	hitEpsilon = 0.001
	hitMax     = math.MaxFloat64
)

var (
	// RunawayColor flags light paths that exhausted the bounce budget
	RunawayColor = core.NewVec3(1, 0, 1)

	skyBottom = core.NewVec3(1.0, 1.0, 1.0)
	skyTop    = core.NewVec3(0.5, 0.7, 1.0)
)

// PathTracer implements recursive path tracing against a sky gradient
type PathTracer struct {
	MaxDepth int
}

// NewPathTracer creates a path tracer; a non-positive depth selects DefaultMaxDepth
func NewPathTracer(maxDepth int) *PathTracer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &PathTracer{MaxDepth: maxDepth}
}

// RayColor computes the color for a camera ray
func (pt *PathTracer) RayColor(ray core.Ray, world core.Hitable, random *rand.Rand) core.Vec3 {
	return pt.Color(ray, world, 0, random)
}

// Color returns the light arriving along ray after depth bounces so far
func (pt *PathTracer) Color(ray core.Ray, world core.Hitable, depth int, random *rand.Rand) core.Vec3 {
	hit, isHit := world.Hit(ray, hitEpsilon, hitMax)
	if !isHit {
		return BackgroundGradient(ray)
	}

	// Paths still bouncing at the cap are flagged rather than silently darkened
	if depth >= pt.MaxDepth {
		return RunawayColor
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, random)
	if !didScatter {
		// Absorbers and normal visualizers terminate with their own color
		return scatter.Attenuation
	}

	return scatter.Attenuation.MultiplyVec(pt.Color(scatter.Scattered, world, depth+1, random))
}

// BackgroundGradient returns a white to sky-blue gradient based on ray direction
func BackgroundGradient(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()

	// Use the y-component to create a gradient (map from -1,1 to 0,1)
	t := 0.5 * (unitDirection.Y + 1.0)

	return core.Lerp(t, skyBottom, skyTop)
}
