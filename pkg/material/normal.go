package material

import (
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// NormalVisualizer colors a surface by its normal and never scatters
type NormalVisualizer struct{}

// NewNormalVisualizer creates a new normal visualizer material
func NewNormalVisualizer() *NormalVisualizer {
	return &NormalVisualizer{}
}

// Scatter maps the unit normal from [-1,1] to a [0,1] color
func (n *NormalVisualizer) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	return core.ScatterResult{
		Attenuation: hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5),
	}, false
}
