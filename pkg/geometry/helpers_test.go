package geometry

import (
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// stubMaterial never scatters; it lets geometry tests check material plumbing
type stubMaterial struct{}

func (m *stubMaterial) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	return core.ScatterResult{}, false
}

// unboundedHitable reports no bounding box
type unboundedHitable struct{}

func (u unboundedHitable) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	return nil, false
}

func (u unboundedHitable) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	return core.AABB{}, false
}
