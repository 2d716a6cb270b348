package scene

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// NewSimpleScene creates a single diffuse sphere of radius 0.5 at (0,0,-1)
// resting on a large ground sphere
func NewSimpleScene() *Scene {
	world := geometry.NewHitableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))),
	)

	return &Scene{
		Name:   "simple",
		World:  world,
		Camera: renderer.DefaultCameraConfig(),
		Width:  200,
		Height: 100,
	}
}
