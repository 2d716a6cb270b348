package scene

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// NewNormalsScene shows surface normals as colors, useful for checking geometry
func NewNormalsScene() *Scene {
	normals := material.NewNormalVisualizer()

	world := geometry.NewHitableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, normals),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, normals),
	)

	return &Scene{
		Name:   "normals",
		World:  world,
		Camera: renderer.DefaultCameraConfig(),
		Width:  200,
		Height: 100,
	}
}
