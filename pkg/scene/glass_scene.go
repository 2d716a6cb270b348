package scene

import (
	"golang.org/x/image/colornames"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// NewGlassScene creates a diffuse sphere flanked by a hollow glass bubble and
// a fuzzy metal sphere. The bubble is a glass sphere with a smaller
// negative-radius glass sphere inside it, which flips the inner normals.
func NewGlassScene() *Scene {
	glass := material.NewDielectric(1.5)

	world := geometry.NewHitableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(albedo(colornames.Steelblue, 1))),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(albedo(colornames.Khaki, 0.9))),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(albedo(colornames.Goldenrod, 1), 0.3)),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, glass),
	)

	cameraConfig := renderer.CameraConfig{
		LookFrom:    core.NewVec3(-2, 2, 1),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		AspectRatio: 2.0,
		Aperture:    0.0,
	}

	return &Scene{
		Name:   "glass",
		World:  world,
		Camera: cameraConfig,
		Width:  400,
		Height: 200,
	}
}
