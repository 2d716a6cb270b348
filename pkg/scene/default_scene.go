package scene

import (
	"math/rand"

	"golang.org/x/image/colornames"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// NewDefaultScene creates a field of small random spheres around three large
// ones. Small diffuse spheres bounce upward while the shutter is open.
func NewDefaultScene() *Scene {
	cameraConfig := renderer.CameraConfig{
		LookFrom:      core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20.0,
		AspectRatio:   3.0 / 2.0,
		Aperture:      0.1,
		FocusDistance: 10.0,
		Time0:         0.0,
		Time1:         1.0,
	}

	world := geometry.NewHitableList(
		geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(albedo(colornames.Gray, 1))),
	)

	// Fixed seed so the scene layout is identical on every run
	random := rand.New(rand.NewSource(1))
	clearing := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float64()
			center := core.NewVec3(float64(a)+0.9*random.Float64(), 0.2, float64(b)+0.9*random.Float64())
			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			switch {
			case chooseMat < 0.8:
				// Diffuse
				color := core.NewVec3(random.Float64(), random.Float64(), random.Float64()).
					MultiplyVec(core.NewVec3(random.Float64(), random.Float64(), random.Float64()))
				motion := core.NewVec3(0, 0.5*random.Float64(), 0)
				world.Add(geometry.NewMovingSphere(center, 0.2, motion, material.NewLambertian(color)))
			case chooseMat < 0.95:
				// Metal
				color := core.NewVec3(0.5*(1+random.Float64()), 0.5*(1+random.Float64()), 0.5*(1+random.Float64()))
				world.Add(geometry.NewSphere(center, 0.2, material.NewMetal(color, 0.5*random.Float64())))
			default:
				// Glass
				world.Add(geometry.NewSphere(center, 0.2, material.NewDielectric(1.5)))
			}
		}
	}

	world.Add(
		geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(albedo(colornames.Saddlebrown, 0.75))),
		geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(albedo(colornames.Tan, 0.85), 0.0)),
	)

	return &Scene{
		Name:   "default",
		World:  world,
		Camera: cameraConfig,
		Width:  600,
		Height: 400,
	}
}
