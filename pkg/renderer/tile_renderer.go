package renderer

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/integrator"
)

// ErrColorRange is returned when accumulated samples leave the valid color range
var ErrColorRange = errors.New("pixel color out of range")

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	world      core.Hitable
	camera     *Camera
	integrator integrator.Integrator
	width      int
	height     int
	samples    int
}

// NewTileRenderer creates a tile renderer for a width x height image
func NewTileRenderer(world core.Hitable, camera *Camera, integratorInst integrator.Integrator, width, height, samples int) *TileRenderer {
	return &TileRenderer{
		world:      world,
		camera:     camera,
		integrator: integratorInst,
		width:      width,
		height:     height,
		samples:    samples,
	}
}

// RenderTile fills the tile's pixel buffer row by row. The cancel flag is
// polled before every pixel; a cancelled tile stops early without error.
func (tr *TileRenderer) RenderTile(tile *Tile, cancel *atomic.Bool, progress ProgressSink) error {
	if progress == nil {
		progress = nopProgress{}
	}
	defer progress.Complete(tile.ID)

	rowWidth := tile.Bounds.Dx()
	for y := 0; y < tile.Bounds.Dy(); y++ {
		for x := 0; x < rowWidth; x++ {
			if cancel != nil && cancel.Load() {
				tile.Cancelled = true
				return nil
			}

			pixel, err := tr.samplePixel(tile, tile.Bounds.Min.X+x, tile.Bounds.Min.Y+y)
			if err != nil {
				return fmt.Errorf("tile %d: %w", tile.ID, err)
			}
			tile.Pixels.SetRGBA(x, y, pixel)
		}

		tile.Progress += rowWidth
		progress.Advance(tile.ID, rowWidth)
	}

	return nil
}

// samplePixel traces jittered camera rays through image pixel (i, j), where
// j counts rows from the top of the image
func (tr *TileRenderer) samplePixel(tile *Tile, i, j int) (color.RGBA, error) {
	random := tile.Random
	var sum core.Vec3

	for s := 0; s < tr.samples; s++ {
		u := (float64(i) + random.Float64()) / float64(tr.width)
		v := (float64(tr.height-1-j) + random.Float64()) / float64(tr.height)
		ray := tr.camera.GetRay(u, v, random)
		sum = sum.Add(tr.integrator.RayColor(ray, tr.world, random))
	}

	if !sum.IsFinite() || !sum.InRange(0, float64(tr.samples)) {
		return color.RGBA{}, fmt.Errorf("%w: pixel (%d, %d) accumulated %v over %d samples",
			ErrColorRange, i, j, sum, tr.samples)
	}

	// Average, gamma 2, then quantize to 8 bits
	c := sum.Divide(float64(tr.samples)).Sqrt()
	return color.RGBA{
		R: toByte(c.X),
		G: toByte(c.Y),
		B: toByte(c.Z),
		A: 255,
	}, nil
}

func toByte(c float64) uint8 {
	return uint8(math.Min(255, 255.99*c))
}
