package renderer

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/integrator"
)

// Renderer maps the path tracer over a tiled image in parallel
type Renderer struct {
	world  core.Hitable
	camera *Camera
	config RenderConfig
	logger core.Logger
}

// NewRenderer creates a renderer for the world as seen by camera
func NewRenderer(world core.Hitable, camera *Camera, config RenderConfig, logger core.Logger) *Renderer {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Renderer{
		world:  world,
		camera: camera,
		config: config,
		logger: logger,
	}
}

// Render renders the configured image. It is shorthand for
// NewRenderer(...).Render with a silent logger.
func Render(world core.Hitable, camera *Camera, config RenderConfig, cancel *atomic.Bool, progress ProgressSink) (*image.RGBA, RenderStats, error) {
	return NewRenderer(world, camera, config, nil).Render(context.Background(), cancel, progress)
}

// Validate reports configuration errors in the render setup
func (r *Renderer) Validate() error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.camera == nil {
		return fmt.Errorf("%w: no camera", ErrInvalidCamera)
	}
	if r.world == nil {
		return fmt.Errorf("%w: no world", ErrInvalidConfig)
	}
	if v, ok := r.world.(core.Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid world: %w", err)
		}
	}
	return nil
}

// Render renders every tile in parallel and assembles the final image.
// Configuration errors are returned before any tile starts. Cancellation
// through the flag is not an error: the partially rendered image is
// returned and RenderStats.CancelledTiles reports the unfinished tiles.
func (r *Renderer) Render(ctx context.Context, cancel *atomic.Bool, progress ProgressSink) (*image.RGBA, RenderStats, error) {
	if err := r.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	tilesX, tilesY, err := TileGrid(r.config.Width, r.config.Height, r.config.TileCount)
	if err != nil {
		return nil, RenderStats{}, err
	}
	tiles, err := NewTiles(r.config)
	if err != nil {
		return nil, RenderStats{}, err
	}

	tracer := integrator.NewPathTracer(r.config.MaxDepth)
	tileRenderer := NewTileRenderer(r.world, r.camera, tracer, r.config.Width, r.config.Height, r.config.SamplesPerPixel)
	pool := NewWorkerPool(tileRenderer, r.config.Workers())

	stats := RenderStats{
		Tiles:       len(tiles),
		TilesX:      tilesX,
		TilesY:      tilesY,
		TotalPixels: r.config.Width * r.config.Height,
		Workers:     pool.GetNumWorkers(),
	}

	r.logger.Printf("Rendering %dx%d at %d samples per pixel: %d tiles (%dx%d) using %d workers...\n",
		r.config.Width, r.config.Height, r.config.SamplesPerPixel, len(tiles), tilesX, tilesY, stats.Workers)

	// Tile progress is serialized through one goroutine before reaching the sink
	dispatcher := newProgressDispatcher(progress, 2*len(tiles))
	start := time.Now()
	results, err := pool.Run(ctx, tiles, cancel, dispatcher)
	dispatcher.Close()
	stats.Duration = time.Since(start)

	for _, result := range results {
		if result.Cancelled {
			stats.CancelledTiles++
		}
		if result.Skipped {
			stats.SkippedTiles++
		}
	}
	for _, tile := range tiles {
		stats.RenderedPixels += tile.Progress
	}
	stats.TotalSamples = stats.RenderedPixels * r.config.SamplesPerPixel

	if err != nil {
		return nil, stats, err
	}

	img, err := Assemble(r.config.Width, r.config.Height, tiles)
	if err != nil {
		return nil, stats, err
	}

	if stats.Cancelled() {
		r.logger.Printf("Render cancelled after %v: %d of %d tiles incomplete (%d never started)\n",
			stats.Duration, stats.CancelledTiles, stats.Tiles, stats.SkippedTiles)
	} else {
		r.logger.Printf("Render completed in %v (%.0f samples/sec)\n", stats.Duration, stats.SamplesPerSecond())
	}

	return img, stats, nil
}
