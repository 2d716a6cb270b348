package renderer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/df07/go-tiled-raytracer/pkg/integrator"
)

// ErrInvalidConfig is returned for out-of-range render parameters
var ErrInvalidConfig = errors.New("invalid render configuration")

// RenderConfig contains configuration for a tiled render
type RenderConfig struct {
	Width           int   // Output image width in pixels
	Height          int   // Output image height in pixels
	SamplesPerPixel int   // Camera rays per pixel
	TileCount       int   // Requested number of tiles
	MaxDepth        int   // Maximum scatter depth (0 = integrator default)
	NumWorkers      int   // Number of parallel workers (0 = physical core count)
	Seed            int64 // Base seed for the per-tile random generators
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:           400,
		Height:          200,
		SamplesPerPixel: 100,
		TileCount:       16,
		MaxDepth:        integrator.DefaultMaxDepth,
		NumWorkers:      0, // Auto-detect core count
		Seed:            42,
	}
}

// Validate reports configuration errors before any rendering work starts
func (c RenderConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("%w: samples per pixel %d", ErrInvalidConfig, c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.NumWorkers)
	}
	if _, _, err := TileGrid(c.Width, c.Height, c.TileCount); err != nil {
		return err
	}
	return nil
}

// Workers resolves the configured worker count
func (c RenderConfig) Workers() int {
	if c.NumWorkers > 0 {
		return c.NumWorkers
	}
	return DefaultWorkers()
}

// DefaultWorkers returns the number of physical CPU cores, falling back to
// the logical CPU count when the platform does not report it
func DefaultWorkers() int {
	cores, err := cpu.Counts(false)
	if err != nil || cores <= 0 {
		return runtime.NumCPU()
	}
	return cores
}

// CPUModel returns the model name of the first CPU, or "unknown"
func CPUModel() string {
	info, err := cpu.Info()
	if err != nil || len(info) == 0 {
		return "unknown"
	}
	return info[0].ModelName
}

// MemoryEstimate returns the bytes needed for the tile buffers and the
// assembled frame of a render
func MemoryEstimate(config RenderConfig) uint64 {
	// Each RGBA pixel is held once in its tile and once in the frame
	return uint64(config.Width) * uint64(config.Height) * 4 * 2
}

// CheckMemory compares the render's buffer requirements with the memory
// currently available. It returns an error only when the system query fails.
func CheckMemory(config RenderConfig) (required, available uint64, err error) {
	required = MemoryEstimate(config)
	vm, err := mem.VirtualMemory()
	if err != nil {
		return required, 0, fmt.Errorf("failed to query system memory: %w", err)
	}
	return required, vm.Available, nil
}
