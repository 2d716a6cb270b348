package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Tiles          int           // Number of tiles in the grid
	TilesX, TilesY int           // Grid dimensions
	CancelledTiles int           // Tiles that stopped early on cancellation
	SkippedTiles   int           // Cancelled tiles that never started
	TotalPixels    int           // Pixels in the final image
	RenderedPixels int           // Pixels actually rendered
	TotalSamples   int           // Camera rays traced
	Workers        int           // Parallel workers used
	Duration       time.Duration // Wall-clock time of the parallel phase
}

// Cancelled reports whether any tile stopped before finishing
func (s RenderStats) Cancelled() bool {
	return s.CancelledTiles > 0
}

// SamplesPerSecond returns the sampling throughput of the render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Duration.Seconds()
}
