package renderer

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile   *Tile
	TaskID int // For deterministic ordering
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID    int
	Cancelled bool
	Skipped   bool // Never started because the context was done
	Error     error
}

// WorkerPool runs tile tasks on a fixed number of goroutines. The first
// failing task, or the end of the context, stops tasks that have not started yet.
type WorkerPool struct {
	renderer   *TileRenderer
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(renderer *TileRenderer, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	return &WorkerPool{
		renderer:   renderer,
		numWorkers: numWorkers,
	}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run renders every tile and returns one result per tile ordered by task ID.
// The returned error is the first tile error, if any.
func (wp *WorkerPool) Run(ctx context.Context, tiles []*Tile, cancel *atomic.Bool, progress ProgressSink) ([]TileResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)

	resultQueue := make(chan TileResult, len(tiles))

	for i, tile := range tiles {
		task := TileTask{Tile: tile, TaskID: i}
		g.Go(func() error {
			if gctx.Err() != nil {
				// Treated like a cancelled tile that never rendered a pixel
				task.Tile.Cancelled = true
				if progress != nil {
					progress.Complete(task.Tile.ID)
				}
				resultQueue <- TileResult{TaskID: task.TaskID, Cancelled: true, Skipped: true}
				return nil
			}

			err := wp.renderer.RenderTile(task.Tile, cancel, progress)
			resultQueue <- TileResult{
				TaskID:    task.TaskID,
				Cancelled: task.Tile.Cancelled,
				Error:     err,
			}
			return err
		})
	}

	err := g.Wait()
	close(resultQueue)

	results := make([]TileResult, 0, len(tiles))
	for result := range resultQueue {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TaskID < results[j].TaskID })

	return results, err
}
