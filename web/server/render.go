package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "tile", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate reports overall progress of a streaming render
type ProgressUpdate struct {
	Done           int     `json:"done"`  // Pixels finished
	Total          int     `json:"total"` // Pixels in the image
	Percent        float64 `json:"percent"`
	TilesCompleted int     `json:"tilesCompleted"`
	TotalTiles     int     `json:"totalTiles"`
}

// TileUpdate reports that one tile finished or stopped
type TileUpdate struct {
	TileID         int `json:"tileId"`
	TilesCompleted int `json:"tilesCompleted"`
	TotalTiles     int `json:"totalTiles"`
}

// CompleteEvent carries the finished image
type CompleteEvent struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Seed      int64  `json:"seed"`
	Stats     Stats  `json:"stats"`
}

// handleRenderStream renders an image while streaming console output and
// progress over Server-Sent Events, then sends the PNG in a final event
func (s *Server) handleRenderStream(c echo.Context) error {
	w := c.Response()
	setSSEHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()

	// Single writer goroutine owns the response
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		sendError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return nil
	}

	job, err := prepareRender(req)
	if err != nil {
		sendError(ctx, sseEventChan, err.Error())
		return nil
	}

	consoleChan := make(chan ConsoleMessage, 50)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	logger := NewWebLogger(fmt.Sprintf("render-%d", time.Now().UnixNano()), consoleChan)

	var cancel atomic.Bool
	stop := context.AfterFunc(ctx, func() { cancel.Store(true) })
	defer stop()

	progress := newStreamProgress(ctx, sseEventChan, job.config)
	r := renderer.NewRenderer(job.scene.World, job.camera, job.config, logger)
	img, stats, err := r.Render(ctx, &cancel, progress)

	// The renderer logs synchronously, so every console message is queued by now
	close(consoleChan)
	<-consoleDone

	if err != nil {
		sendError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return nil
	}
	if stats.Cancelled() {
		return nil
	}

	imageData, err := imageToBase64PNG(img)
	if err != nil {
		sendError(ctx, sseEventChan, fmt.Sprintf("failed to encode image: %v", err))
		return nil
	}

	sendJSON(ctx, sseEventChan, "complete", CompleteEvent{
		ImageData: imageData,
		Width:     job.config.Width,
		Height:    job.config.Height,
		Seed:      job.config.Seed,
		Stats:     newStats(stats),
	})
	return nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(header http.Header) {
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set(echo.HeaderCacheControl, "no-cache")
	header.Set(echo.HeaderConnection, "keep-alive")
}

// writeSSEEvents writes events until the channel closes or the client leaves
func writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan closes
func streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		}
	}
}

// sendJSON marshals data and queues it as an event
func sendJSON(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, data interface{}) {
	encoded, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(encoded)}:
	case <-ctx.Done():
	}
}

// sendError queues an error event
func sendError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
	}
}

// streamProgress turns renderer progress into SSE events. The renderer calls
// it from a single goroutine.
type streamProgress struct {
	*renderer.ProgressCounter
	ctx          context.Context
	sseEventChan chan<- SSEEvent
	totalTiles   int
	lastPercent  int
}

func newStreamProgress(ctx context.Context, sseEventChan chan<- SSEEvent, config renderer.RenderConfig) *streamProgress {
	sp := &streamProgress{
		ctx:          ctx,
		sseEventChan: sseEventChan,
		totalTiles:   config.TileCount,
		lastPercent:  -1,
	}
	sp.ProgressCounter = renderer.NewProgressCounter(config.Width*config.Height, sp.update)
	return sp
}

// update sends a progress event whenever the whole percent changes
func (sp *streamProgress) update(done, total int) {
	percent := int(sp.Fraction() * 100)
	if percent == sp.lastPercent {
		return
	}
	sp.lastPercent = percent

	sendJSON(sp.ctx, sp.sseEventChan, "progress", ProgressUpdate{
		Done:           done,
		Total:          total,
		Percent:        sp.Fraction() * 100,
		TilesCompleted: len(sp.Completed),
		TotalTiles:     sp.totalTiles,
	})
}

func (sp *streamProgress) Complete(tileID int) {
	sp.ProgressCounter.Complete(tileID)

	sendJSON(sp.ctx, sp.sseEventChan, "tile", TileUpdate{
		TileID:         tileID,
		TilesCompleted: len(sp.Completed),
		TotalTiles:     sp.totalTiles,
	})
}
