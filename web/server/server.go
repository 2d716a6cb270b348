package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
	"github.com/df07/go-tiled-raytracer/pkg/scene"
)

// errInsufficientMemory is returned when a render would not fit in available memory
var errInsufficientMemory = errors.New("insufficient memory for render")

// checkMemory reports required and available bytes for a render
var checkMemory = renderer.CheckMemory

// Server handles web requests for the tiled raytracer
type Server struct {
	port int
	echo *echo.Echo
}

// NewServer creates a new web server with all routes registered
func NewServer(port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
	}))

	s := &Server{port: port, echo: e}

	// API endpoints
	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/scenes", s.handleScenes)
	api.GET("/render", s.handleRender)
	api.GET("/render/stream", s.handleRenderStream)
	api.GET("/inspect", s.handleInspect)

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string `json:"scene"`   // Scene name (e.g., "default")
	Width   int    `json:"width"`   // Image width (0 = scene default)
	Height  int    `json:"height"`  // Image height (0 = scene default)
	Samples int    `json:"samples"` // Samples per pixel
	Tiles   int    `json:"tiles"`   // Number of tiles
	Depth   int    `json:"depth"`   // Maximum bounce depth
	Seed    int64  `json:"seed"`    // Random seed (0 = derived from the scene)
}

// Stats represents render statistics
type Stats struct {
	Tiles          int     `json:"tiles"`
	CancelledTiles int     `json:"cancelledTiles"`
	SkippedTiles   int     `json:"skippedTiles"`
	TotalPixels    int     `json:"totalPixels"`
	RenderedPixels int     `json:"renderedPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	Workers        int     `json:"workers"`
	SamplesPerSec  float64 `json:"samplesPerSec"`
	ElapsedMs      int64   `json:"elapsedMs"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		Tiles:          stats.Tiles,
		CancelledTiles: stats.CancelledTiles,
		SkippedTiles:   stats.SkippedTiles,
		TotalPixels:    stats.TotalPixels,
		RenderedPixels: stats.RenderedPixels,
		TotalSamples:   int64(stats.TotalSamples),
		Workers:        stats.Workers,
		SamplesPerSec:  stats.SamplesPerSecond(),
		ElapsedMs:      stats.Duration.Milliseconds(),
	}
}

// renderJob is a validated render ready to run
type renderJob struct {
	scene  *scene.Scene
	camera *renderer.Camera
	config renderer.RenderConfig
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(c echo.Context) error {
	return c.JSON(http.StatusOK, scene.List())
}

// handleRender renders a full image and returns it as a PNG. A client that
// disconnects stops the render early.
func (s *Server) handleRender(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid request: %v", err)})
	}

	job, err := prepareRender(req)
	if err != nil {
		return c.JSON(statusForError(err), map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	var cancel atomic.Bool
	stop := context.AfterFunc(ctx, func() { cancel.Store(true) })
	defer stop()

	r := renderer.NewRenderer(job.scene.World, job.camera, job.config, renderer.NewDefaultLogger())
	img, stats, err := r.Render(ctx, &cancel, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Render error: %v", err)})
	}
	if stats.Cancelled() {
		// Client is gone; nothing to send
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("failed to encode image: %v", err)})
	}

	header := c.Response().Header()
	header.Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	header.Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	header.Set("X-Render-Seed", strconv.FormatInt(job.config.Seed, 10))
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// parseRenderRequest parses and validates query parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	defaults := renderer.DefaultRenderConfig()
	req := &RenderRequest{Scene: "default"}

	if name := values.Get("scene"); name != "" {
		req.Scene = name
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, 8, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 0, 8, 2000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(values, "samples", 16, 1, 10000); err != nil {
		return nil, err
	}
	if req.Tiles, err = parseIntParam(values, "tiles", defaults.TileCount, 1, 1024); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(values, "depth", defaults.MaxDepth, 1, 500); err != nil {
		return nil, err
	}
	if value := values.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// prepareRender builds the scene, camera and configuration for a request.
// All configuration errors surface here, before rendering starts.
func prepareRender(req *RenderRequest) (*renderJob, error) {
	sceneObj, err := scene.New(req.Scene)
	if err != nil {
		return nil, err
	}

	config := renderer.RenderConfig{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.Samples,
		TileCount:       req.Tiles,
		MaxDepth:        req.Depth,
		Seed:            req.Seed,
	}
	if config.Width == 0 {
		config.Width = sceneObj.Width
	}
	if config.Height == 0 {
		config.Height = sceneObj.Height
	}
	if config.Seed == 0 {
		config.Seed = sceneObj.Seed()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// A failed system query only skips the check
	required, available, err := checkMemory(config)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else if required > available {
		return nil, fmt.Errorf("%w: needs %d MB but only %d MB are available",
			errInsufficientMemory, required>>20, available>>20)
	}

	camera, err := sceneObj.NewCamera(config.Width, config.Height)
	if err != nil {
		return nil, err
	}

	return &renderJob{scene: sceneObj, camera: camera, config: config}, nil
}

// statusForError maps configuration errors to HTTP status codes
func statusForError(err error) int {
	if errors.Is(err, scene.ErrUnknownScene) {
		return http.StatusNotFound
	}
	if errors.Is(err, errInsufficientMemory) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// imageToBase64PNG encodes an image as a base64 PNG string
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// vec3Array converts a vector for JSON output
func vec3Array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
