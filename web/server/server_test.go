package server

import (
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

func doRequest(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestHandleScenes(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var scenes []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &scenes); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(scenes) != 5 {
		t.Fatalf("Expected 5 scenes, got %d", len(scenes))
	}
	if scenes[0].ID != "default" {
		t.Errorf("Expected default scene first, got %q", scenes[0].ID)
	}
	if scenes[4].DisplayName != "Sphere Grid" {
		t.Errorf("Expected display name 'Sphere Grid', got %q", scenes[4].DisplayName)
	}
}

func TestHandleRenderPNG(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/render?scene=simple&width=40&height=20&samples=1&tiles=8&depth=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	if rec.Header().Get("X-Render-Samples") != "800" {
		t.Errorf("Expected 800 samples, got %q", rec.Header().Get("X-Render-Samples"))
	}

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Response is not a PNG: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Errorf("Expected 40x20 image, got %v", img.Bounds())
	}
}

func TestHandleRenderErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown scene", "scene=nope&width=40&height=20", http.StatusNotFound},
		{"indivisible tiles", "scene=simple&width=40&height=20&tiles=3", http.StatusBadRequest},
		{"non-numeric width", "scene=simple&width=abc", http.StatusBadRequest},
		{"samples out of range", "scene=simple&samples=0", http.StatusBadRequest},
		{"bad seed", "scene=simple&seed=x", http.StatusBadRequest},
	}

	s := NewServer(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, "/api/render?"+tt.query)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("Expected a JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestHandleRenderStream(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/render/stream?scene=simple&width=40&height=20&samples=1&tiles=8&depth=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	body := rec.Body.String()
	for _, event := range []string{"event: console", "event: progress", "event: tile", "event: complete"} {
		if !strings.Contains(body, event) {
			t.Errorf("Expected %q in stream", event)
		}
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("Unexpected error event in stream: %s", body)
	}

	// The complete event is the last one and carries the image
	last := body[strings.LastIndex(body, "event: complete"):]
	data := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(last, "\n", 2)[1], "data: "))
	var complete CompleteEvent
	if err := json.Unmarshal([]byte(data), &complete); err != nil {
		t.Fatalf("Invalid complete event: %v", err)
	}
	if complete.Width != 40 || complete.Height != 20 || complete.ImageData == "" {
		t.Errorf("Unexpected complete event: %+v", complete)
	}
	if complete.Stats.Tiles != 8 || complete.Stats.RenderedPixels != 800 {
		t.Errorf("Unexpected stats: %+v", complete.Stats)
	}
}

func TestHandleRenderStreamError(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/render/stream?scene=simple&width=40&height=20&tiles=3")
	body := rec.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("Expected an error event, got %s", body)
	}
	if strings.Contains(body, "event: complete") {
		t.Error("No complete event expected after a configuration error")
	}
}

func TestHandleInspect(t *testing.T) {
	s := NewServer(0)

	// Center of the simple scene looks straight at the diffuse sphere
	rec := doRequest(t, s, "/api/inspect?scene=simple&x=100&y=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp InspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !resp.Hit {
		t.Fatal("Expected the center ray to hit the sphere")
	}
	if resp.MaterialType != "lambertian" || resp.GeometryType != "sphere" {
		t.Errorf("Expected lambertian sphere, got %s %s", resp.MaterialType, resp.GeometryType)
	}
	if resp.Distance < 0.4 || resp.Distance > 0.6 {
		t.Errorf("Expected distance near 0.5, got %f", resp.Distance)
	}
	if !resp.FrontFace {
		t.Error("Expected a front face hit")
	}

	// Top left corner looks into the sky
	rec = doRequest(t, s, "/api/inspect?scene=simple&x=0&y=0")
	resp = InspectResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Hit {
		t.Error("Expected the corner ray to miss")
	}
}

func TestHandleInspectErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing x", "scene=simple&y=0", http.StatusBadRequest},
		{"bad y", "scene=simple&x=0&y=top", http.StatusBadRequest},
		{"out of bounds", "scene=simple&x=500&y=0", http.StatusBadRequest},
		{"negative", "scene=simple&x=-1&y=0", http.StatusBadRequest},
		{"unknown scene", "scene=nope&x=0&y=0", http.StatusNotFound},
	}

	s := NewServer(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, "/api/inspect?"+tt.query)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	NewServer(0).Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard CORS origin, got %q", got)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
		wantErr  bool
	}{
		{"missing uses default", "", 16, false},
		{"valid", "n=32", 32, false},
		{"at minimum", "n=1", 1, false},
		{"below minimum", "n=0", 0, true},
		{"above maximum", "n=101", 0, true},
		{"not a number", "n=abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := parseIntParam(values, "n", 16, 1, 100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestPrepareRenderUsesSceneDefaults(t *testing.T) {
	values, _ := url.ParseQuery("scene=glass")
	req, err := parseRenderRequest(values)
	if err != nil {
		t.Fatalf("parseRenderRequest failed: %v", err)
	}

	job, err := prepareRender(req)
	if err != nil {
		t.Fatalf("prepareRender failed: %v", err)
	}
	if job.config.Width != job.scene.Width || job.config.Height != job.scene.Height {
		t.Errorf("Expected scene size %dx%d, got %dx%d", job.scene.Width, job.scene.Height, job.config.Width, job.config.Height)
	}
	if job.config.Seed != job.scene.Seed() {
		t.Errorf("Expected scene seed %d, got %d", job.scene.Seed(), job.config.Seed)
	}
}

func TestPrepareRenderChecksMemory(t *testing.T) {
	original := checkMemory
	defer func() { checkMemory = original }()

	var checked renderer.RenderConfig
	checkMemory = func(config renderer.RenderConfig) (uint64, uint64, error) {
		checked = config
		return 64 << 20, 1 << 20, nil
	}

	rec := doRequest(t, NewServer(0), "/api/render?scene=simple&width=40&height=20&tiles=8")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
	if checked.Width != 40 || checked.Height != 20 {
		t.Errorf("Expected the resolved 40x20 config to be checked, got %dx%d", checked.Width, checked.Height)
	}

	// A failed memory query does not block rendering
	checkMemory = func(config renderer.RenderConfig) (uint64, uint64, error) {
		return 0, 0, errors.New("no memory info")
	}
	values, _ := url.ParseQuery("scene=simple&width=40&height=20&tiles=8")
	req, _ := parseRenderRequest(values)
	if _, err := prepareRender(req); err != nil {
		t.Errorf("Expected render to proceed without memory info, got %v", err)
	}
}

func TestRootIsNotServed(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for /, got %d", rec.Code)
	}
}
