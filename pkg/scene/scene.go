package scene

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when no scene is registered under a name
var ErrUnknownScene = errors.New("unknown scene")

// Scene contains all the elements needed for rendering
type Scene struct {
	Name   string
	World  *geometry.HitableList // Objects in the scene
	Camera renderer.CameraConfig // Camera setup; the aspect ratio follows the image size
	Width  int                   // Preferred image width
	Height int                   // Preferred image height
}

// SceneInfo describes a built-in scene for listings
type SceneInfo struct {
	ID          string `json:"id"`          // Name passed to New
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
}

type sceneEntry struct {
	info   SceneInfo
	create func() *Scene
}

// registry lists the built-in scenes in display order
var registry = []sceneEntry{
	{SceneInfo{ID: "default", Description: "Random field of small spheres around three large ones"}, NewDefaultScene},
	{SceneInfo{ID: "simple", Description: "One diffuse sphere resting on a ground sphere"}, NewSimpleScene},
	{SceneInfo{ID: "glass", Description: "Hollow glass bubble next to diffuse and metal spheres"}, NewGlassScene},
	{SceneInfo{ID: "normals", Description: "Surface normals shown as colors"}, NewNormalsScene},
	{SceneInfo{ID: "sphere-grid", Description: "Grid of rainbow-colored metallic spheres"}, NewSphereGridScene},
}

// Names returns the names of all built-in scenes
func Names() []string {
	names := make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.info.ID
	}
	return names
}

// List returns descriptions of all built-in scenes
func List() []SceneInfo {
	infos := make([]SceneInfo, len(registry))
	for i, entry := range registry {
		infos[i] = entry.info
		infos[i].DisplayName = titleCase(entry.info.ID)
	}
	return infos
}

// New creates the built-in scene with the given name
func New(name string) (*Scene, error) {
	for _, entry := range registry {
		if entry.info.ID == name {
			return entry.create(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
}

// Seed returns a reproducible random seed derived from the scene's identity
func (s *Scene) Seed() int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%d", s.Name, s.World.Len())
	return int64(h.Sum64() >> 1)
}

// NewCamera builds the scene's camera for a width x height image
func (s *Scene) NewCamera(width, height int) (*renderer.Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", renderer.ErrInvalidConfig, width, height)
	}
	config := s.Camera
	config.AspectRatio = float64(width) / float64(height)
	return renderer.NewCamera(config)
}

// albedo converts a palette color to a linear albedo scaled by factor
func albedo(c color.RGBA, factor float64) core.Vec3 {
	return core.ColorFromRGBA(c).Multiply(factor)
}

// titleCase converts a scene name to title case
// e.g., "sphere-grid" -> "Sphere Grid"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
