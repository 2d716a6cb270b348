package server

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"` // Euclidean distance from the ray origin
	Depth        float64                `json:"depth"`    // Distance along the camera's view axis
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult contains the hit record and the object an inspection ray hit
type InspectResult struct {
	Hit       bool
	Ray       core.Ray
	HitRecord *core.HitRecord
	Object    core.Hitable
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat core.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = vec3Array(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vec3Array(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	case *material.NormalVisualizer:
		return "normal", properties

	default:
		return "unknown", properties
	}
}

// extractGeometryInfo extracts detailed geometry information at the given ray time
func extractGeometryInfo(object core.Hitable, time float64) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	if box, ok := object.BoundingBox(time, time); ok {
		properties["boundingBox"] = map[string]interface{}{
			"min":    vec3Array(box.Min),
			"max":    vec3Array(box.Max),
			"center": vec3Array(box.Center()),
			"size":   vec3Array(box.Size()),
		}
	}

	switch geom := object.(type) {
	case *geometry.MovingSphere:
		properties["center"] = vec3Array(geom.Center)
		properties["radius"] = geom.Radius
		properties["motion"] = vec3Array(geom.Motion)
		properties["centerAtTime"] = vec3Array(geom.CenterAt(time))
		return "moving_sphere", properties

	case *geometry.Sphere:
		properties["center"] = vec3Array(geom.Center)
		properties["radius"] = geom.Radius
		if geom.Radius < 0 {
			properties["hollow"] = true
		}
		return "sphere", properties

	default:
		return "unknown", properties
	}
}

// hexColor formats an albedo as a CSS color
func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// inspectPixel casts a ray through the center of a pixel and returns the
// first object hit
func inspectPixel(world *geometry.HitableList, camera *renderer.Camera, width, height, pixelX, pixelY int, seed int64) InspectResult {
	// Fixed lens and shutter samples keep inspection reproducible
	random := rand.New(rand.NewSource(seed))
	u := (float64(pixelX) + 0.5) / float64(width)
	v := (float64(height-1-pixelY) + 0.5) / float64(height)
	ray := camera.GetRay(u, v, random)

	hit, object, isHit := world.HitObject(ray, 0.001, math.Inf(1))
	return InspectResult{Hit: isHit, Ray: ray, HitRecord: hit, Object: object}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
	}

	pixelX, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
	}
	pixelY, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
	}

	job, err := prepareRender(req)
	if err != nil {
		return c.JSON(statusForError(err), map[string]string{"error": err.Error()})
	}

	width, height := job.config.Width, job.config.Height
	if pixelX < 0 || pixelX >= width || pixelY < 0 || pixelY >= height {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
	}

	result := inspectPixel(job.scene.World, job.camera, width, height, pixelX, pixelY, job.config.Seed)
	return c.JSON(http.StatusOK, newInspectResponse(result, job.camera))
}

// newInspectResponse converts an inspection result to its JSON form
func newInspectResponse(result InspectResult, camera *renderer.Camera) InspectResponse {
	if !result.Hit {
		return InspectResponse{Hit: false}
	}

	materialType, materialProps := extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := extractGeometryInfo(result.Object, result.Ray.Time)

	// Camera rays are not unit length, so T alone is not a distance
	offset := result.HitRecord.Point.Subtract(result.Ray.Origin)

	return InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vec3Array(result.HitRecord.Point),
		Normal:       vec3Array(result.HitRecord.Normal),
		Distance:     result.HitRecord.T * result.Ray.Direction.Length(),
		Depth:        offset.Dot(camera.GetCameraForward()),
		FrontFace:    result.Ray.Direction.Dot(result.HitRecord.Normal) < 0,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}
}
