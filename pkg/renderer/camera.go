package renderer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

var (
	// ErrDegenerateCamera is returned when the camera basis cannot be built
	ErrDegenerateCamera = errors.New("degenerate camera basis")
	// ErrInvalidCamera is returned for out-of-range camera parameters
	ErrInvalidCamera = errors.New("invalid camera configuration")
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	LookFrom      core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually 0,1,0)
	VFov          float64   // Vertical field of view in degrees
	AspectRatio   float64   // Width / height
	Aperture      float64   // Lens diameter, 0 for a pinhole camera
	FocusDistance float64   // Distance to the focus plane (0 = auto-calculate)
	Time0, Time1  float64   // Shutter open/close times for motion blur
}

// DefaultCameraConfig returns a pinhole camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90,
		AspectRatio: 2.0,
	}
}

// Camera generates rays for rendering. It is immutable after construction
// and safe to share between workers.
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3
	lensRadius      float64
	time0, time1    float64
}

// NewCamera creates a thin-lens camera from the configuration
func NewCamera(config CameraConfig) (*Camera, error) {
	if config.VFov <= 0 || config.VFov >= 180 {
		return nil, fmt.Errorf("%w: vertical field of view %g", ErrInvalidCamera, config.VFov)
	}
	if config.AspectRatio <= 0 {
		return nil, fmt.Errorf("%w: aspect ratio %g", ErrInvalidCamera, config.AspectRatio)
	}
	if config.Aperture < 0 {
		return nil, fmt.Errorf("%w: aperture %g", ErrInvalidCamera, config.Aperture)
	}

	view := config.LookFrom.Subtract(config.LookAt)
	if view.IsZero() {
		return nil, fmt.Errorf("%w: look-from equals look-at", ErrDegenerateCamera)
	}

	focusDistance := config.FocusDistance
	if focusDistance == 0 {
		focusDistance = view.Length()
	}
	if focusDistance < 0 {
		return nil, fmt.Errorf("%w: focus distance %g", ErrInvalidCamera, focusDistance)
	}

	theta := config.VFov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := config.AspectRatio * halfHeight

	// Orthonormal camera basis
	w := view.Normalize()
	side := config.Up.Cross(w)
	if side.IsZero() {
		return nil, fmt.Errorf("%w: up vector is parallel to the view direction", ErrDegenerateCamera)
	}
	u := side.Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(2 * focusDistance * halfWidth)
	vertical := v.Multiply(2 * focusDistance * halfHeight)
	lowerLeftCorner := config.LookFrom.Subtract(
		u.Multiply(halfWidth).Add(v.Multiply(halfHeight)).Add(w).Multiply(focusDistance))

	return &Camera{
		origin:          config.LookFrom,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
		time0:           config.Time0,
		time1:           config.Time1,
	}, nil
}

// GetRay generates a ray for screen coordinates (s, t) where 0 <= s,t <= 1.
// The origin is jittered over the lens disk and the time over the shutter interval.
func (c *Camera) GetRay(s, t float64, random *rand.Rand) core.Ray {
	origin := c.origin
	if c.lensRadius > 0 {
		rd := core.RandomInUnitDisk(random).Multiply(c.lensRadius)
		origin = origin.Add(c.u.Multiply(rd.X)).Add(c.v.Multiply(rd.Y))
	}

	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	time := c.time0
	if c.time1 > c.time0 {
		time += random.Float64() * (c.time1 - c.time0)
	}

	return core.NewRayAt(origin, direction, time)
}

// GetCameraForward returns the direction the camera looks at
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.w.Negate()
}
