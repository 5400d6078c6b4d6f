package renderer

import (
	"math"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Center      core.Vec3 // Camera position
	LookAt      core.Vec3 // Point the camera looks at
	Up          core.Vec3 // Up direction
	Width       int       // Image width in pixels
	AspectRatio float64   // Width / height
	VFov        float64   // Vertical field of view in degrees
	Time0       float64   // Shutter open
	Time1       float64   // Shutter close
}

// Camera generates rays for rendering
type Camera struct {
	config          CameraConfig
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera creates a camera from its configuration
func NewCamera(config CameraConfig) *Camera {
	theta := config.VFov * math.Pi / 180.0
	viewportHeight := 2.0 * math.Tan(theta/2)
	viewportWidth := config.AspectRatio * viewportHeight

	// Orthonormal basis looking down -w
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w)

	return &Camera{
		config:          config,
		origin:          config.Center,
		horizontal:      horizontal,
		vertical:        vertical,
		lowerLeftCorner: lowerLeftCorner,
	}
}

// GetRay generates a ray for screen coordinates (s, t) where 0 <= s,t <= 1.
// The ray time is drawn uniformly from the shutter interval.
func (c *Camera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(c.origin)

	time := c.config.Time0
	if c.config.Time1 > c.config.Time0 {
		time += sampler.Get1D() * (c.config.Time1 - c.config.Time0)
	}
	return core.NewRayAtTime(c.origin, direction, time)
}

// Height returns the image height implied by width and aspect ratio
func (c *Camera) Height() int {
	return max(1, int(float64(c.config.Width)/c.config.AspectRatio))
}

// FrameBox returns a camera configuration looking at the center of box from
// outside it along +Z, keeping the whole box in view.
func FrameBox(box core.AABB, width int, aspectRatio float64) CameraConfig {
	center := core.NewVec3(0, 0, 0)
	radius := 1.0
	if box.IsValid() {
		center = box.Center()
		radius = math.Max(box.Size().Length()/2, 1e-3)
	}

	const vfov = 40.0
	distance := radius / math.Sin(vfov*math.Pi/360.0)

	return CameraConfig{
		Center:      center.Add(core.NewVec3(0, radius*0.3, distance)),
		LookAt:      center,
		Up:          core.NewVec3(0, 1, 0),
		Width:       width,
		AspectRatio: aspectRatio,
		VFov:        vfov,
	}
}
