package geometry

import (
	"math"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Plane represents an infinite plane defined by a point and normal.
// It has no finite bounding box, so it can live in an ObjectList but never
// inside a BVH.
type Plane struct {
	Point    core.Vec3 // A point on the plane
	Normal   core.Vec3 // Unit normal
	Material core.Material
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3, material core.Material) *Plane {
	return &Plane{
		Point:    point,
		Normal:   normal.Normalize(),
		Material: material,
	}
}

// Hit tests if a ray intersects with the plane
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Parallel rays never hit
	if math.Abs(denominator) < 1e-8 {
		return core.HitRecord{}, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t < tMin || t > tMax {
		return core.HitRecord{}, false
	}

	hit := core.HitRecord{
		T:        t,
		Point:    ray.At(t),
		Material: p.Material,
	}
	hit.SetFaceNormal(ray, p.Normal)

	return hit, true
}

// BoundingBox always fails: a plane is unbounded
func (p *Plane) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	return core.AABB{}, false
}
