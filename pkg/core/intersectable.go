package core

// Material is an opaque handle to the surface description of a hit entity.
// The acceleration layer only carries it from the leaf to the caller.
type Material interface{}

// Named is a minimal Material that only carries a label
type Named string

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	T         float64  // Parameter t along the ray
	Point     Vec3     // Point of intersection
	Normal    Vec3     // Surface normal at intersection, facing the ray
	U, V      float64  // Surface coordinates
	FrontFace bool     // Whether ray hit the front face
	Material  Material // Material of the hit object (not owned)
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Intersectable is anything a ray can be tested against
type Intersectable interface {
	// Hit returns the closest intersection with t in [tMin, tMax]
	Hit(ray Ray, tMin, tMax float64) (HitRecord, bool)

	// BoundingBox returns a box enclosing the object over the time interval
	// [t0, t1]. It returns false for unbounded objects, which can never be
	// pruned and must always be tested directly.
	BoundingBox(t0, t1 float64) (AABB, bool)
}
