package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Instance places an object in the world through an affine transform.
// Rays are moved into object space, so the wrapped object is shared and
// never copied.
type Instance struct {
	Object        core.Intersectable
	toWorld       mgl64.Mat4
	toObject      mgl64.Mat4
	normalToWorld mgl64.Mat4
}

// NewInstance wraps object with an object-to-world transform
func NewInstance(object core.Intersectable, transform mgl64.Mat4) *Instance {
	inverse := transform.Inv()
	return &Instance{
		Object:        object,
		toWorld:       transform,
		toObject:      inverse,
		normalToWorld: inverse.Transpose(),
	}
}

// NewTranslate moves object by offset
func NewTranslate(object core.Intersectable, offset core.Vec3) *Instance {
	return NewInstance(object, mgl64.Translate3D(offset.X, offset.Y, offset.Z))
}

// NewRotateY rotates object around the Y axis by the given angle in degrees
func NewRotateY(object core.Intersectable, degrees float64) *Instance {
	return NewInstance(object, mgl64.HomogRotate3DY(mgl64.DegToRad(degrees)))
}

// NewScale scales object by factors along each axis
func NewScale(object core.Intersectable, factors core.Vec3) *Instance {
	return NewInstance(object, mgl64.Scale3D(factors.X, factors.Y, factors.Z))
}

// Transform returns the object-to-world matrix
func (in *Instance) Transform() mgl64.Mat4 {
	return in.toWorld
}

// Hit transforms the ray into object space and the hit back into world space.
// The direction is not renormalized, so t is the same in both spaces.
func (in *Instance) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	local := core.NewRayAtTime(
		fromMgl(mgl64.TransformCoordinate(toMgl(ray.Origin), in.toObject)),
		fromMgl(mgl64.TransformNormal(toMgl(ray.Direction), in.toObject)),
		ray.Time,
	)

	hit, ok := in.Object.Hit(local, tMin, tMax)
	if !ok {
		return core.HitRecord{}, false
	}

	// The inverse transpose keeps the sign of dot(normal, direction),
	// so the face orientation found in object space still holds.
	hit.Point = fromMgl(mgl64.TransformCoordinate(toMgl(hit.Point), in.toWorld))
	hit.Normal = fromMgl(mgl64.TransformNormal(toMgl(hit.Normal), in.normalToWorld)).Normalize()

	return hit, true
}

// BoundingBox bounds the eight transformed corners of the object's box
func (in *Instance) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	box, ok := in.Object.BoundingBox(t0, t1)
	if !ok {
		return core.AABB{}, false
	}

	corners := box.Corners()
	points := make([]core.Vec3, 0, len(corners))
	for _, corner := range corners {
		points = append(points, fromMgl(mgl64.TransformCoordinate(toMgl(corner), in.toWorld)))
	}
	return core.NewAABBFromPoints(points...), true
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v.X(), v.Y(), v.Z())
}
