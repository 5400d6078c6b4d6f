package geometry

import (
	"math"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Sphere represents a sphere shape, optionally moving linearly between two
// centers over a shutter interval. A negative radius makes a hollow sphere
// whose normals point inward.
type Sphere struct {
	Center0  core.Vec3 // Center at Time0
	Center1  core.Vec3 // Center at Time1
	Time0    float64
	Time1    float64
	Radius   float64
	Material core.Material
	moving   bool
}

// NewSphere creates a new static sphere
func NewSphere(center core.Vec3, radius float64, material core.Material) *Sphere {
	return &Sphere{
		Center0:  center,
		Center1:  center,
		Radius:   radius,
		Material: material,
	}
}

// NewMovingSphere creates a sphere moving from center0 at time0 to center1 at time1
func NewMovingSphere(center0, center1 core.Vec3, time0, time1, radius float64, material core.Material) *Sphere {
	return &Sphere{
		Center0:  center0,
		Center1:  center1,
		Time0:    time0,
		Time1:    time1,
		Radius:   radius,
		Material: material,
		moving:   time1-time0 > 1e-7,
	}
}

// CenterAt returns the sphere center at the given time
func (s *Sphere) CenterAt(time float64) core.Vec3 {
	if !s.moving {
		return s.Center0
	}
	f := (time - s.Time0) / (s.Time1 - s.Time0)
	return s.Center0.Add(s.Center1.Subtract(s.Center0).Multiply(f))
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	center := s.CenterAt(ray.Time)
	oc := ray.Origin.Subtract(center)

	// Quadratic equation coefficients: at² + 2bt + c = 0
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return core.HitRecord{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return core.HitRecord{}, false
		}
	}

	hit := core.HitRecord{
		T:        root,
		Point:    ray.At(root),
		Material: s.Material,
	}
	outwardNormal := hit.Point.Subtract(center).Multiply(1.0 / s.Radius)
	hit.U, hit.V = sphereUV(outwardNormal)
	hit.SetFaceNormal(ray, outwardNormal)

	return hit, true
}

// BoundingBox returns the box swept by the sphere over [t0, t1]
func (s *Sphere) BoundingBox(t0, t1 float64) (core.AABB, bool) {
	// A hollow sphere still needs a non-inverted box
	r := math.Abs(s.Radius)
	radius := core.NewVec3(r, r, r)

	c0 := s.CenterAt(t0)
	c1 := s.CenterAt(t1)
	box0 := core.NewAABB(c0.Subtract(radius), c0.Add(radius))
	box1 := core.NewAABB(c1.Subtract(radius), c1.Add(radius))

	return core.SurroundingBox(box0, box1), true
}

// sphereUV maps a point on the unit sphere to texture coordinates
func sphereUV(p core.Vec3) (u, v float64) {
	phi := math.Atan2(p.Z, p.X)
	theta := math.Asin(math.Max(-1, math.Min(1, p.Y)))
	u = 1 - (phi+math.Pi)/(2*math.Pi)
	v = (theta + math.Pi/2) / math.Pi
	return u, v
}
