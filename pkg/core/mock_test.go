package core

import "math"

// MockShape for testing
type MockShape struct {
	boundingBox AABB
	unbounded   bool
	hitFn       func(ray Ray, tMin, tMax float64) (HitRecord, bool)
	calls       *int
}

func (m MockShape) Hit(ray Ray, tMin, tMax float64) (HitRecord, bool) {
	if m.calls != nil {
		*m.calls++
	}
	if m.hitFn == nil {
		return HitRecord{}, false
	}
	return m.hitFn(ray, tMin, tMax)
}

func (m MockShape) BoundingBox(t0, t1 float64) (AABB, bool) {
	if m.unbounded {
		return AABB{}, false
	}
	return m.boundingBox, true
}

// hitAt returns a hit function reporting a hit at tValue when it is in range
func hitAt(tValue float64, material Material) func(ray Ray, tMin, tMax float64) (HitRecord, bool) {
	return func(ray Ray, tMin, tMax float64) (HitRecord, bool) {
		if tValue >= tMin && tValue <= tMax {
			return HitRecord{T: tValue, Point: ray.At(tValue), Material: material}, true
		}
		return HitRecord{}, false
	}
}

// solidBox is a box-shaped primitive whose surface is its own bounding box
type solidBox struct {
	box AABB
	id  int
}

func (b *solidBox) Hit(ray Ray, tMin, tMax float64) (HitRecord, bool) {
	enter, exit := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)
		lo, hi := b.box.Min.Axis(axis), b.box.Max.Axis(axis)

		if math.Abs(direction) < parallelEpsilon {
			if origin < lo || origin > hi {
				return HitRecord{}, false
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (lo - origin) * invDirection
		t2 := (hi - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		enter = math.Max(enter, t1)
		exit = math.Min(exit, t2)
	}
	if enter > exit {
		return HitRecord{}, false
	}

	t := enter
	if t < tMin {
		t = exit
	}
	if t < tMin || t > tMax {
		return HitRecord{}, false
	}
	return HitRecord{T: t, Point: ray.At(t), Material: b.id}, true
}

func (b *solidBox) BoundingBox(t0, t1 float64) (AABB, bool) {
	return b.box, true
}

// sequenceSampler replays fixed values and counts draws
type sequenceSampler struct {
	values []float64
	draws  int
}

func (s *sequenceSampler) Get1D() float64 {
	v := s.values[s.draws%len(s.values)]
	s.draws++
	return v
}

func unitBoxAt(x, y, z float64) AABB {
	return NewAABB(NewVec3(x, y, z), NewVec3(x+1, y+1, z+1))
}
