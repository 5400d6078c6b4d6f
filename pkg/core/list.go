package core

// ObjectList is a flat aggregate of objects tested one after another.
// It is immutable once built and safe for concurrent Hit calls.
type ObjectList struct {
	objects []Intersectable
	box     AABB
	hasBox  bool
}

// NewObjectList creates an aggregate over objects. The slice is kept, not
// copied, and must not be modified afterwards. The enclosing box is computed
// once over [t0, t1]; accumulation stops at the first object without a box.
func NewObjectList(objects []Intersectable, t0, t1 float64) *ObjectList {
	list := &ObjectList{
		objects: objects,
		box:     EmptyAABB(),
		hasBox:  len(objects) > 0,
	}

	for _, object := range objects {
		box, ok := object.BoundingBox(t0, t1)
		if !ok {
			list.hasBox = false
			break
		}
		list.box = list.box.Union(box)
	}

	return list
}

// Hit finds the closest hit among all objects.
// The search interval shrinks every time a closer hit is found.
func (l *ObjectList) Hit(ray Ray, tMin, tMax float64) (HitRecord, bool) {
	if l.hasBox && !l.box.Hit(ray, tMin, tMax) {
		return HitRecord{}, false
	}

	var closestHit HitRecord
	hitAnything := false
	closestSoFar := tMax

	for _, object := range l.objects {
		if hit, isHit := object.Hit(ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}

// BoundingBox returns the box computed at construction. It fails for an
// empty list and for lists holding an unbounded object.
func (l *ObjectList) BoundingBox(t0, t1 float64) (AABB, bool) {
	if !l.hasBox {
		return l.box, false
	}
	return l.box, true
}

// Len returns the number of objects
func (l *ObjectList) Len() int {
	return len(l.objects)
}

// Objects returns the underlying objects in test order
func (l *ObjectList) Objects() []Intersectable {
	return l.objects
}
