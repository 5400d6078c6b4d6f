package core

import (
	"cmp"
	"fmt"
	"slices"
)

// InvariantError is the panic value raised when an object without a finite
// bounding box reaches BVH construction. The tree cannot be built around such
// an object, so construction stops instead of leaving a partial hierarchy.
type InvariantError struct {
	Op     string        // Operation that found the problem
	Object Intersectable // Offending object, nil for an empty input
}

func (e *InvariantError) Error() string {
	if e.Object == nil {
		return fmt.Sprintf("bvh: %s: no objects to build from", e.Op)
	}
	return fmt.Sprintf("bvh: %s: no bounding box for %T", e.Op, e.Object)
}

// BVHNode is a node of a bounding volume hierarchy. Every node has exactly
// two children, which are either further nodes or the input objects
// themselves. A node built from a single object points both children at it.
type BVHNode struct {
	left, right Intersectable
	box         AABB
	leaf        bool // children are input objects rather than nodes built here
	aliased     bool // left and right are the same object
}

// NewBVHNode builds a hierarchy over objects using randomized median splits.
//
// objects is reordered in place. sampler picks the split axis at every node;
// it is shared by both subtrees, left first, so a seeded sampler always
// produces the same tree. Every object must have a bounding box over
// [t0, t1], otherwise construction panics with an *InvariantError.
func NewBVHNode(objects []Intersectable, t0, t1 float64, sampler Sampler) *BVHNode {
	n := len(objects)
	if n == 0 {
		panic(&InvariantError{Op: "build"})
	}

	axis := int(3 * sampler.Get1D())
	if axis > 2 {
		axis = 2
	}
	SortByAxis(objects, axis, t0, t1)

	node := &BVHNode{}
	switch n {
	case 1:
		node.left, node.right = objects[0], objects[0]
		node.leaf, node.aliased = true, true
	case 2:
		node.left, node.right = objects[0], objects[1]
		node.leaf = true
	default:
		mid := n / 2
		node.left = NewBVHNode(objects[:mid], t0, t1, sampler)
		node.right = NewBVHNode(objects[mid:], t0, t1, sampler)
	}

	leftBox, ok := node.left.BoundingBox(t0, t1)
	if !ok {
		panic(&InvariantError{Op: "node bounds", Object: node.left})
	}
	rightBox, ok := node.right.BoundingBox(t0, t1)
	if !ok {
		panic(&InvariantError{Op: "node bounds", Object: node.right})
	}
	node.box = SurroundingBox(leftBox, rightBox)

	return node
}

// SortByAxis sorts objects in place by the minimum corner of their bounding
// boxes along axis. Equal coordinates keep their relative order.
func SortByAxis(objects []Intersectable, axis int, t0, t1 float64) {
	slices.SortStableFunc(objects, func(a, b Intersectable) int {
		return compareBoxMin(a, b, axis, t0, t1)
	})
}

func compareBoxMin(a, b Intersectable, axis int, t0, t1 float64) int {
	boxA, ok := a.BoundingBox(t0, t1)
	if !ok {
		panic(&InvariantError{Op: "sort", Object: a})
	}
	boxB, ok := b.BoundingBox(t0, t1)
	if !ok {
		panic(&InvariantError{Op: "sort", Object: b})
	}
	return cmp.Compare(boxA.Min.Axis(axis), boxB.Min.Axis(axis))
}

// Hit tests the node box, then both children over the full interval, and
// keeps the nearer hit. An exact tie goes to the right child.
func (n *BVHNode) Hit(ray Ray, tMin, tMax float64) (HitRecord, bool) {
	if !n.box.Hit(ray, tMin, tMax) {
		return HitRecord{}, false
	}

	leftHit, hitLeft := n.left.Hit(ray, tMin, tMax)
	rightHit, hitRight := n.right.Hit(ray, tMin, tMax)

	switch {
	case hitLeft && hitRight:
		if leftHit.T < rightHit.T {
			return leftHit, true
		}
		return rightHit, true
	case hitLeft:
		return leftHit, true
	case hitRight:
		return rightHit, true
	}
	return HitRecord{}, false
}

// BoundingBox returns the box computed at construction; it always succeeds
func (n *BVHNode) BoundingBox(t0, t1 float64) (AABB, bool) {
	return n.box, true
}

// Left returns the left child
func (n *BVHNode) Left() Intersectable {
	return n.left
}

// Right returns the right child
func (n *BVHNode) Right() Intersectable {
	return n.right
}

// BVHStats describes the shape of a hierarchy
type BVHStats struct {
	TotalNodes int     // Nodes built by this hierarchy
	LeafCount  int     // Input objects reachable as leaves, aliases counted once
	MaxDepth   int     // Depth of the deepest leaf, root children are at depth 1
	AvgDepth   float64 // Mean leaf depth
}

// Stats walks the hierarchy and collects shape statistics
func (n *BVHNode) Stats() BVHStats {
	stats := BVHStats{}
	depthSum := 0
	n.collectStats(1, &stats, &depthSum)
	if stats.LeafCount > 0 {
		stats.AvgDepth = float64(depthSum) / float64(stats.LeafCount)
	}
	return stats
}

func (n *BVHNode) collectStats(depth int, stats *BVHStats, depthSum *int) {
	stats.TotalNodes++

	if n.leaf {
		leaves := 2
		if n.aliased {
			leaves = 1
		}
		stats.LeafCount += leaves
		*depthSum += leaves * depth
		stats.MaxDepth = max(stats.MaxDepth, depth)
		return
	}

	n.left.(*BVHNode).collectStats(depth+1, stats, depthSum)
	n.right.(*BVHNode).collectStats(depth+1, stats, depthSum)
}
