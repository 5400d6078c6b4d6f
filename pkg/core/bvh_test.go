package core

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func expectInvariantPanic(t *testing.T, op string) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Fatal("Expected construction to panic")
	}
	err, ok := r.(error)
	if !ok {
		t.Fatalf("Expected error panic value, got %T", r)
	}
	var invariant *InvariantError
	if !errors.As(err, &invariant) {
		t.Fatalf("Expected *InvariantError, got %v", err)
	}
	if invariant.Op != op {
		t.Errorf("Expected failing op %q, got %q", op, invariant.Op)
	}
}

func TestBVH_SingleObjectAliasesBothChildren(t *testing.T) {
	shape := &solidBox{box: NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1)), id: 7}
	node := NewBVHNode([]Intersectable{shape}, 0, 0, NewRandomSampler(1, 1))

	if node.Left() != Intersectable(shape) || node.Right() != Intersectable(shape) {
		t.Error("Expected both children to reference the single object")
	}

	stats := node.Stats()
	if stats.TotalNodes != 1 || stats.LeafCount != 1 {
		t.Errorf("Expected 1 node and 1 leaf, got %+v", stats)
	}

	// Scenario: ray down the z axis hits the front face at t=4
	ray := NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1))
	hit, isHit := node.Hit(ray, 0, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit")
	}
	if hit.T != 4 || hit.Point != NewVec3(0, 0, 1) {
		t.Errorf("Expected hit at t=4 point (0,0,1), got t=%f point=%v", hit.T, hit.Point)
	}
}

func TestBVH_TwoObjectsSortedOnAxis(t *testing.T) {
	right := &solidBox{box: NewAABB(NewVec3(1, -1, -1), NewVec3(3, 1, 1)), id: 1}
	left := &solidBox{box: NewAABB(NewVec3(-3, -1, -1), NewVec3(-1, 1, 1)), id: 0}

	// 0.1 selects the x axis
	node := NewBVHNode([]Intersectable{right, left}, 0, 0, &sequenceSampler{values: []float64{0.1}})

	if node.Left() != Intersectable(left) || node.Right() != Intersectable(right) {
		t.Error("Expected children ordered by minimum x coordinate")
	}
	box, _ := node.BoundingBox(0, 0)
	if box != NewAABB(NewVec3(-3, -1, -1), NewVec3(3, 1, 1)) {
		t.Errorf("Unexpected node box %v", box)
	}
}

func TestBVH_NearestHitIndependentOfOrder(t *testing.T) {
	a := &solidBox{box: NewAABB(NewVec3(-3, -1, -1), NewVec3(-1, 1, 1)), id: 0}
	b := &solidBox{box: NewAABB(NewVec3(1, -1, -1), NewVec3(3, 1, 1)), id: 1}

	tests := []struct {
		name      string
		ray       Ray
		expectedT float64
		expectID  int
	}{
		{"from negative x", NewRay(NewVec3(-10, 0, 0), NewVec3(1, 0, 0)), 7, 0},
		{"from positive x", NewRay(NewVec3(10, 0, 0), NewVec3(-1, 0, 0)), 7, 1},
	}

	orders := [][]Intersectable{{a, b}, {b, a}}
	for _, tt := range tests {
		for i, order := range orders {
			for seed := uint64(0); seed < 4; seed++ {
				objects := append([]Intersectable(nil), order...)
				node := NewBVHNode(objects, 0, 0, NewRandomSampler(seed, 0))
				hit, isHit := node.Hit(tt.ray, 0, math.Inf(1))
				if !isHit {
					t.Fatalf("%s order %d: expected hit", tt.name, i)
				}
				if hit.T != tt.expectedT || hit.Material != tt.expectID {
					t.Errorf("%s order %d: got t=%f id=%v", tt.name, i, hit.T, hit.Material)
				}
			}
		}
	}
}

func TestBVH_EmptyInputPanics(t *testing.T) {
	defer expectInvariantPanic(t, "build")
	NewBVHNode(nil, 0, 0, NewRandomSampler(1, 1))
}

func TestBVH_UnboundedObjectPanicsInSort(t *testing.T) {
	defer expectInvariantPanic(t, "sort")
	objects := []Intersectable{
		MockShape{boundingBox: unitBoxAt(0, 0, 0)},
		MockShape{unbounded: true},
		MockShape{boundingBox: unitBoxAt(2, 0, 0)},
	}
	NewBVHNode(objects, 0, 0, NewRandomSampler(1, 1))
}

func TestBVH_UnboundedSingleObjectPanicsInBounds(t *testing.T) {
	// A single element sorts without calling the comparator
	defer expectInvariantPanic(t, "node bounds")
	NewBVHNode([]Intersectable{MockShape{unbounded: true}}, 0, 0, NewRandomSampler(1, 1))
}

func TestBVH_RootMissVisitsNoChildren(t *testing.T) {
	calls := 0
	objects := make([]Intersectable, 16)
	for i := range objects {
		objects[i] = MockShape{
			boundingBox: unitBoxAt(float64(i), 0, 0),
			hitFn:       hitAt(1, nil),
			calls:       &calls,
		}
	}
	node := NewBVHNode(objects, 0, 0, NewRandomSampler(3, 5))

	ray := NewRay(NewVec3(0, 50, 0), NewVec3(1, 0, 0))
	if _, isHit := node.Hit(ray, 0, math.Inf(1)); isHit {
		t.Error("Expected miss")
	}
	if calls != 0 {
		t.Errorf("Expected zero leaf visits when the root box is missed, got %d", calls)
	}
}

func TestBVH_TieFavorsRightChild(t *testing.T) {
	left := MockShape{boundingBox: unitBoxAt(0, 0, 0), hitFn: hitAt(2, Named("left"))}
	right := MockShape{boundingBox: unitBoxAt(1, 0, 0), hitFn: hitAt(2, Named("right"))}

	node := NewBVHNode([]Intersectable{left, right}, 0, 0, &sequenceSampler{values: []float64{0}})
	ray := NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0))

	hit, isHit := node.Hit(ray, 0, 100)
	if !isHit {
		t.Fatal("Expected hit")
	}
	if hit.Material != Named("right") {
		t.Errorf("Expected tie to resolve to right child, got %v", hit.Material)
	}
}

func TestBVH_BothChildrenQueriedWithFullInterval(t *testing.T) {
	var seen []float64
	record := func(tValue float64) func(ray Ray, tMin, tMax float64) (HitRecord, bool) {
		inner := hitAt(tValue, nil)
		return func(ray Ray, tMin, tMax float64) (HitRecord, bool) {
			seen = append(seen, tMax)
			return inner(ray, tMin, tMax)
		}
	}
	objects := []Intersectable{
		MockShape{boundingBox: unitBoxAt(0, 0, 0), hitFn: record(1)},
		MockShape{boundingBox: unitBoxAt(1, 0, 0), hitFn: record(2)},
	}
	node := NewBVHNode(objects, 0, 0, &sequenceSampler{values: []float64{0}})

	hit, _ := node.Hit(NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0)), 0, 50)
	if hit.T != 1 {
		t.Errorf("Expected nearest hit t=1, got %f", hit.T)
	}
	if len(seen) != 2 || seen[0] != 50 || seen[1] != 50 {
		t.Errorf("Expected both children queried with tMax=50, got %v", seen)
	}
}

func TestBVH_ShapeAndDepth(t *testing.T) {
	random := rand.New(rand.NewPCG(11, 13))
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 17, 100, 1000} {
		objects := make([]Intersectable, n)
		for i := range objects {
			objects[i] = &solidBox{box: unitBoxAt(random.Float64()*100, random.Float64()*100, random.Float64()*100), id: i}
		}

		sampler := &sequenceSampler{values: []float64{0.2, 0.5, 0.9, 0.4}}
		node := NewBVHNode(objects, 0, 0, sampler)
		stats := node.Stats()

		if stats.LeafCount != n {
			t.Errorf("n=%d: expected %d leaves, got %d", n, n, stats.LeafCount)
		}
		if sampler.draws != stats.TotalNodes {
			t.Errorf("n=%d: expected one draw per node (%d), got %d", n, stats.TotalNodes, sampler.draws)
		}
		maxDepth := int(math.Ceil(math.Log2(float64(n))))
		if maxDepth < 1 {
			maxDepth = 1
		}
		if stats.MaxDepth > maxDepth {
			t.Errorf("n=%d: depth %d exceeds balanced bound %d", n, stats.MaxDepth, maxDepth)
		}

		root, _ := node.BoundingBox(0, 0)
		for _, object := range objects {
			box, _ := object.BoundingBox(0, 0)
			if !root.ContainsBox(box) {
				t.Errorf("n=%d: root box %v does not contain %v", n, root, box)
			}
		}
	}
}

func TestBVH_SortTerminatesOnEqualCoordinates(t *testing.T) {
	objects := make([]Intersectable, 64)
	for i := range objects {
		objects[i] = &solidBox{box: NewAABB(NewVec3(1, 1, 1), NewVec3(2, 2, 2)), id: i}
	}

	for axis := 0; axis < 3; axis++ {
		SortByAxis(objects, axis, 0, 0)
		for i, object := range objects {
			if object.(*solidBox).id != i {
				t.Fatalf("axis %d: equal elements reordered at %d", axis, i)
			}
		}
	}

	node := NewBVHNode(objects, 0, 0, NewRandomSampler(1, 2))
	if stats := node.Stats(); stats.LeafCount != len(objects) {
		t.Errorf("Expected %d leaves, got %d", len(objects), stats.LeafCount)
	}
}

func TestBVH_SameSeedSameTree(t *testing.T) {
	build := func() []int {
		random := rand.New(rand.NewPCG(5, 5))
		objects := make([]Intersectable, 50)
		for i := range objects {
			objects[i] = &solidBox{box: unitBoxAt(random.Float64()*10, random.Float64()*10, random.Float64()*10), id: i}
		}
		NewBVHNode(objects, 0, 0, NewRandomSampler(42, 54))
		order := make([]int, len(objects))
		for i, object := range objects {
			order[i] = object.(*solidBox).id
		}
		return order
	}

	first, second := build(), build()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Leaf order differs at %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestBVH_MatchesObjectList(t *testing.T) {
	random := rand.New(rand.NewPCG(2024, 1))

	for trial := 0; trial < 50; trial++ {
		n := 1 + random.IntN(60)
		objects := make([]Intersectable, n)
		for i := range objects {
			min := NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
			size := NewVec3(random.Float64()*2+0.01, random.Float64()*2+0.01, random.Float64()*2+0.01)
			objects[i] = &solidBox{box: NewAABB(min, min.Add(size)), id: i}
		}

		listObjects := append([]Intersectable(nil), objects...)
		list := NewObjectList(listObjects, 0, 0)
		bvh := NewBVHNode(objects, 0, 0, NewRandomSampler(uint64(trial), 7))

		for r := 0; r < 200; r++ {
			origin := NewVec3(random.Float64()*40-20, random.Float64()*40-20, random.Float64()*40-20)
			direction := NewVec3(random.Float64()*2-1, random.Float64()*2-1, random.Float64()*2-1)
			ray := NewRay(origin, direction)
			tMin := 0.001
			tMax := math.Inf(1)
			if r%3 == 0 {
				tMax = random.Float64() * 30
			}

			listHit, listOK := list.Hit(ray, tMin, tMax)
			bvhHit, bvhOK := bvh.Hit(ray, tMin, tMax)
			if listOK != bvhOK {
				t.Fatalf("trial %d ray %d: list hit=%t bvh hit=%t", trial, r, listOK, bvhOK)
			}
			if listOK && listHit.T != bvhHit.T {
				t.Fatalf("trial %d ray %d: list t=%f bvh t=%f", trial, r, listHit.T, bvhHit.T)
			}
		}
	}
}

func TestBVH_NestedAggregates(t *testing.T) {
	inner := NewObjectList([]Intersectable{
		&solidBox{box: unitBoxAt(0, 0, 0), id: 1},
		&solidBox{box: unitBoxAt(0, 0, 3), id: 2},
	}, 0, 0)
	subtree := NewBVHNode([]Intersectable{
		&solidBox{box: unitBoxAt(0, 0, 6), id: 3},
		&solidBox{box: unitBoxAt(0, 0, 9), id: 4},
	}, 0, 0, NewRandomSampler(9, 9))

	root := NewBVHNode([]Intersectable{subtree, inner}, 0, 0, NewRandomSampler(1, 1))

	ray := NewRay(NewVec3(0.5, 0.5, 20), NewVec3(0, 0, -1))
	hit, isHit := root.Hit(ray, 0, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit")
	}
	if hit.Material != 4 || hit.T != 10 {
		t.Errorf("Expected box 4 at t=10, got id=%v t=%f", hit.Material, hit.T)
	}
}

func BenchmarkBVH_Hit(b *testing.B) {
	benchmarkWorld(b, func(objects []Intersectable) Intersectable {
		return NewBVHNode(objects, 0, 0, NewRandomSampler(1, 1))
	})
}

func BenchmarkObjectList_Hit(b *testing.B) {
	benchmarkWorld(b, func(objects []Intersectable) Intersectable {
		return NewObjectList(objects, 0, 0)
	})
}

func benchmarkWorld(b *testing.B, build func([]Intersectable) Intersectable) {
	random := rand.New(rand.NewPCG(1, 2))
	objects := make([]Intersectable, 2000)
	for i := range objects {
		objects[i] = &solidBox{box: unitBoxAt(random.Float64()*100, random.Float64()*100, random.Float64()*100), id: i}
	}
	world := build(objects)
	ray := NewRay(NewVec3(-10, 50, 50), NewVec3(1, 0.01, -0.02))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Hit(ray, 0.001, math.Inf(1))
	}
}
