package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/geometry"
)

// NewRandomSpheres scatters count spheres through a cube whose size grows
// with count, so density stays roughly constant. When motion is set some
// spheres move upward over [time0, time1].
func NewRandomSpheres(count int, sampler *core.RandomSampler, motion bool, time0, time1 float64) []core.Intersectable {
	extent := 2 * math.Cbrt(float64(max(count, 1)))
	objects := make([]core.Intersectable, 0, count)

	for i := 0; i < count; i++ {
		center := core.NewVec3(
			sampler.Range(-extent, extent),
			sampler.Range(-extent, extent),
			sampler.Range(-extent, extent),
		)
		radius := sampler.Range(0.2, 0.6)
		material := core.Named(fmt.Sprintf("sphere-%d", i))

		if motion && sampler.Get1D() < 0.3 {
			center1 := center.Add(core.NewVec3(0, sampler.Range(0, radius), 0))
			objects = append(objects, geometry.NewMovingSphere(center, center1, time0, time1, radius, material))
			continue
		}
		objects = append(objects, geometry.NewSphere(center, radius, material))
	}

	return objects
}

// NewSphereGrid lays out an n x n grid of equal spheres on the XZ plane.
// Every sphere shares the same minimum Y, which exercises sorting on ties.
func NewSphereGrid(n int) []core.Intersectable {
	objects := make([]core.Intersectable, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			center := core.NewVec3(float64(i), 0.4, float64(j))
			objects = append(objects, geometry.NewSphere(center, 0.4, core.Named(fmt.Sprintf("grid-%d-%d", i, j))))
		}
	}
	return objects
}

// NewTriangleSoup scatters count small random triangles through a cube
func NewTriangleSoup(count int, sampler *core.RandomSampler) []core.Intersectable {
	extent := 2 * math.Cbrt(float64(max(count, 1)))
	objects := make([]core.Intersectable, 0, count)

	for i := 0; i < count; i++ {
		anchor := core.NewVec3(
			sampler.Range(-extent, extent),
			sampler.Range(-extent, extent),
			sampler.Range(-extent, extent),
		)
		v1 := anchor.Add(sampler.Get3D().Multiply(1.5).Subtract(core.NewVec3(0.75, 0.75, 0.75)))
		v2 := anchor.Add(sampler.Get3D().Multiply(1.5).Subtract(core.NewVec3(0.75, 0.75, 0.75)))
		objects = append(objects, geometry.NewTriangle(anchor, v1, v2, core.Named(fmt.Sprintf("triangle-%d", i))))
	}

	return objects
}

// NewInstancedRow places count transformed copies of one shared unit sphere
// along the X axis, alternating between stretched and rotated variants.
func NewInstancedRow(count int) []core.Intersectable {
	shared := geometry.NewSphere(core.NewVec3(0, 0, 0), 0.5, core.Named("instanced"))
	objects := make([]core.Intersectable, 0, count)

	for i := 0; i < count; i++ {
		var shape core.Intersectable
		if i%2 == 0 {
			shape = geometry.NewScale(shared, core.NewVec3(1, 1.5, 1))
		} else {
			shape = geometry.NewRotateY(geometry.NewScale(shared, core.NewVec3(1.5, 1, 0.75)), float64(i)*15)
		}
		objects = append(objects, geometry.NewTranslate(shape, core.NewVec3(float64(i)*1.5, 0, 0)))
	}

	return objects
}
