package loaders

import (
	"github.com/fogleman/simplify"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Simplify returns a decimated copy of the mesh keeping roughly factor of
// its faces. Vertices shared by faces are merged by position.
func (m *Mesh) Simplify(factor float64) *Mesh {
	if factor <= 0 || factor >= 1 || len(m.Faces) == 0 {
		return m
	}

	triangles := make([]*simplify.Triangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		triangles = append(triangles, simplify.NewTriangle(
			toSimplify(m.Vertices[f[0]]), toSimplify(m.Vertices[f[1]]), toSimplify(m.Vertices[f[2]])))
	}
	reduced := simplify.NewMesh(triangles).Simplify(factor)

	out := &Mesh{Faces: make([][3]int, 0, len(reduced.Triangles))}
	index := make(map[simplify.Vector]int)
	vertex := func(v simplify.Vector) int {
		if i, ok := index[v]; ok {
			return i
		}
		index[v] = len(out.Vertices)
		out.Vertices = append(out.Vertices, core.NewVec3(v.X, v.Y, v.Z))
		return index[v]
	}
	for _, t := range reduced.Triangles {
		out.Faces = append(out.Faces, [3]int{vertex(t.V1), vertex(t.V2), vertex(t.V3)})
	}
	return out
}

func toSimplify(v core.Vec3) simplify.Vector {
	return simplify.Vector{X: v.X, Y: v.Y, Z: v.Z}
}
