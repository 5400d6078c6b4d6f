package scene

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/geometry"
	"github.com/df07/go-raytracer-accel/pkg/loaders"
)

// Config selects and sizes a generated scene
type Config struct {
	Kind     string  // "spheres", "grid", "triangles", "instances" or "mesh"
	Count    int     // Number of objects (grid side length for "grid")
	File     string  // PLY file for "mesh"
	Simplify float64 // Fraction of mesh faces to keep (0 keeps all)
	Seed     uint64  // Seed for placement and for BVH split axes
	Accel    string  // "bvh" or "list"
	Motion   bool    // Let some spheres move over the shutter interval
	Ground   bool    // Add an infinite ground plane beside the hierarchy
	Time0    float64 // Shutter open
	Time1    float64 // Shutter close
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Kind:  "spheres",
		Count: 500,
		Seed:  1,
		Accel: "bvh",
		Time0: 0,
		Time1: 1,
	}
}

// Scene holds the generated objects and the structure built over them
type Scene struct {
	Config  Config
	Objects []core.Intersectable // Leaf objects, in the order the world holds them
	World   core.Intersectable   // Root queried by the renderer
	BVH     *core.BVHNode        // Hierarchy, nil when Accel is "list" or there are no objects
	Bounds  core.AABB            // Bounds of Objects over the shutter interval
}

// Build generates the objects described by cfg and builds the world over them
func Build(cfg Config, logger core.Logger) (*Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if cfg.Count < 0 {
		return nil, fmt.Errorf("invalid object count %d", cfg.Count)
	}
	if cfg.Time1 < cfg.Time0 {
		return nil, fmt.Errorf("shutter closes before it opens: [%g, %g]", cfg.Time0, cfg.Time1)
	}

	objects, err := generate(cfg)
	if err != nil {
		return nil, err
	}

	s := &Scene{Config: cfg, Objects: objects}
	s.Bounds = core.NewAABBFromPoints()
	for _, object := range objects {
		if box, ok := object.BoundingBox(cfg.Time0, cfg.Time1); ok {
			s.Bounds = s.Bounds.Union(box)
		}
	}

	start := time.Now()
	switch cfg.Accel {
	case "bvh":
		if len(objects) == 0 {
			s.World = core.NewObjectList(objects, cfg.Time0, cfg.Time1)
			break
		}
		s.BVH = core.NewBVHNode(objects, cfg.Time0, cfg.Time1, core.NewRandomSampler(cfg.Seed, 2))
		s.World = s.BVH
		stats := s.BVH.Stats()
		logger.Printf("Built BVH over %d objects in %v: %d nodes, max depth %d, avg leaf depth %.2f\n",
			len(objects), time.Since(start), stats.TotalNodes, stats.MaxDepth, stats.AvgDepth)
	case "list":
		s.World = core.NewObjectList(objects, cfg.Time0, cfg.Time1)
		logger.Printf("Built object list over %d objects\n", len(objects))
	default:
		return nil, fmt.Errorf("unknown acceleration structure %q", cfg.Accel)
	}

	if cfg.Ground {
		ground := geometry.NewPlane(core.NewVec3(0, s.groundHeight(), 0), core.NewVec3(0, 1, 0), core.Named("ground"))
		s.World = core.NewObjectList([]core.Intersectable{s.World, ground}, cfg.Time0, cfg.Time1)
	}

	return s, nil
}

func generate(cfg Config) ([]core.Intersectable, error) {
	sampler := core.NewRandomSampler(cfg.Seed, 1)

	switch cfg.Kind {
	case "spheres":
		return NewRandomSpheres(cfg.Count, sampler, cfg.Motion, cfg.Time0, cfg.Time1), nil
	case "grid":
		return NewSphereGrid(cfg.Count), nil
	case "triangles":
		return NewTriangleSoup(cfg.Count, sampler), nil
	case "instances":
		return NewInstancedRow(cfg.Count), nil
	case "mesh":
		if cfg.File == "" {
			return nil, fmt.Errorf("mesh scene needs a PLY file")
		}
		mesh, err := loaders.LoadPLY(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("loading mesh: %w", err)
		}
		return mesh.Simplify(cfg.Simplify).Triangles(core.Named(filepath.Base(cfg.File))), nil
	}
	return nil, fmt.Errorf("unknown scene kind %q", cfg.Kind)
}

func (s *Scene) groundHeight() float64 {
	if !s.Bounds.IsValid() {
		return 0
	}
	return s.Bounds.Min.Y
}

// Kinds lists the scene kinds Build understands
func Kinds() []string {
	return []string{"spheres", "grid", "triangles", "instances", "mesh"}
}
