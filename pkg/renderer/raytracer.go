package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Config contains configuration for a render
type Config struct {
	Mode        string  // "normal" shades by surface normal, "depth" by hit distance
	NumWorkers  int     // Number of parallel workers (0 = use CPU count)
	Seed        uint64  // Seed for per-row shutter time sampling
	TMin        float64 // Minimum accepted hit distance
	MaxDistance float64 // Distance mapped to black in depth mode
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Mode:        "normal",
		NumWorkers:  0,
		Seed:        1,
		TMin:        0.001,
		MaxDistance: 100,
	}
}

// Raytracer casts one camera ray per pixel into a world and shades the
// nearest hit. The world is only read, so all workers share it.
type Raytracer struct {
	world  core.Intersectable
	camera *Camera
	config Config
	logger core.Logger
}

// NewRaytracer creates a raytracer for the given world and camera
func NewRaytracer(world core.Intersectable, camera *Camera, config Config, logger core.Logger) (*Raytracer, error) {
	if config.Mode != "normal" && config.Mode != "depth" {
		return nil, fmt.Errorf("unknown shading mode %q", config.Mode)
	}
	if config.MaxDistance <= 0 {
		config.MaxDistance = DefaultConfig().MaxDistance
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Raytracer{world: world, camera: camera, config: config, logger: logger}, nil
}

// Render renders the full image. Rows are spread over a worker pool; each row
// draws shutter times from its own seeded sampler so the output does not
// depend on the number of workers.
func (r *Raytracer) Render(ctx context.Context) (*image.RGBA, RenderStats, error) {
	width := r.camera.config.Width
	height := r.camera.Height()
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	start := time.Now()
	pool := NewWorkerPool(r.config.NumWorkers, height, func(task RowTask) RowResult {
		if ctx.Err() != nil {
			return RowResult{Y: task.Y}
		}
		return r.renderRow(img, task.Y, width, height)
	})
	pool.Start()
	for y := 0; y < height; y++ {
		pool.SubmitTask(RowTask{Y: y})
	}
	pool.Stop()

	var stats RenderStats
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		stats.add(result)
	}
	stats.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, stats, fmt.Errorf("render cancelled: %w", err)
	}

	r.logger.Printf("Rendered %dx%d with %d workers in %v (%.0f rays/s, %.1f%% hit)\n",
		width, height, pool.GetNumWorkers(), stats.Elapsed, stats.RaysPerSecond(), 100*stats.HitRatio())
	return img, stats, nil
}

func (r *Raytracer) renderRow(img *image.RGBA, y, width, height int) RowResult {
	sampler := core.NewRandomSampler(r.config.Seed, uint64(y))
	result := RowResult{Y: y}

	for x := 0; x < width; x++ {
		s := (float64(x) + 0.5) / float64(width)
		t := 1 - (float64(y)+0.5)/float64(height)
		ray := r.camera.GetRay(s, t, sampler)

		hit, isHit := r.world.Hit(ray, r.config.TMin, math.Inf(1))
		result.Rays++
		var c core.Vec3
		if isHit {
			result.Hits++
			c = r.shade(ray, hit)
		} else {
			c = background(ray)
		}
		img.SetRGBA(x, y, toRGBA(c))
		result.Pixels++
	}

	return result
}

// CastPixel replays the ray that Render casts through pixel (x, y) and
// returns it with the nearest hit.
func (r *Raytracer) CastPixel(x, y int) (core.Ray, core.HitRecord, bool, error) {
	width := r.camera.config.Width
	height := r.camera.Height()
	if x < 0 || x >= width || y < 0 || y >= height {
		return core.Ray{}, core.HitRecord{}, false, fmt.Errorf("pixel (%d, %d) outside %dx%d image", x, y, width, height)
	}

	// Rows share one sampler, so earlier pixels consume their draws first
	sampler := core.NewRandomSampler(r.config.Seed, uint64(y))
	t := 1 - (float64(y)+0.5)/float64(height)
	var ray core.Ray
	for i := 0; i <= x; i++ {
		ray = r.camera.GetRay((float64(i)+0.5)/float64(width), t, sampler)
	}

	hit, isHit := r.world.Hit(ray, r.config.TMin, math.Inf(1))
	return ray, hit, isHit, nil
}

func (r *Raytracer) shade(ray core.Ray, hit core.HitRecord) core.Vec3 {
	if r.config.Mode == "depth" {
		distance := hit.T * ray.Direction.Length()
		g := 1 - math.Min(distance/r.config.MaxDistance, 1)
		return core.NewVec3(g, g, g)
	}
	return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
}

// background returns the sky gradient seen by rays that hit nothing
func background(ray core.Ray) core.Vec3 {
	a := 0.5 * (ray.Direction.Normalize().Y + 1.0)
	white := core.NewVec3(1, 1, 1)
	blue := core.NewVec3(0.5, 0.7, 1.0)
	return white.Multiply(1 - a).Add(blue.Multiply(a))
}

func toRGBA(c core.Vec3) color.RGBA {
	clamp := func(v float64) uint8 {
		return uint8(255.999 * math.Max(0, math.Min(0.999999, v)))
	}
	return color.RGBA{R: clamp(c.X), G: clamp(c.Y), B: clamp(c.Z), A: 255}
}
