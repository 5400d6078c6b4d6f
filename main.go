package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfnt/resize"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/renderer"
	"github.com/df07/go-raytracer-accel/pkg/scene"
)

// options holds everything parsed from the command line
type options struct {
	Scene   scene.Config
	Render  renderer.Config
	Width   int
	Aspect  float64
	Output  string
	Preview uint
}

func main() {
	defaults := scene.DefaultConfig()
	renderDefaults := renderer.DefaultConfig()

	sceneKind := flag.String("scene", defaults.Kind, "Scene type: "+strings.Join(scene.Kinds(), ", "))
	count := flag.Int("count", defaults.Count, "Number of objects (grid side length for 'grid')")
	seed := flag.Uint64("seed", defaults.Seed, "Seed for object placement and BVH split axes")
	accel := flag.String("accel", defaults.Accel, "Acceleration structure: 'bvh' or 'list'")
	meshFile := flag.String("mesh", "", "PLY file to load for the 'mesh' scene")
	simplifyMesh := flag.Float64("simplify", 0, "Fraction of mesh faces to keep (0 = keep all)")
	motion := flag.Bool("motion", false, "Let some spheres move during the shutter interval")
	ground := flag.Bool("ground", false, "Add an infinite ground plane")
	width := flag.Int("width", 400, "Image width")
	aspect := flag.Float64("aspect", 16.0/9.0, "Image aspect ratio (width / height)")
	workers := flag.Int("workers", renderDefaults.NumWorkers, "Number of render workers (0 = CPU count)")
	mode := flag.String("mode", renderDefaults.Mode, "Shading mode: 'normal' or 'depth'")
	output := flag.String("output", "output", "Output directory")
	preview := flag.Uint("preview", 0, "Also write a preview scaled to this maximum edge (0 = off)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("BVH Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Output will be saved to <output>/<scene>/render_<timestamp>.png")
		return
	}

	opts := options{
		Scene: scene.Config{
			Kind:     *sceneKind,
			File:     *meshFile,
			Simplify: *simplifyMesh,
			Count:    *count,
			Seed:     *seed,
			Accel:    *accel,
			Motion:   *motion,
			Ground:   *ground,
			Time0:    defaults.Time0,
			Time1:    defaults.Time1,
		},
		Render:  renderDefaults,
		Width:   *width,
		Aspect:  *aspect,
		Output:  *output,
		Preview: *preview,
	}
	opts.Render.NumWorkers = *workers
	opts.Render.Mode = *mode
	opts.Render.Seed = *seed

	logger := core.NewDefaultLogger()
	if _, err := run(context.Background(), opts, logger); err != nil {
		logger.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run builds the scene, renders it and writes the result. It returns the
// path of the full-size image.
func run(ctx context.Context, opts options, logger core.Logger) (string, error) {
	if opts.Width <= 0 || opts.Aspect <= 0 {
		return "", fmt.Errorf("invalid image size: width %d, aspect %g", opts.Width, opts.Aspect)
	}

	logger.Printf("Building %s scene with %d objects (accel=%s, seed=%d)\n",
		opts.Scene.Kind, opts.Scene.Count, opts.Scene.Accel, opts.Scene.Seed)
	s, err := scene.Build(opts.Scene, logger)
	if err != nil {
		return "", fmt.Errorf("building scene: %w", err)
	}

	cameraConfig := renderer.FrameBox(s.Bounds, opts.Width, opts.Aspect)
	cameraConfig.Time0, cameraConfig.Time1 = opts.Scene.Time0, opts.Scene.Time1
	opts.Render.MaxDistance = 2 * cameraConfig.Center.Subtract(cameraConfig.LookAt).Length()

	rt, err := renderer.NewRaytracer(s.World, renderer.NewCamera(cameraConfig), opts.Render, logger)
	if err != nil {
		return "", err
	}
	img, _, err := rt.Render(ctx)
	if err != nil {
		return "", err
	}

	outputDir := filepath.Join(opts.Output, opts.Scene.Kind)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := writePNG(filename, img); err != nil {
		return "", err
	}
	logger.Printf("Render saved as %s\n", filename)

	if opts.Preview > 0 {
		previewName := filepath.Join(outputDir, fmt.Sprintf("preview_%s.png", timestamp))
		if err := writePNG(previewName, makePreview(img, opts.Preview)); err != nil {
			return "", err
		}
		logger.Printf("Preview saved as %s\n", previewName)
	}

	return filename, nil
}

// makePreview scales img down so its longer edge is at most maxEdge
func makePreview(img image.Image, maxEdge uint) image.Image {
	return resize.Thumbnail(maxEdge, maxEdge, img, resize.Lanczos3)
}

func writePNG(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("saving PNG: %w", err)
	}
	return nil
}
