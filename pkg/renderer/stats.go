package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Pixels  int           // Total number of pixels rendered
	Rays    int           // Camera rays cast
	Hits    int           // Camera rays that hit the world
	Elapsed time.Duration // Wall time of the render
}

// HitRatio returns the fraction of rays that hit something
func (s RenderStats) HitRatio() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Rays)
}

// RaysPerSecond returns the throughput of the render
func (s RenderStats) RaysPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Rays) / s.Elapsed.Seconds()
}

func (s *RenderStats) add(other RowResult) {
	s.Pixels += other.Pixels
	s.Rays += other.Rays
	s.Hits += other.Hits
}
