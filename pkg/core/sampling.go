package core

import "math/rand/v2"

// Sampler provides uniform random values in [0, 1).
// Successive calls advance a single stream, so a seeded sampler reproduces
// the same sequence of draws.
type Sampler interface {
	Get1D() float64
}

// RandomSampler wraps a PCG generator from math/rand/v2
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler seeded with the given values
func NewRandomSampler(seed, stream uint64) *RandomSampler {
	return &RandomSampler{random: rand.New(rand.NewPCG(seed, stream))}
}

// NewRandomSamplerFrom creates a sampler from an existing generator
func NewRandomSamplerFrom(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Range returns a random float64 in [min, max)
func (r *RandomSampler) Range(min, max float64) float64 {
	return min + (max-min)*r.random.Float64()
}

// Get3D returns three successive random values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}
