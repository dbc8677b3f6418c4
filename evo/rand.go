package evo

import (
	"encoding/binary"
	"math/rand/v2"
)

// Rand is a seeded ChaCha8 generator. Every algorithm instance owns one, so
// runs with the same seed are reproducible and the state can be checkpointed.
type Rand struct {
	*rand.Rand
	src *rand.ChaCha8
}

// NewRand creates a generator whose ChaCha8 key is derived from seed.
func NewRand(seed uint64) *Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	src := rand.NewChaCha8(key)
	return &Rand{Rand: rand.New(src), src: src}
}

// MarshalBinary returns the generator state.
func (r *Rand) MarshalBinary() ([]byte, error) {
	return r.src.MarshalBinary()
}

// UnmarshalBinary restores a state produced by MarshalBinary.
func (r *Rand) UnmarshalBinary(data []byte) error {
	return r.src.UnmarshalBinary(data)
}

// Gaussian draws from N(mean, stdev).
func (r *Rand) Gaussian(mean, stdev float64) float64 {
	return mean + stdev*r.NormFloat64()
}

// Uniform draws from [lo, hi).
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
