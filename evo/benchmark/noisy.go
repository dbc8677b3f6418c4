package benchmark

import (
	"fmt"
	"sync"

	"github.com/baldhumanity/evo-go/evo"
)

// Noisy perturbs an objective with additive Gaussian noise, averaged over
// Samples draws per evaluation. Results are clamped at zero.
//
// The noise source is shared, so with more than one worker the assignment of
// noise to members depends on scheduling.
type Noisy struct {
	Objective evo.Objective
	StdDev    float64
	Samples   int

	mu  sync.Mutex
	rng *evo.Rand
}

// NewNoisy wraps objective with noise of the given standard deviation.
func NewNoisy(objective evo.Objective, stdDev float64, samples int, seed uint64) (*Noisy, error) {
	if objective == nil {
		return nil, fmt.Errorf("noisy: objective is required")
	}
	if stdDev < 0 {
		return nil, fmt.Errorf("noisy: stddev cannot be negative, got %g", stdDev)
	}
	if samples < 1 {
		samples = 1
	}
	return &Noisy{Objective: objective, StdDev: stdDev, Samples: samples, rng: evo.NewRand(seed)}, nil
}

// Fitness implements evo.Objective.
func (n *Noisy) Fitness(x []float64) float64 {
	clean := n.Objective.Fitness(x)

	n.mu.Lock()
	noise := 0.0
	for range n.Samples {
		noise += n.rng.Gaussian(0, n.StdDev)
	}
	n.mu.Unlock()

	return max(0, clean+noise/float64(n.Samples))
}
