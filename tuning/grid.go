// Package tuning sweeps GA and ES parameter grids on a benchmark problem,
// scores every run and summarises which settings worked best.
package tuning

import (
	"slices"

	"github.com/baldhumanity/evo-go/evo"
)

// Grid axes swept by GAGrid and ESGrid.
var (
	PopSizes      = []int{50, 162, 275, 387, 500}
	MutationRates = []float64{0.001, 0.05, 0.1, 0.15, 0.2}
	Lambdas       = []int{50, 162, 275, 387, 500}
	Sigmas        = []float64{0.1, 0.575, 1.05, 1.525, 2.0}
)

// ES search range used by the grid.
const (
	RangeMin = -5.12
	RangeMax = 5.11
)

// GAGrid returns one GA configuration per population size and mutation rate.
func GAGrid(dims, bitsPerDim int) []evo.GAConfig {
	grid := make([]evo.GAConfig, 0, len(PopSizes)*len(MutationRates))
	for _, popSize := range PopSizes {
		for _, rate := range MutationRates {
			grid = append(grid, evo.GAConfig{
				PopSize:              popSize,
				MemSize:              bitsPerDim * dims,
				MutationRate:         rate,
				CrossoverRate:        0.75,
				MaxIters:             1000,
				ConvergenceThreshold: 0.95,
				Selection:            evo.Tournament.String(),
				TournamentSize:       3,
				Workers:              1,
			})
		}
	}
	return grid
}

// ESGrid returns one ES configuration per lambda and initial sigma, with
// mu = lambda/2.
func ESGrid(dims int) []evo.ESConfig {
	grid := make([]evo.ESConfig, 0, len(Lambdas)*len(Sigmas))
	for _, lambda := range Lambdas {
		for _, sigma := range Sigmas {
			grid = append(grid, evo.ESConfig{
				Mu:                   lambda / 2,
				Lambda:               lambda,
				Dims:                 dims,
				RangeMin:             RangeMin,
				RangeMax:             RangeMax,
				Sigma:                sigma,
				Tau:                  evo.DefaultTau(dims),
				MaxGens:              1000,
				ConvergenceThreshold: 0.99,
				Workers:              1,
			})
		}
	}
	return grid
}

// Params is the flat parameter record stored with every result.
type Params map[string]float64

// Get returns the named parameter, or 0 when it is missing.
func (p Params) Get(name string) float64 {
	return p[name]
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GAParams flattens a GA configuration.
func GAParams(c evo.GAConfig) Params {
	return Params{
		"pop_size":              float64(c.PopSize),
		"mem_size":              float64(c.MemSize),
		"mutation_rate":         c.MutationRate,
		"crossover_rate":        c.CrossoverRate,
		"max_iters":             float64(c.MaxIters),
		"convergence_threshold": c.ConvergenceThreshold,
	}
}

// ESParams flattens an ES configuration. mem_size is the number of object
// variables.
func ESParams(c evo.ESConfig) Params {
	return Params{
		"mu":            float64(c.Mu),
		"lambda":        float64(c.Lambda),
		"mem_size":      float64(c.Dims),
		"mem_range_min": c.RangeMin,
		"mem_range_max": c.RangeMax,
		"sigma":         c.Sigma,
		"tau":           c.Tau,
		"max_gens":      float64(c.MaxGens),
	}
}
