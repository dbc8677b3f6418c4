// Package benchmark provides test problems for the evolutionary algorithms.
//
// Every problem is expressed as a fitness in (0, 1] to be maximised; real
// valued problems convert their raw value v with 1/(1+v).
package benchmark

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/baldhumanity/evo-go/evo"
)

// ErrUnknownProblem is returned by Lookup for names it does not know.
var ErrUnknownProblem = errors.New("unknown problem")

// toFitness maps a non-negative raw objective value onto (0, 1].
func toFitness(v float64) float64 {
	return 1.0 / (1.0 + v)
}

// MaxOnes scores a bitstring by its fraction of '1' bits.
type MaxOnes struct{}

// FitnessBits implements evo.BitFitness.
func (MaxOnes) FitnessBits(b evo.Bitstring) (float64, error) {
	if b.Len() == 0 {
		return 0, fmt.Errorf("maxones: empty bitstring")
	}
	return float64(b.Ones()) / float64(b.Len()), nil
}

// Rosenbrock is the generalized n-dimensional Rosenbrock function.
// Its global optimum is (1, ..., 1) with value 0.
type Rosenbrock struct{}

// Value returns the raw Rosenbrock value of x.
func (Rosenbrock) Value(x []float64) float64 {
	value := 0.0
	for i := 0; i+1 < len(x); i++ {
		a := 1.0 - x[i]
		b := x[i+1] - x[i]*x[i]
		value += a*a + 100.0*b*b
	}
	return value
}

// Fitness implements evo.Objective.
func (r Rosenbrock) Fitness(x []float64) float64 {
	return toFitness(r.Value(x))
}

// Himmelblau is Himmelblau's two-dimensional function with four optima of
// value 0, one of them at (3, 2).
type Himmelblau struct{}

// Value returns the raw Himmelblau value of (x[0], x[1]). Vectors with fewer
// than two components have value +Inf, i.e. fitness 0.
func (Himmelblau) Value(x []float64) float64 {
	if len(x) < 2 {
		return math.Inf(1)
	}
	a := x[0]*x[0] + x[1] - 11
	b := x[0] + x[1]*x[1] - 7
	return a*a + b*b
}

// Fitness implements evo.Objective.
func (h Himmelblau) Fitness(x []float64) float64 {
	return toFitness(h.Value(x))
}

// Problem bundles a benchmark with its dimensionality and default range.
type Problem struct {
	Name      string
	Dims      int
	Min, Max  float64
	Objective evo.Objective  // nil for bitstring-only problems
	Bits      evo.BitFitness // non-nil for bitstring-only problems
}

// Names lists the problems known to Lookup.
func Names() []string {
	return []string{"himmelblau", "maxones", "rosenbrock"}
}

// Lookup returns the named problem. dims of 0 selects the problem's default.
func Lookup(name string, dims int) (*Problem, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "maxones":
		return &Problem{Name: "maxones", Dims: dims, Bits: MaxOnes{}}, nil
	case "rosenbrock":
		if dims == 0 {
			dims = 2
		}
		if dims < 1 {
			return nil, fmt.Errorf("rosenbrock: dims must be positive, got %d", dims)
		}
		return &Problem{Name: "rosenbrock", Dims: dims, Min: -5.12, Max: 5.11, Objective: Rosenbrock{}}, nil
	case "himmelblau":
		if dims == 0 {
			dims = 2
		}
		if dims != 2 {
			return nil, fmt.Errorf("himmelblau: defined for 2 dimensions, got %d", dims)
		}
		return &Problem{Name: "himmelblau", Dims: 2, Min: -10, Max: 10, Objective: Himmelblau{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProblem, name, strings.Join(Names(), ", "))
	}
}

// WithRange returns a copy of p searching [min, max] instead of its default
// range. A zero range leaves the default in place.
func (p *Problem) WithRange(min, max float64) *Problem {
	q := *p
	if min != 0 || max != 0 {
		q.Min, q.Max = min, max
	}
	return &q
}

// IsReal reports whether the problem has a real-valued objective usable by the ES.
func (p *Problem) IsReal() bool {
	return p.Objective != nil
}

// BitFitness returns the fitness used by the GA for members of memSize bits.
// Real-valued problems are wrapped with a codec over the problem range.
func (p *Problem) BitFitness(memSize int) (evo.BitFitness, error) {
	if p.Bits != nil {
		return p.Bits, nil
	}

	codec, err := evo.NewCodec(p.Dims, p.Min, p.Max)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	if err := codec.Check(memSize); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return &evo.Encoded{Objective: p.Objective, Codec: codec}, nil
}

// ESConfig applies the problem's dimensionality and, unless the config sets
// one, its range to config.
func (p *Problem) ESConfig(config evo.ESConfig) (evo.ESConfig, error) {
	if !p.IsReal() {
		return config, fmt.Errorf("%s: problem has no real-valued objective", p.Name)
	}
	if config.Dims != p.Dims {
		if config.Tau == evo.DefaultTau(config.Dims) {
			config.Tau = evo.DefaultTau(p.Dims)
		}
		config.Dims = p.Dims
	}
	if config.RangeMin == 0 && config.RangeMax == 0 {
		config.RangeMin, config.RangeMax = p.Min, p.Max
	}
	return config, nil
}

// WithNoise returns a copy of p whose objective is wrapped by Noisy.
// A zero stdDev returns p unchanged.
func (p *Problem) WithNoise(stdDev float64, samples int, seed uint64) (*Problem, error) {
	if stdDev == 0 {
		return p, nil
	}
	if !p.IsReal() {
		return nil, fmt.Errorf("%s: noise needs a real-valued objective", p.Name)
	}
	noisy, err := NewNoisy(p.Objective, stdDev, samples, seed)
	if err != nil {
		return nil, err
	}
	q := *p
	q.Objective = noisy
	return &q, nil
}

// Optima returns the known global optima of real-valued problems.
func (p *Problem) Optima() [][]float64 {
	objective := p.Objective
	if noisy, ok := objective.(*Noisy); ok {
		objective = noisy.Objective
	}
	switch objective.(type) {
	case Rosenbrock:
		ones := make([]float64, p.Dims)
		for i := range ones {
			ones[i] = 1
		}
		return [][]float64{ones}
	case Himmelblau:
		return [][]float64{
			{3.0, 2.0},
			{-2.805118, 3.131312},
			{-3.779310, -3.283186},
			{3.584428, -1.848126},
		}
	default:
		return nil
	}
}

// NearestOptimum returns the distance from x to the closest known optimum,
// or +Inf when the problem has none.
func (p *Problem) NearestOptimum(x []float64) float64 {
	best := math.Inf(1)
	for _, o := range p.Optima() {
		if len(o) != len(x) {
			continue
		}
		best = min(best, floats.Distance(o, x, 2))
	}
	return best
}
