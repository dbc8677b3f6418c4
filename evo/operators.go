package evo

import (
	"fmt"
	"math"
	"strings"
)

// Selection names a parent selection scheme.
type Selection int

const (
	Tournament Selection = iota
	Roulette
)

// ParseSelection converts a config value into a Selection.
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tournament":
		return Tournament, nil
	case "roulette":
		return Roulette, nil
	default:
		return -1, fmt.Errorf("unknown selection scheme %q", s)
	}
}

func (s Selection) String() string {
	switch s {
	case Tournament:
		return "tournament"
	case Roulette:
		return "roulette"
	default:
		return "unknown"
	}
}

// Mutate flips each bit of b independently with probability rate.
func Mutate(b Bitstring, rate float64, rng *Rand) Bitstring {
	buf := []byte(b)
	for i := range buf {
		if rng.Float64() < rate {
			if buf[i] == '1' {
				buf[i] = '0'
			} else {
				buf[i] = '1'
			}
		}
	}
	return Bitstring(buf)
}

// Crossover performs single point crossover with probability rate.
// The cut point is drawn from [1, len-1], so both children mix both parents.
// Parents that are not recombined are returned unchanged.
func Crossover(a, b Bitstring, rate float64, rng *Rand) (Bitstring, Bitstring, error) {
	if len(a) != len(b) {
		return "", "", fmt.Errorf("crossover of %d and %d bits: %w", len(a), len(b), ErrLengthMismatch)
	}

	if rng.Float64() >= rate || len(a) < 2 {
		return a, b, nil
	}

	point := 1 + rng.IntN(len(a)-1)
	child1 := a[:point] + b[point:]
	child2 := b[:point] + a[point:]
	return child1, child2, nil
}

// RouletteSelect picks an index with probability proportional to its fitness.
// Fitness values must be non-negative. When they sum to zero every index is
// equally likely.
func RouletteSelect(fitnesses []float64, rng *Rand) int {
	total := Sum(fitnesses)
	if total <= 0 || math.IsNaN(total) {
		return rng.IntN(len(fitnesses))
	}

	// Walk the wheel until the slot containing the pick is found
	pick := rng.Float64() * total
	last := 0
	for i, f := range fitnesses {
		if pick < f {
			return i
		}
		pick -= f
		if f > 0 {
			last = i
		}
	}
	// Floating point rounding can leave a sliver past the last slot
	return last
}

// TournamentSelect draws size indices with replacement and returns the
// fittest. The earliest draw wins ties.
func TournamentSelect(fitnesses []float64, size int, rng *Rand) int {
	best := -1
	bestFitness := math.Inf(-1)
	for i := 0; i < max(size, 1); i++ {
		idx := rng.IntN(len(fitnesses))
		if best == -1 || fitnesses[idx] > bestFitness {
			best = idx
			bestFitness = fitnesses[idx]
		}
	}
	return best
}

// selectParents returns two parent indices using the configured scheme.
func selectParents(cfg *GAConfig, fitnesses []float64, rng *Rand) (int, int) {
	if cfg.selection == Roulette {
		return RouletteSelect(fitnesses, rng), RouletteSelect(fitnesses, rng)
	}
	return TournamentSelect(fitnesses, cfg.TournamentSize, rng), TournamentSelect(fitnesses, cfg.TournamentSize, rng)
}

// pickDistinctPair draws two different indices below n; with n == 1 both are 0.
func pickDistinctPair(n int, rng *Rand) (int, int) {
	if n < 2 {
		return 0, 0
	}
	i := rng.IntN(n)
	j := rng.IntN(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
