package evo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Objective scores a point of a real-valued search space.
// Higher is better; benchmark objectives return values in (0, 1].
type Objective interface {
	Fitness(x []float64) float64
}

// ObjectiveFunc adapts a plain function to Objective.
type ObjectiveFunc func(x []float64) float64

// Fitness calls f(x).
func (f ObjectiveFunc) Fitness(x []float64) float64 {
	return f(x)
}

// BitFitness scores a bitstring genome.
// Implementations must be safe for concurrent use.
type BitFitness interface {
	FitnessBits(b Bitstring) (float64, error)
}

// Decoder maps a bitstring genome onto the real space it encodes.
// A BitFitness that also implements Decoder enables decoded-space diversity.
type Decoder interface {
	Decode(b Bitstring) ([]float64, error)
}

// Encoded evaluates an Objective on bitstrings decoded by a Codec.
type Encoded struct {
	Objective Objective
	Codec     *Codec
}

// FitnessBits decodes b and scores the decoded point.
func (e *Encoded) FitnessBits(b Bitstring) (float64, error) {
	x, err := e.Codec.Decode(b)
	if err != nil {
		return 0, err
	}
	return e.Objective.Fitness(x), nil
}

// Decode implements Decoder.
func (e *Encoded) Decode(b Bitstring) ([]float64, error) {
	return e.Codec.Decode(b)
}

// evaluateBits scores every member using up to workers goroutines.
// Results keep the population order, so parallel runs stay reproducible.
func evaluateBits(ctx context.Context, fitness BitFitness, population []Bitstring, workers int) ([]float64, error) {
	fitnesses := make([]float64, len(population))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, member := range population {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := fitness.FitnessBits(member)
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			fitnesses[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitnesses, nil
}

// evaluateMembers scores the object variables of every member.
func evaluateMembers(ctx context.Context, objective Objective, members []Member, workers int) ([]float64, error) {
	fitnesses := make([]float64, len(members))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, m := range members {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fitnesses[i] = objective.Fitness(m.Genes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitnesses, nil
}
