package evo

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// GA is a simple genetic algorithm over fixed length bitstrings with full
// generational replacement.
type GA struct {
	Config      GAConfig
	Fitness     BitFitness
	Population  []Bitstring // Current generation
	Generation  int         // Number of the generation about to be evaluated, starting at 0
	Evaluations int         // Cumulative fitness evaluations
	Best        Bitstring   // Best member found so far
	BestFitness float64

	rng     *Rand
	started time.Time
	opts    *options
}

// GAResult is the outcome of GA.Run.
type GAResult struct {
	Population  []Bitstring
	Best        Bitstring
	BestFitness float64
	Generations int // Generations evaluated
	Evaluations int
	Converged   bool
	Last        GenerationStats // Statistics of the last evaluated generation
}

// NewGA creates a GA with a random initial population drawn from seed.
func NewGA(config GAConfig, fitness BitFitness, seed uint64, opts ...Option) (*GA, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if fitness == nil {
		return nil, fmt.Errorf("ga: fitness is required")
	}

	rng := NewRand(seed)
	population := make([]Bitstring, config.PopSize)
	for i := range population {
		population[i] = RandomBitstring(rng, config.MemSize)
	}

	return &GA{
		Config:      config,
		Fitness:     fitness,
		Population:  population,
		BestFitness: math.Inf(-1),
		rng:         rng,
		opts:        newOptions(opts),
	}, nil
}

// RunGeneration evaluates the current population, reports its statistics and,
// unless it has converged, replaces it with the next generation.
func (ga *GA) RunGeneration(ctx context.Context) (GenerationStats, bool, error) {
	if ga.started.IsZero() {
		ga.started = time.Now()
	}

	// 1. Evaluate Fitness
	fitnesses, err := evaluateBits(ctx, ga.Fitness, ga.Population, ga.Config.Workers)
	if err != nil {
		return GenerationStats{}, false, fmt.Errorf("fitness evaluation failed in generation %d: %w", ga.Generation, err)
	}
	ga.Evaluations += len(ga.Population)

	// 2. Track Best Member & Statistics
	if i := ArgMax(fitnesses); i >= 0 && fitnesses[i] > ga.BestFitness {
		ga.Best = ga.Population[i]
		ga.BestFitness = fitnesses[i]
	}
	stats, err := ga.stats(fitnesses)
	if err != nil {
		return GenerationStats{}, false, err
	}
	ga.opts.reporters.ReportGeneration(stats)

	// 3. Check Convergence
	threshold := ga.Config.ConvergenceThreshold
	if stats.MeanFitness >= threshold || stats.PctIdentical >= threshold {
		return stats, true, nil
	}

	// 4. Reproduce
	next, err := ga.reproduce(fitnesses)
	if err != nil {
		return stats, false, fmt.Errorf("reproduction failed in generation %d: %w", ga.Generation, err)
	}
	ga.Population = next
	ga.Generation++
	return stats, false, nil
}

// Run evolves the population until it converges or max_iters generations
// have been evaluated. A cancelled context stops the run between generations;
// the partial result is returned together with the context error.
func (ga *GA) Run(ctx context.Context) (*GAResult, error) {
	log := ga.opts.log.With(
		zap.String("algorithm", string(AlgorithmGA)),
		zap.Int("pop_size", ga.Config.PopSize),
		zap.Int("mem_size", ga.Config.MemSize),
		zap.Float64("mutation_rate", ga.Config.MutationRate),
		zap.Float64("crossover_rate", ga.Config.CrossoverRate),
	)

	result := &GAResult{}
	for ga.Generation < ga.Config.MaxIters {
		if err := ctx.Err(); err != nil {
			ga.fill(result)
			return result, err
		}

		stats, converged, err := ga.RunGeneration(ctx)
		if err != nil {
			ga.fill(result)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, err
		}
		result.Last = stats

		if converged {
			result.Converged = true
			log.Info("converged", zap.Int("generation", stats.Generation))
			ga.fill(result)
			result.Generations++ // The converged generation was evaluated but not replaced
			return result, nil
		}

		if ga.opts.checkpointDue(ga.Generation) {
			if err := ga.SaveCheckpoint(ga.opts.checkpointPath); err != nil {
				log.Warn("failed to save checkpoint", zap.Int("generation", ga.Generation), zap.Error(err))
			}
		}
	}

	log.Info("max iterations reached", zap.Int("max_iters", ga.Config.MaxIters))
	ga.fill(result)
	return result, nil
}

func (ga *GA) fill(result *GAResult) {
	result.Population = ga.Population
	result.Best = ga.Best
	result.BestFitness = ga.BestFitness
	result.Evaluations = ga.Evaluations
	result.Generations = ga.Generation
}

// reproduce builds a full replacement population: parent pairs are selected,
// recombined and mutated until pop_size children exist.
func (ga *GA) reproduce(fitnesses []float64) ([]Bitstring, error) {
	cfg := &ga.Config
	next := make([]Bitstring, 0, cfg.PopSize)
	for len(next) < cfg.PopSize {
		i, j := selectParents(cfg, fitnesses, ga.rng)

		child1, child2, err := Crossover(ga.Population[i], ga.Population[j], cfg.CrossoverRate, ga.rng)
		if err != nil {
			return nil, err
		}
		child1 = Mutate(child1, cfg.MutationRate, ga.rng)
		child2 = Mutate(child2, cfg.MutationRate, ga.rng)

		next = append(next, child1)
		if len(next) < cfg.PopSize {
			next = append(next, child2)
		}
	}
	return next, nil
}

func (ga *GA) stats(fitnesses []float64) (GenerationStats, error) {
	diversity := 0.0
	if dec, ok := ga.Fitness.(Decoder); ok {
		points := make([][]float64, len(ga.Population))
		for i, m := range ga.Population {
			x, err := dec.Decode(m)
			if err != nil {
				return GenerationStats{}, fmt.Errorf("decoding member %d: %w", i, err)
			}
			points[i] = x
		}
		diversity = Diversity(points)
	}

	return GenerationStats{
		Algorithm:     AlgorithmGA,
		Label:         ga.Config.Label,
		Parents:       ga.Config.PopSize,
		Offspring:     ga.Config.PopSize,
		MutationParam: ga.Config.MutationRate,
		CrossoverRate: ga.Config.CrossoverRate,
		Generation:    ga.Generation,
		Evaluations:   ga.Evaluations,
		MaxFitness:    math.Max(0, MaxFloat(fitnesses)),
		MinFitness:    MinFloat(fitnesses),
		MeanFitness:   Mean(fitnesses),
		PctIdentical:  PctIdentical(ga.Population),
		Diversity:     diversity,
		Elapsed:       time.Since(ga.started),
	}, nil
}
