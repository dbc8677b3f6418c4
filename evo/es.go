package evo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"
)

// Member is a real-valued ES individual: object variables plus one
// self-adaptive mutation step size.
type Member struct {
	Genes []float64
	Sigma float64
}

// Clone returns a deep copy of m.
func (m Member) Clone() Member {
	return Member{Genes: slices.Clone(m.Genes), Sigma: m.Sigma}
}

// ES is a (mu, lambda) evolution strategy. Offspring replace the parents
// every generation; parents never survive.
type ES struct {
	Config      ESConfig
	Objective   Objective
	Population  []Member // The mu parents
	Generation  int      // Number of the last evaluated generation, starting at 1
	Evaluations int
	Best        Member
	BestFitness float64

	rng     *Rand
	started time.Time
	opts    *options
}

// ESResult is the outcome of ES.Run.
type ESResult struct {
	Population  []Member
	Best        Member
	BestFitness float64
	Generations int
	Evaluations int
	Converged   bool
	Last        GenerationStats
}

// NewES creates an ES whose mu parents are drawn uniformly from the
// configured range with the initial step size sigma.
func NewES(config ESConfig, objective Objective, seed uint64, opts ...Option) (*ES, error) {
	if config.Tau == 0 {
		config.Tau = DefaultTau(config.Dims)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if objective == nil {
		return nil, fmt.Errorf("es: objective is required")
	}

	rng := NewRand(seed)
	population := make([]Member, config.Mu)
	for i := range population {
		genes := make([]float64, config.Dims)
		for k := range genes {
			genes[k] = rng.Uniform(config.RangeMin, config.RangeMax)
		}
		population[i] = Member{Genes: genes, Sigma: config.Sigma}
	}

	return &ES{
		Config:      config,
		Objective:   objective,
		Population:  population,
		BestFitness: math.Inf(-1),
		rng:         rng,
		opts:        newOptions(opts),
	}, nil
}

// RunGeneration evaluates the parents, creates and evaluates lambda
// offspring, reports the parent statistics and, unless the parents have
// converged, makes the best mu offspring the next parents.
func (es *ES) RunGeneration(ctx context.Context) (GenerationStats, bool, error) {
	if es.started.IsZero() {
		es.started = time.Now()
	}
	generation := es.Generation + 1
	cfg := &es.Config

	fitnesses, err := evaluateMembers(ctx, es.Objective, es.Population, cfg.Workers)
	if err != nil {
		return GenerationStats{}, false, fmt.Errorf("fitness evaluation failed in generation %d: %w", generation, err)
	}

	// A failed generation leaves the ES as it was, generator included, so a
	// checkpoint taken after an interrupt resumes on the same trajectory.
	rngState, err := es.rng.MarshalBinary()
	if err != nil {
		return GenerationStats{}, false, err
	}

	offspring := make([]Member, cfg.Lambda)
	for c := range offspring {
		// Binary tournament between two distinct parents
		i, j := pickDistinctPair(len(es.Population), es.rng)
		if fitnesses[j] > fitnesses[i] {
			i = j
		}
		offspring[c] = es.mutate(es.Population[i])
	}

	offspringFitnesses, err := evaluateMembers(ctx, es.Objective, offspring, cfg.Workers)
	if err != nil {
		err = fmt.Errorf("offspring evaluation failed in generation %d: %w", generation, err)
		return GenerationStats{}, false, errors.Join(err, es.rng.UnmarshalBinary(rngState))
	}
	es.Evaluations += len(es.Population) + len(offspring)
	es.Generation = generation

	for _, pair := range []struct {
		members   []Member
		fitnesses []float64
	}{{es.Population, fitnesses}, {offspring, offspringFitnesses}} {
		if i := ArgMax(pair.fitnesses); i >= 0 && pair.fitnesses[i] > es.BestFitness {
			es.Best = pair.members[i].Clone()
			es.BestFitness = pair.fitnesses[i]
		}
	}

	stats := es.stats(fitnesses)
	es.opts.reporters.ReportGeneration(stats)

	if stats.MeanFitness > cfg.ConvergenceThreshold {
		return stats, true, nil
	}

	// Comma selection: the best mu offspring become the parents
	order := make([]int, len(offspring))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(offspringFitnesses[b], offspringFitnesses[a])
	})
	next := make([]Member, cfg.Mu)
	for i := range next {
		next[i] = offspring[order[i]]
	}
	es.Population = next
	return stats, false, nil
}

// mutate creates a child by first perturbing every gene with the parent's
// step size and then adapting the step size log-normally.
func (es *ES) mutate(parent Member) Member {
	child := Member{Genes: make([]float64, len(parent.Genes))}
	for k, gene := range parent.Genes {
		child.Genes[k] = gene + es.rng.Gaussian(0, parent.Sigma)
	}
	child.Sigma = parent.Sigma * math.Exp(es.Config.Tau*es.rng.NormFloat64())
	return child
}

// Run evolves until the mean parent fitness exceeds the convergence
// threshold or max_gens generations have run.
func (es *ES) Run(ctx context.Context) (*ESResult, error) {
	log := es.opts.log.With(
		zap.String("algorithm", string(AlgorithmES)),
		zap.Int("mu", es.Config.Mu),
		zap.Int("lambda", es.Config.Lambda),
		zap.Float64("sigma", es.Config.Sigma),
		zap.Float64("tau", es.Config.Tau),
	)

	result := &ESResult{}
	for es.Generation < es.Config.MaxGens {
		if err := ctx.Err(); err != nil {
			es.fill(result)
			return result, err
		}

		stats, converged, err := es.RunGeneration(ctx)
		if err != nil {
			es.fill(result)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, err
		}
		result.Last = stats

		if converged {
			result.Converged = true
			log.Info("converged", zap.Int("generation", stats.Generation))
			es.fill(result)
			return result, nil
		}

		if es.opts.checkpointDue(es.Generation) {
			if err := es.SaveCheckpoint(es.opts.checkpointPath); err != nil {
				log.Warn("failed to save checkpoint", zap.Int("generation", es.Generation), zap.Error(err))
			}
		}
	}

	log.Info("max generations reached", zap.Int("max_gens", es.Config.MaxGens))
	es.fill(result)
	return result, nil
}

func (es *ES) fill(result *ESResult) {
	result.Population = es.Population
	result.Best = es.Best
	result.BestFitness = es.BestFitness
	result.Generations = es.Generation
	result.Evaluations = es.Evaluations
}

func (es *ES) stats(fitnesses []float64) GenerationStats {
	points := make([][]float64, len(es.Population))
	sigmas := make([]float64, len(es.Population))
	for i, m := range es.Population {
		points[i] = m.Genes
		sigmas[i] = m.Sigma
	}

	return GenerationStats{
		Algorithm:     AlgorithmES,
		Label:         es.Config.Label,
		Parents:       es.Config.Mu,
		Offspring:     es.Config.Lambda,
		MutationParam: es.Config.Tau,
		Generation:    es.Generation,
		Evaluations:   es.Evaluations,
		MaxFitness:    MaxFloat(fitnesses),
		MinFitness:    MinFloat(fitnesses),
		MeanFitness:   Mean(fitnesses),
		Diversity:     Diversity(points),
		MeanSigma:     Mean(sigmas),
		Elapsed:       time.Since(es.started),
	}
}
