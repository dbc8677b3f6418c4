package tuning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/evo/benchmark"
)

// Job is one run of one grid configuration.
type Job struct {
	Algorithm evo.Algorithm
	GA        evo.GAConfig // Used when Algorithm is AlgorithmGA
	ES        evo.ESConfig // Used when Algorithm is AlgorithmES
	RunID     int
}

// Runner executes tuning jobs against a benchmark problem, each under the
// configured timeout.
type Runner struct {
	Config  evo.TuningConfig
	Problem *benchmark.Problem

	log *zap.Logger
}

// NewRunner creates a runner. A nil logger uses zap.L().
func NewRunner(config evo.TuningConfig, problem *benchmark.Problem, log *zap.Logger) (*Runner, error) {
	if problem == nil {
		return nil, fmt.Errorf("tuning: problem is required")
	}
	if config.NumRuns < 1 {
		return nil, fmt.Errorf("tuning: num_runs must be positive")
	}
	if log == nil {
		log = zap.L()
	}
	return &Runner{Config: config, Problem: problem, log: log}, nil
}

// Jobs expands the grids into NumRuns jobs per configuration, GA first.
func (r *Runner) Jobs(ga []evo.GAConfig, es []evo.ESConfig) []Job {
	jobs := make([]Job, 0, (len(ga)+len(es))*r.Config.NumRuns)
	for _, config := range ga {
		for run := range r.Config.NumRuns {
			jobs = append(jobs, Job{Algorithm: evo.AlgorithmGA, GA: config, RunID: run})
		}
	}
	for _, config := range es {
		for run := range r.Config.NumRuns {
			jobs = append(jobs, Job{Algorithm: evo.AlgorithmES, ES: config, RunID: run})
		}
	}
	return jobs
}

// Run executes a single job.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	switch job.Algorithm {
	case evo.AlgorithmGA:
		return r.RunGA(ctx, job.GA, job.RunID)
	case evo.AlgorithmES:
		return r.RunES(ctx, job.ES, job.RunID)
	default:
		return nil, fmt.Errorf("tuning: unknown algorithm %q", job.Algorithm)
	}
}

// RunGA runs the GA once with seed base_seed + runID.
func (r *Runner) RunGA(ctx context.Context, config evo.GAConfig, runID int) (*Result, error) {
	fitness, err := r.Problem.BitFitness(config.MemSize)
	if err != nil {
		return nil, err
	}

	seed := r.seed(runID)
	ga, err := evo.NewGA(config, fitness, seed, evo.WithLogger(r.log))
	if err != nil {
		return nil, err
	}

	runCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := ga.Run(runCtx)
	elapsed := time.Since(start)
	timedOut, err := r.checkTimeout(ctx, err)
	if err != nil {
		return nil, fmt.Errorf("GA run %d: %w", runID, err)
	}

	result := NewResult(evo.AlgorithmGA, GAParams(config), runID, finite(res.BestFitness), elapsed)
	result.Seed = seed
	result.Converged = res.Converged
	result.Generations = res.Generations
	result.TimeoutReached = timedOut
	r.logResult(result)
	return result, nil
}

// RunES runs the ES once with seed base_seed + runID.
func (r *Runner) RunES(ctx context.Context, config evo.ESConfig, runID int) (*Result, error) {
	if !r.Problem.IsReal() {
		return nil, fmt.Errorf("tuning: %s has no real-valued objective", r.Problem.Name)
	}

	seed := r.seed(runID)
	es, err := evo.NewES(config, r.Problem.Objective, seed, evo.WithLogger(r.log))
	if err != nil {
		return nil, err
	}

	runCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := es.Run(runCtx)
	elapsed := time.Since(start)
	timedOut, err := r.checkTimeout(ctx, err)
	if err != nil {
		return nil, fmt.Errorf("ES run %d: %w", runID, err)
	}

	result := NewResult(evo.AlgorithmES, ESParams(es.Config), runID, finite(res.BestFitness), elapsed)
	result.Seed = seed
	result.Converged = res.Converged
	result.Generations = res.Generations
	result.TimeoutReached = timedOut
	r.logResult(result)
	return result, nil
}

// RunAll executes jobs on Config.Workers goroutines. Results are returned in
// job order; onResult, if set, is called once per finished job, never
// concurrently. The first failing job cancels the rest; the results of jobs
// that finished before that are still returned with the error.
func (r *Runner) RunAll(ctx context.Context, jobs []Job, onResult func(*Result) error) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Config.Workers, 1))
	for i, job := range jobs {
		g.Go(func() error {
			result, err := r.Run(ctx, job)
			if err != nil {
				return err
			}
			results[i] = result

			if onResult == nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			return onResult(result)
		})
	}
	err := g.Wait()
	if err != nil {
		finished := make([]*Result, 0, len(results))
		for _, result := range results {
			if result != nil {
				finished = append(finished, result)
			}
		}
		results = finished
	}
	return results, err
}

func (r *Runner) seed(runID int) uint64 {
	return r.Config.BaseSeed + uint64(runID)
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Config.Timeout)
}

// checkTimeout separates a run's own deadline, which ends the run normally,
// from cancellation of the parent context and other failures.
func (r *Runner) checkTimeout(parent context.Context, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return true, nil
	}
	return false, err
}

func (r *Runner) logResult(result *Result) {
	r.log.Info("tuning run finished",
		zap.String("algorithm", string(result.Algorithm)),
		zap.Int("run_id", result.RunID),
		zap.Float64("max_fitness", result.MaxFitness),
		zap.Float64("execution_time", result.ExecutionTime),
		zap.Float64("score", result.Score),
		zap.Bool("converged", result.Converged),
		zap.Bool("timeout_reached", result.TimeoutReached),
	)
}

// finite maps the -Inf best fitness of a run that evaluated nothing to 0.
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
