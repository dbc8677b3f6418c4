package tuning

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/evo/benchmark"
)

func TestGrids(t *testing.T) {
	ga := GAGrid(10, 16)
	require.Len(t, ga, 25)
	assert.Equal(t, 50, ga[0].PopSize)
	assert.Equal(t, 0.001, ga[0].MutationRate)
	assert.Equal(t, 500, ga[24].PopSize)
	assert.Equal(t, 0.2, ga[24].MutationRate)
	for _, c := range ga {
		assert.Equal(t, 160, c.MemSize)
		assert.Equal(t, 0.75, c.CrossoverRate)
		assert.NoError(t, c.Validate())
	}

	es := ESGrid(10)
	require.Len(t, es, 25)
	for _, c := range es {
		assert.Equal(t, c.Lambda/2, c.Mu)
		assert.Equal(t, evo.DefaultTau(10), c.Tau)
		assert.Equal(t, -5.12, c.RangeMin)
		assert.Equal(t, 5.11, c.RangeMax)
		assert.NoError(t, c.Validate())
	}
	assert.Equal(t, 25, es[0].Mu)
	assert.Equal(t, 2.0, es[24].Sigma)
}

func TestParams(t *testing.T) {
	p := GAParams(GAGrid(10, 16)[0])
	assert.Equal(t, []string{
		"convergence_threshold", "crossover_rate", "max_iters",
		"mem_size", "mutation_rate", "pop_size",
	}, p.Names())
	assert.Equal(t, 50.0, p.Get("pop_size"))
	assert.Equal(t, 0.0, p.Get("lambda"))

	p = ESParams(ESGrid(10)[0])
	assert.Equal(t, 10.0, p.Get("mem_size"))
	assert.Equal(t, -5.12, p.Get("mem_range_min"))
	assert.Len(t, p, 8)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(0.9, 0))
	assert.Equal(t, 0.5, Score(1, 2))

	r := NewResult(evo.AlgorithmGA, Params{}, 3, 0.8, 2*time.Second)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 2.0, r.ExecutionTime)
	assert.InDelta(t, 0.4, r.Score, 1e-12)
}

func newTestRunner(t *testing.T, problem *benchmark.Problem, timeout time.Duration) *Runner {
	t.Helper()
	config := evo.DefaultConfig().Tuning
	config.NumRuns = 2
	config.Timeout = timeout
	config.Workers = 4

	r, err := NewRunner(config, problem, zap.NewNop())
	require.NoError(t, err)
	return r
}

func smallGAConfig() evo.GAConfig {
	return evo.GAConfig{
		PopSize: 10, MemSize: 32, MutationRate: 0.05, CrossoverRate: 0.75,
		MaxIters: 5, ConvergenceThreshold: 0.95, TournamentSize: 3,
	}
}

func smallESConfig() evo.ESConfig {
	return evo.ESConfig{
		Mu: 2, Lambda: 4, Dims: 2, RangeMin: -5.12, RangeMax: 5.11,
		Sigma: 1, Tau: evo.DefaultTau(2), MaxGens: 5, ConvergenceThreshold: 0.99,
	}
}

func TestRunnerRunGA(t *testing.T) {
	problem, err := benchmark.Lookup("rosenbrock", 2)
	require.NoError(t, err)
	r := newTestRunner(t, problem, time.Minute)

	result, err := r.RunGA(context.Background(), smallGAConfig(), 3)
	require.NoError(t, err)
	assert.Equal(t, evo.AlgorithmGA, result.Algorithm)
	assert.Equal(t, 3, result.RunID)
	assert.Equal(t, uint64(5003), result.Seed)
	assert.False(t, result.TimeoutReached)
	assert.Greater(t, result.MaxFitness, 0.0)
	assert.LessOrEqual(t, result.MaxFitness, 1.0)
	assert.LessOrEqual(t, result.Generations, 5)
	assert.Equal(t, 10.0, result.Parameters.Get("pop_size"))

	// Same run id, same seed, same outcome
	again, err := r.RunGA(context.Background(), smallGAConfig(), 3)
	require.NoError(t, err)
	assert.Equal(t, result.MaxFitness, again.MaxFitness)
	assert.NotEqual(t, result.ID, again.ID)
}

func TestRunnerRunES(t *testing.T) {
	problem, err := benchmark.Lookup("rosenbrock", 2)
	require.NoError(t, err)
	r := newTestRunner(t, problem, time.Minute)

	result, err := r.RunES(context.Background(), smallESConfig(), 0)
	require.NoError(t, err)
	assert.Equal(t, evo.AlgorithmES, result.Algorithm)
	assert.Equal(t, 5, result.Generations)
	assert.Equal(t, 4.0, result.Parameters.Get("lambda"))

	ones, err := benchmark.Lookup("maxones", 0)
	require.NoError(t, err)
	_, err = newTestRunner(t, ones, time.Minute).RunES(context.Background(), smallESConfig(), 0)
	assert.Error(t, err)
}

func TestRunnerTimeout(t *testing.T) {
	slow := &benchmark.Problem{
		Name: "slow", Dims: 2, Min: -1, Max: 1,
		Objective: evo.ObjectiveFunc(func(x []float64) float64 {
			time.Sleep(time.Millisecond)
			return 0
		}),
	}
	r := newTestRunner(t, slow, 20*time.Millisecond)

	config := smallESConfig()
	config.MaxGens = 1000
	result, err := r.RunES(context.Background(), config, 0)
	require.NoError(t, err)
	assert.True(t, result.TimeoutReached)
	assert.False(t, result.Converged)
	assert.Less(t, result.Generations, 1000)
}

func TestRunnerCancelled(t *testing.T) {
	problem, err := benchmark.Lookup("rosenbrock", 2)
	require.NoError(t, err)
	r := newTestRunner(t, problem, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RunGA(ctx, smallGAConfig(), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerRunAll(t *testing.T) {
	problem, err := benchmark.Lookup("rosenbrock", 2)
	require.NoError(t, err)
	r := newTestRunner(t, problem, time.Minute)

	jobs := r.Jobs([]evo.GAConfig{smallGAConfig()}, []evo.ESConfig{smallESConfig()})
	require.Len(t, jobs, 4)
	assert.Equal(t, evo.AlgorithmGA, jobs[0].Algorithm)
	assert.Equal(t, 1, jobs[1].RunID)
	assert.Equal(t, evo.AlgorithmES, jobs[3].Algorithm)

	var calls atomic.Int32
	results, err := r.RunAll(context.Background(), jobs, func(*Result) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int32(4), calls.Load())
	for i, job := range jobs {
		assert.Equal(t, job.Algorithm, results[i].Algorithm)
		assert.Equal(t, job.RunID, results[i].RunID)
	}

	_, err = r.RunAll(context.Background(), jobs, func(*Result) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunnerRunAllCancelled(t *testing.T) {
	problem, err := benchmark.Lookup("rosenbrock", 2)
	require.NoError(t, err)
	r := newTestRunner(t, problem, time.Minute)
	r.Config.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := r.Jobs([]evo.GAConfig{smallGAConfig()}, []evo.ESConfig{smallESConfig()})
	results, err := r.RunAll(ctx, jobs, func(*Result) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Equal(t, evo.AlgorithmGA, results[0].Algorithm)
	assert.Equal(t, 0, results[0].RunID)
}

func sampleResults() []*Result {
	mk := func(alg evo.Algorithm, params Params, run int, fitness, seconds float64, converged, timeout bool) *Result {
		r := NewResult(alg, params, run, fitness, time.Duration(seconds*float64(time.Second)))
		r.Converged = converged
		r.TimeoutReached = timeout
		return r
	}
	small := Params{"pop_size": 50, "mutation_rate": 0.001}
	large := Params{"pop_size": 500, "mutation_rate": 0.2}
	es := Params{"mu": 25, "lambda": 50, "sigma": 0.1}
	return []*Result{
		mk(evo.AlgorithmGA, small, 0, 0.5, 1, false, false),   // 0.5
		mk(evo.AlgorithmGA, small, 1, 0.9, 1, true, false),    // 0.9
		mk(evo.AlgorithmGA, large, 0, 0.95, 0.5, true, false), // 1.9
		mk(evo.AlgorithmGA, large, 1, 0.1, 1, false, true),    // 0.1
		mk(evo.AlgorithmES, es, 0, 0.99, 2, true, false),      // 0.495
	}
}

func TestAnalyze(t *testing.T) {
	results := sampleResults()

	ga := Analyze(results, evo.AlgorithmGA)
	assert.Equal(t, 4, ga.TotalRuns)
	assert.Equal(t, 2, ga.ParamGroups)
	assert.InDelta(t, 0.85, ga.AvgScore, 1e-9)
	assert.Equal(t, 0.5, ga.ConvergenceRate)
	assert.Equal(t, 0.25, ga.TimeoutRate)
	require.NotNil(t, ga.BestRun)
	assert.Same(t, results[2], ga.BestRun)
	assert.InDelta(t, 1.0, ga.BestGroupScore, 1e-9)
	assert.Equal(t, 500.0, ga.BestGroup.Get("pop_size"))

	es := Analyze(results, evo.AlgorithmES)
	assert.Equal(t, 1, es.TotalRuns)
	assert.Equal(t, 1.0, es.ConvergenceRate)
	assert.InDelta(t, 0.495, es.BestGroupScore, 1e-9)

	empty := Analyze(nil, evo.AlgorithmGA)
	assert.Equal(t, 0, empty.TotalRuns)
	assert.Equal(t, 0.0, empty.AvgScore)
	assert.Equal(t, 0.0, empty.ConvergenceRate)
	assert.Nil(t, empty.BestRun)
	assert.Nil(t, empty.BestGroup)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{
		"algorithm", "run_id", "max_fitness", "execution_time", "score",
		"converged", "generations", "timeout_reached",
		"lambda", "mu", "mutation_rate", "pop_size", "sigma",
	}, rows[0])
	assert.Equal(t, []string{"GA", "0", "0.500000", "1.000000", "0.500000", "false", "0", "false", "0", "0", "0.001", "50", "0"}, rows[1])
	assert.Equal(t, "ES", rows[5][0])
	assert.Equal(t, "50", rows[5][8])
}

func TestWriteSummary(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, Analyze(results, evo.AlgorithmGA), Analyze(results, evo.AlgorithmES)))

	out := buf.String()
	assert.Contains(t, out, "PARAMETER TUNING SUMMARY")
	assert.Contains(t, out, "--- GA Results ---")
	assert.Contains(t, out, "--- ES Results ---")
	assert.Contains(t, out, "Population size: 500")
	assert.Contains(t, out, "Mu: 25, Lambda: 50")
	assert.True(t, strings.Contains(out, "GA performs better on average"))
}
