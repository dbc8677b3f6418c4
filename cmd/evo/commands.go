package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/baldhumanity/evo-go/chart"
	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/evo/benchmark"
	"github.com/baldhumanity/evo-go/tuning"
	"github.com/baldhumanity/evo-go/tuning/store"
)

var runFlags = []cli.Flag{
	&cli.Uint64Flag{
		Name:  "seed",
		Usage: "Random seed, overrides the config file",
	},
	&cli.IntFlag{
		Name:  "workers",
		Usage: "Parallel fitness evaluations, overrides the config file",
	},
	&cli.StringFlag{
		Name:  "trace",
		Usage: "Write one trace line per generation to this file (\"-\" for stdout)",
	},
	&cli.StringFlag{
		Name:  "chart",
		Usage: "Render an HTML fitness chart to this file",
	},
	&cli.StringFlag{
		Name:  "checkpoint",
		Usage: "Save checkpoints to this file",
	},
	&cli.IntFlag{
		Name:  "checkpoint-every",
		Usage: "Save a checkpoint every n generations",
		Value: 10,
	},
	&cli.StringFlag{
		Name:  "resume",
		Usage: "Resume from a checkpoint file",
	},
	&cli.StringFlag{
		Name:  "monitor",
		Usage: "Serve live runtime charts on this address while running",
	},
}

var storeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "driver",
		Usage:   "Result store: sqlite, badger or inmem",
		EnvVars: []string{"EVO_STORE_DRIVER"},
	},
	&cli.StringFlag{
		Name:    "path",
		Usage:   "Directory of the result store",
		EnvVars: []string{"EVO_STORE_PATH"},
	},
	&cli.StringFlag{
		Name:  "out",
		Usage: "Write all results as CSV to this file",
	},
}

var gaCmd = &cli.Command{
	Name:   "ga",
	Usage:  "Run the simple genetic algorithm",
	Flags:  runFlags,
	Action: runGA,
}

var esCmd = &cli.Command{
	Name:   "es",
	Usage:  "Run the (mu, lambda) evolution strategy",
	Flags:  runFlags,
	Action: runES,
}

var tuneCmd = &cli.Command{
	Name:  "tune",
	Usage: "Sweep the GA and ES parameter grids and store the results",
	Flags: append([]cli.Flag{
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Base seed, overrides the config file",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent runs, overrides the config file",
		},
		&cli.StringFlag{
			Name:  "algorithm",
			Usage: "Which grids to sweep: ga, es or both",
			Value: "both",
		},
	}, storeFlags...),
	Action: runTune,
}

var analyzeCmd = &cli.Command{
	Name:   "analyze",
	Usage:  "Summarise stored tuning results",
	Flags:  storeFlags,
	Action: runAnalyze,
}

// session wires the reporters and outputs shared by the ga and es commands.
type session struct {
	log     *zap.Logger
	history *evo.History
	trace   *evo.TraceReporter
	opts    []evo.Option
	closers []func() error
}

func newSession(ctx *cli.Context, log *zap.Logger) (*session, error) {
	s := &session{log: log, history: &evo.History{}}
	s.opts = []evo.Option{
		evo.WithLogger(log),
		evo.WithReporter(evo.NewLogReporter(log)),
		evo.WithReporter(s.history),
	}

	if path := ctx.String("trace"); path != "" {
		var w io.Writer = os.Stdout
		if path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return nil, fmt.Errorf("failed to create trace file '%s': %w", path, err)
			}
			s.closers = append(s.closers, f.Close)
			w = f
		}
		s.trace = evo.NewTraceReporter(w)
		s.opts = append(s.opts, evo.WithReporter(s.trace))
	}

	if path := ctx.String("checkpoint"); path != "" {
		s.opts = append(s.opts, evo.WithCheckpoint(path, ctx.Int("checkpoint-every")))
	}

	if addr := ctx.String("monitor"); addr != "" {
		stop := chart.LaunchMonitor(addr, log)
		s.closers = append(s.closers, func() error {
			stop()
			return nil
		})
	}
	return s, nil
}

// finish renders the chart and reports trace write failures.
func (s *session) finish(ctx *cli.Context, title string) error {
	var errs []error
	if s.trace != nil {
		errs = append(errs, s.trace.Err())
	}
	if path := ctx.String("chart"); path != "" && s.history.Len() > 0 {
		if err := chart.RenderFile(path, title, s.history); err != nil {
			errs = append(errs, err)
		} else {
			s.log.Info("chart written", zap.String("path", path))
		}
	}
	for _, closer := range s.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}

func resolveProblem(config *evo.Config, dims int) (*benchmark.Problem, error) {
	problem, err := benchmark.Lookup(config.Run.Problem, dims)
	if err != nil {
		return nil, err
	}
	problem = problem.WithRange(config.Run.RangeMin, config.Run.RangeMax)
	return problem.WithNoise(config.Run.NoiseStdDev, config.Run.NoiseSamples, config.Run.Seed)
}

func title(config *evo.Config, alg evo.Algorithm, problem *benchmark.Problem) string {
	if config.Run.Label != "" {
		return config.Run.Label
	}
	return fmt.Sprintf("%s %s", alg, problem.Name)
}

// interruptible cancels the returned context on SIGINT or SIGTERM so a run
// stops between generations and still reports its partial result.
func interruptible(ctx *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
}

func runGA(ctx *cli.Context) error {
	log := zap.L().With(zap.String("command", "ga"))

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	problem, err := resolveProblem(config, config.Run.Dims)
	if err != nil {
		return err
	}
	fitness, err := problem.BitFitness(config.GA.MemSize)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, log)
	if err != nil {
		return err
	}

	var ga *evo.GA
	if path := ctx.String("resume"); path != "" {
		ga, err = evo.LoadGACheckpoint(path, fitness, s.opts...)
	} else {
		ga, err = evo.NewGA(config.GA, fitness, config.Run.Seed, s.opts...)
	}
	if err != nil {
		return errors.Join(err, s.finish(ctx, ""))
	}

	runCtx, stop := interruptible(ctx)
	defer stop()

	result, runErr := ga.Run(runCtx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return errors.Join(runErr, s.finish(ctx, ""))
	}
	if path := ctx.String("checkpoint"); path != "" {
		if err := ga.SaveCheckpoint(path); err != nil {
			log.Warn("failed to save final checkpoint", zap.Error(err))
		}
	}

	fmt.Printf("converged=%t generations=%d evaluations=%d best_fitness=%.6f\n",
		result.Converged, result.Generations, result.Evaluations, result.BestFitness)
	fmt.Printf("best: %s\n", result.Best)
	if dec, ok := fitness.(evo.Decoder); ok && result.Best != "" {
		x, err := dec.Decode(result.Best)
		if err == nil {
			fmt.Printf("decoded: %s\n", formatVector(x))
			if d := problem.NearestOptimum(x); !math.IsInf(d, 1) {
				fmt.Printf("distance to nearest optimum: %.6f\n", d)
			}
		}
	}

	return s.finish(ctx, title(config, evo.AlgorithmGA, problem))
}

func runES(ctx *cli.Context) error {
	log := zap.L().With(zap.String("command", "es"))

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	problem, err := resolveProblem(config, config.ES.Dims)
	if err != nil {
		return err
	}
	esConfig, err := problem.ESConfig(config.ES)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, log)
	if err != nil {
		return err
	}

	var es *evo.ES
	if path := ctx.String("resume"); path != "" {
		es, err = evo.LoadESCheckpoint(path, problem.Objective, s.opts...)
	} else {
		es, err = evo.NewES(esConfig, problem.Objective, config.Run.Seed, s.opts...)
	}
	if err != nil {
		return errors.Join(err, s.finish(ctx, ""))
	}

	runCtx, stop := interruptible(ctx)
	defer stop()

	result, runErr := es.Run(runCtx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return errors.Join(runErr, s.finish(ctx, ""))
	}
	if path := ctx.String("checkpoint"); path != "" {
		if err := es.SaveCheckpoint(path); err != nil {
			log.Warn("failed to save final checkpoint", zap.Error(err))
		}
	}

	fmt.Printf("converged=%t generations=%d evaluations=%d best_fitness=%.6f\n",
		result.Converged, result.Generations, result.Evaluations, result.BestFitness)
	fmt.Printf("best: %s sigma=%.6f\n", formatVector(result.Best.Genes), result.Best.Sigma)
	if d := problem.NearestOptimum(result.Best.Genes); !math.IsInf(d, 1) {
		fmt.Printf("distance to nearest optimum: %.6f\n", d)
	}

	return s.finish(ctx, title(config, evo.AlgorithmES, problem))
}

func openStore(ctx *cli.Context, config *evo.Config) (store.Repository, error) {
	name := config.Tuning.Driver
	if ctx.IsSet("driver") {
		name = ctx.String("driver")
	}
	driver, err := store.ParseDriver(name)
	if err != nil {
		return nil, err
	}

	path := config.Tuning.Path
	if ctx.IsSet("path") {
		path = ctx.String("path")
	}

	repo, err := store.NewRepository(store.Config{Driver: driver, Path: path})
	if err != nil {
		zap.L().Error(err.Error(),
			zap.String("infra", "persistence"),
			zap.String("driver", driver.String()),
		)
		return nil, err
	}
	return repo, nil
}

func runTune(ctx *cli.Context) error {
	log := zap.L().With(zap.String("command", "tune"))

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("seed") {
		config.Tuning.BaseSeed = ctx.Uint64("seed")
	}
	problem, err := benchmark.Lookup(config.Run.Problem, config.Tuning.Dims)
	if err != nil {
		return err
	}

	if !problem.IsReal() {
		return fmt.Errorf("tuning needs a real-valued problem, got %s", problem.Name)
	}

	var (
		gaGrid []evo.GAConfig
		esGrid []evo.ESConfig
	)
	switch alg := strings.ToLower(ctx.String("algorithm")); alg {
	case "ga":
		gaGrid = tuning.GAGrid(config.Tuning.Dims, config.Tuning.BitsPerDim)
	case "es":
		esGrid = tuning.ESGrid(config.Tuning.Dims)
	case "both":
		gaGrid = tuning.GAGrid(config.Tuning.Dims, config.Tuning.BitsPerDim)
		esGrid = tuning.ESGrid(config.Tuning.Dims)
	default:
		return fmt.Errorf("unknown algorithm %q", alg)
	}
	repo, err := openStore(ctx, config)
	if err != nil {
		return err
	}
	defer repo.Close()

	runner, err := tuning.NewRunner(config.Tuning, problem, log)
	if err != nil {
		return err
	}
	jobs := runner.Jobs(gaGrid, esGrid)
	log.Info("tuning started",
		zap.String("problem", problem.Name),
		zap.Int("dims", problem.Dims),
		zap.Int("jobs", len(jobs)),
		zap.Duration("timeout", config.Tuning.Timeout),
	)

	runCtx, stop := interruptible(ctx)
	defer stop()

	results, err := runner.RunAll(runCtx, jobs, func(r *tuning.Result) error {
		return repo.Store(r)
	})
	if err != nil {
		// Interrupted: report the runs that finished and were stored
		if !errors.Is(err, context.Canceled) || runCtx.Err() == nil {
			return err
		}
		log.Warn("tuning interrupted", zap.Int("finished", len(results)), zap.Int("jobs", len(jobs)))
		if len(results) == 0 {
			return nil
		}
	}

	return report(ctx, results)
}

func runAnalyze(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	repo, err := openStore(ctx, config)
	if err != nil {
		return err
	}
	defer repo.Close()

	results, err := repo.List("")
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no tuning results stored")
	}
	return report(ctx, results)
}

func report(ctx *cli.Context, results []*tuning.Result) error {
	if path := ctx.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create results file '%s': %w", path, err)
		}
		if err := tuning.WriteCSV(f, results); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		zap.L().Info("results written", zap.String("path", path), zap.Int("results", len(results)))
	}

	ga := tuning.Analyze(results, evo.AlgorithmGA)
	es := tuning.Analyze(results, evo.AlgorithmES)
	return tuning.WriteSummary(os.Stdout, ga, es)
}

func formatVector(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
