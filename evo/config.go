package evo

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for a run.
type Config struct {
	Run    RunConfig    `yaml:"run"`
	GA     GAConfig     `yaml:"ga"`
	ES     ESConfig     `yaml:"es"`
	Tuning TuningConfig `yaml:"tuning"`
}

// RunConfig holds parameters shared by both algorithms.
type RunConfig struct {
	Problem  string  `ini:"problem" yaml:"problem"` // maxones, rosenbrock, himmelblau
	Label    string  `ini:"label" yaml:"label"`     // Prefix of trace lines, e.g. "Dejong Rosenbrock"
	Dims     int     `ini:"dims" yaml:"dims"`
	Seed     uint64  `ini:"seed" yaml:"seed"`
	RangeMin float64 `ini:"range_min" yaml:"range_min"` // Both zero: use the problem's default range
	RangeMax float64 `ini:"range_max" yaml:"range_max"`
	Workers  int     `ini:"workers" yaml:"workers"` // Parallel fitness evaluations

	NoiseStdDev  float64 `ini:"noise_stddev" yaml:"noise_stddev"`   // Gaussian fitness noise, 0 disables it
	NoiseSamples int     `ini:"noise_samples" yaml:"noise_samples"` // Noisy draws averaged per evaluation
}

// GAConfig holds parameters of the simple genetic algorithm.
type GAConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"`
	MemSize              int     `ini:"mem_size" yaml:"mem_size"` // Bits per member
	MutationRate         float64 `ini:"mutation_rate" yaml:"mutation_rate"`
	CrossoverRate        float64 `ini:"crossover_rate" yaml:"crossover_rate"`
	MaxIters             int     `ini:"max_iters" yaml:"max_iters"`
	ConvergenceThreshold float64 `ini:"convergence_threshold" yaml:"convergence_threshold"`
	Selection            string  `ini:"selection" yaml:"selection"` // tournament or roulette
	TournamentSize       int     `ini:"tournament_size" yaml:"tournament_size"`
	Label                string  `ini:"label" yaml:"label"`
	Workers              int     `ini:"workers" yaml:"workers"`

	selection Selection
}

// ESConfig holds parameters of the (mu, lambda) evolution strategy.
type ESConfig struct {
	Mu                   int     `ini:"mu" yaml:"mu"`
	Lambda               int     `ini:"lambda" yaml:"lambda"`
	Dims                 int     `ini:"dims" yaml:"dims"`
	RangeMin             float64 `ini:"range_min" yaml:"range_min"`
	RangeMax             float64 `ini:"range_max" yaml:"range_max"`
	Sigma                float64 `ini:"sigma" yaml:"sigma"`
	Tau                  float64 `ini:"tau" yaml:"tau"` // Zero: 1/sqrt(2*dims)
	MaxGens              int     `ini:"max_gens" yaml:"max_gens"`
	ConvergenceThreshold float64 `ini:"convergence_threshold" yaml:"convergence_threshold"`
	Label                string  `ini:"label" yaml:"label"`
	Workers              int     `ini:"workers" yaml:"workers"`
}

// TuningConfig holds parameters of a parameter tuning sweep.
type TuningConfig struct {
	NumRuns    int           `ini:"num_runs" yaml:"num_runs"`
	Timeout    time.Duration `ini:"timeout" yaml:"timeout"`
	Dims       int           `ini:"num_dimensions" yaml:"num_dimensions"`
	BitsPerDim int           `ini:"bits_per_dimension" yaml:"bits_per_dimension"`
	BaseSeed   uint64        `ini:"base_seed" yaml:"base_seed"`
	Workers    int           `ini:"workers" yaml:"workers"` // Concurrent runs
	Driver     string        `ini:"driver" yaml:"driver"`   // Result store: sqlite, badger or inmem
	Path       string        `ini:"path" yaml:"path"`
}

// DefaultConfig returns the values used when a config file leaves a key out.
func DefaultConfig() *Config {
	config := &Config{}
	config.setDefaults()
	return config
}

// LoadConfig loads configuration parameters from an INI file, or from YAML
// when the file name ends in .yaml or .yml.
func LoadConfig(filePath string) (*Config, error) {
	config := &Config{}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := loadYAML(filePath, config); err != nil {
			return nil, err
		}
	default:
		if err := loadINI(filePath, config); err != nil {
			return nil, err
		}
	}

	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string, config *Config) error {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Map sections to structs
	if err := cfg.Section("Run").MapTo(&config.Run); err != nil {
		return fmt.Errorf("failed to map [Run] section: %w", err)
	}
	if err := cfg.Section("GA").MapTo(&config.GA); err != nil {
		return fmt.Errorf("failed to map [GA] section: %w", err)
	}
	if err := cfg.Section("ES").MapTo(&config.ES); err != nil {
		return fmt.Errorf("failed to map [ES] section: %w", err)
	}
	if err := cfg.Section("Tuning").MapTo(&config.Tuning); err != nil {
		return fmt.Errorf("failed to map [Tuning] section: %w", err)
	}
	return nil
}

func loadYAML(filePath string, config *Config) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// ${VAR} references are replaced from the environment before decoding
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return fmt.Errorf("failed to decode config file '%s': %w", filePath, err)
	}
	return nil
}

// setDefaults fills in values a config file did not set.
// The run section is inherited by the algorithm sections.
func (config *Config) setDefaults() {
	run := &config.Run
	run.Problem = strings.ToLower(strings.TrimSpace(run.Problem))
	if run.Problem == "" {
		run.Problem = "rosenbrock"
	}
	if run.Dims == 0 {
		run.Dims = 2
	}
	if run.Workers == 0 {
		run.Workers = 1
	}
	if run.NoiseSamples == 0 {
		run.NoiseSamples = 1
	}

	ga := &config.GA
	if ga.PopSize == 0 {
		ga.PopSize = 100
	}
	if ga.MemSize == 0 {
		ga.MemSize = 16 * run.Dims
	}
	if ga.MaxIters == 0 {
		ga.MaxIters = 1000
	}
	if ga.ConvergenceThreshold == 0 {
		ga.ConvergenceThreshold = 0.95
	}
	if ga.Selection == "" {
		ga.Selection = Tournament.String()
	}
	if ga.TournamentSize == 0 {
		ga.TournamentSize = 3
	}
	if ga.Label == "" {
		ga.Label = run.Label
	}
	if ga.Workers == 0 {
		ga.Workers = run.Workers
	}

	es := &config.ES
	if es.Dims == 0 {
		es.Dims = run.Dims
	}
	if es.RangeMin == 0 && es.RangeMax == 0 {
		es.RangeMin, es.RangeMax = run.RangeMin, run.RangeMax
	}
	if es.Mu == 0 {
		es.Mu = 15
	}
	if es.Lambda == 0 {
		es.Lambda = 100
	}
	if es.Sigma == 0 {
		es.Sigma = 1.0
	}
	if es.Tau == 0 {
		es.Tau = DefaultTau(es.Dims)
	}
	if es.MaxGens == 0 {
		es.MaxGens = 1000
	}
	if es.ConvergenceThreshold == 0 {
		es.ConvergenceThreshold = 0.99
	}
	if es.Label == "" {
		es.Label = run.Label
	}
	if es.Workers == 0 {
		es.Workers = run.Workers
	}

	tuning := &config.Tuning
	if tuning.NumRuns == 0 {
		tuning.NumRuns = 5
	}
	if tuning.Timeout == 0 {
		tuning.Timeout = 60 * time.Second
	}
	if tuning.Dims == 0 {
		tuning.Dims = 10
	}
	if tuning.BitsPerDim == 0 {
		tuning.BitsPerDim = 16
	}
	if tuning.BaseSeed == 0 {
		tuning.BaseSeed = 5000
	}
	if tuning.Workers == 0 {
		tuning.Workers = 1
	}
	if tuning.Driver == "" {
		tuning.Driver = "inmem"
	}
}

// DefaultTau is the customary learning rate 1/sqrt(2n) for n object variables.
func DefaultTau(dims int) float64 {
	if dims < 1 {
		dims = 1
	}
	return 1.0 / math.Sqrt(2.0*float64(dims))
}

// Validate checks every section and reports all problems found.
func (config *Config) Validate() error {
	var errs []error
	if config.Run.Dims < 1 {
		errs = append(errs, fmt.Errorf("config error: dims must be positive"))
	}
	if config.Run.RangeMax < config.Run.RangeMin {
		errs = append(errs, fmt.Errorf("config error: range_max cannot be less than range_min"))
	}
	if config.Run.NoiseStdDev < 0 {
		errs = append(errs, fmt.Errorf("config error: noise_stddev cannot be negative"))
	}
	if config.Run.NoiseSamples < 1 {
		errs = append(errs, fmt.Errorf("config error: noise_samples must be positive"))
	}
	if err := config.GA.Validate(); err != nil {
		errs = append(errs, err)
	}
	// An unset ES range is resolved from the problem once it is known
	es := config.ES
	if es.RangeMin == 0 && es.RangeMax == 0 {
		es.RangeMin, es.RangeMax = -1, 1
	}
	if err := es.Validate(); err != nil {
		errs = append(errs, err)
	}
	if config.Tuning.NumRuns < 1 {
		errs = append(errs, fmt.Errorf("config error: num_runs must be positive"))
	}
	if config.Tuning.Timeout < 0 {
		errs = append(errs, fmt.Errorf("config error: timeout cannot be negative"))
	}
	return errors.Join(errs...)
}

// Validate checks the GA parameters.
func (c *GAConfig) Validate() error {
	if c.PopSize < 2 {
		return fmt.Errorf("config error: pop_size must be at least 2")
	}
	if c.MemSize < 2 {
		return fmt.Errorf("config error: mem_size must be at least 2")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("config error: mutation_rate must be between 0 and 1")
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("config error: crossover_rate must be between 0 and 1")
	}
	if c.MaxIters < 1 {
		return fmt.Errorf("config error: max_iters must be positive")
	}
	if c.ConvergenceThreshold <= 0 || c.ConvergenceThreshold > 1 {
		return fmt.Errorf("config error: convergence_threshold must be in (0, 1]")
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("config error: tournament_size must be positive")
	}
	selection, err := ParseSelection(c.Selection)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	c.selection = selection
	return nil
}

// Validate checks the ES parameters.
func (c *ESConfig) Validate() error {
	if c.Mu < 1 {
		return fmt.Errorf("config error: mu must be positive")
	}
	if c.Lambda < c.Mu {
		return fmt.Errorf("config error: lambda (%d) must be at least mu (%d)", c.Lambda, c.Mu)
	}
	if c.Dims < 1 {
		return fmt.Errorf("config error: dims must be positive")
	}
	if !(c.RangeMin < c.RangeMax) {
		return fmt.Errorf("config error: range_min (%g) must be below range_max (%g)", c.RangeMin, c.RangeMax)
	}
	if c.Sigma <= 0 {
		return fmt.Errorf("config error: sigma must be positive")
	}
	if c.Tau < 0 {
		return fmt.Errorf("config error: tau cannot be negative")
	}
	if c.MaxGens < 1 {
		return fmt.Errorf("config error: max_gens must be positive")
	}
	if c.ConvergenceThreshold <= 0 {
		return fmt.Errorf("config error: convergence_threshold must be positive")
	}
	return nil
}
