package evo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigINI(t *testing.T) {
	config, err := LoadConfig("testdata/config.ini")
	require.NoError(t, err)

	assert.Equal(t, "himmelblau", config.Run.Problem)
	assert.Equal(t, uint64(42), config.Run.Seed)
	assert.Equal(t, 0.05, config.Run.NoiseStdDev)
	assert.Equal(t, 4, config.Run.NoiseSamples)

	assert.Equal(t, 40, config.GA.PopSize)
	assert.Equal(t, 32, config.GA.MemSize)
	assert.Equal(t, 0.05, config.GA.MutationRate)
	assert.Equal(t, "roulette", config.GA.Selection)
	assert.Equal(t, Roulette, config.GA.selection)
	assert.Equal(t, 0.95, config.GA.ConvergenceThreshold)
	assert.Equal(t, "test run", config.GA.Label)
	assert.Equal(t, 2, config.GA.Workers)

	assert.Equal(t, 10, config.ES.Mu)
	assert.Equal(t, 70, config.ES.Lambda)
	assert.Equal(t, 0.5, config.ES.Sigma)
	assert.Equal(t, DefaultTau(2), config.ES.Tau)
	assert.Equal(t, 0.99, config.ES.ConvergenceThreshold)

	assert.Equal(t, 3, config.Tuning.NumRuns)
	assert.Equal(t, 2*time.Second, config.Tuning.Timeout)
	assert.Equal(t, "badger", config.Tuning.Driver)
	assert.Equal(t, 10, config.Tuning.Dims)
}

func TestLoadConfigYAML(t *testing.T) {
	t.Setenv("EVO_TEST_SEED", "1234")

	config, err := LoadConfig("testdata/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "rosenbrock", config.Run.Problem)
	assert.Equal(t, uint64(1234), config.Run.Seed)
	assert.Equal(t, 3, config.ES.Dims)
	assert.Equal(t, -2.0, config.ES.RangeMin)
	assert.Equal(t, 2.0, config.ES.RangeMax)
	assert.Equal(t, 0.3, config.ES.Tau)
	assert.Equal(t, 48, config.GA.MemSize)
	assert.Equal(t, "tournament", config.GA.Selection)
	assert.Equal(t, 90*time.Second, config.Tuning.Timeout)
	assert.Equal(t, 1, config.GA.Workers)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("testdata/missing.ini")
	assert.Error(t, err)

	_, err = LoadConfig("testdata/invalid.ini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pop_size")
	assert.Contains(t, err.Error(), "lambda")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())
	assert.Equal(t, "rosenbrock", config.Run.Problem)
	assert.Equal(t, 32, config.GA.MemSize)
	assert.Equal(t, 15, config.ES.Mu)
	assert.Equal(t, 100, config.ES.Lambda)
	assert.Equal(t, 5, config.Tuning.NumRuns)
	assert.Equal(t, 0.0, config.Run.NoiseStdDev)
	assert.Equal(t, 1, config.Run.NoiseSamples)
	assert.Equal(t, 60*time.Second, config.Tuning.Timeout)
	assert.Equal(t, uint64(5000), config.Tuning.BaseSeed)
}

func TestDefaultTau(t *testing.T) {
	assert.InDelta(t, 0.5, DefaultTau(2), 1e-12)
	assert.InDelta(t, 1/4.47213595499958, DefaultTau(10), 1e-12)
	assert.Equal(t, DefaultTau(1), DefaultTau(0))
}

func TestESConfigValidate(t *testing.T) {
	valid := ESConfig{Mu: 2, Lambda: 4, Dims: 2, RangeMin: -1, RangeMax: 1, Sigma: 1, MaxGens: 1, ConvergenceThreshold: 0.99}
	assert.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(c *ESConfig){
		"mu":     func(c *ESConfig) { c.Mu = 0 },
		"lambda": func(c *ESConfig) { c.Lambda = 1 },
		"dims":   func(c *ESConfig) { c.Dims = 0 },
		"range":  func(c *ESConfig) { c.RangeMin, c.RangeMax = 1, 1 },
		"sigma":  func(c *ESConfig) { c.Sigma = 0 },
		"tau":    func(c *ESConfig) { c.Tau = -1 },
		"gens":   func(c *ESConfig) { c.MaxGens = 0 },
	} {
		c := valid
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
