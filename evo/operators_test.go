package evo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	s, err := ParseSelection("")
	require.NoError(t, err)
	assert.Equal(t, Tournament, s)

	s, err = ParseSelection(" Roulette ")
	require.NoError(t, err)
	assert.Equal(t, Roulette, s)
	assert.Equal(t, "roulette", s.String())

	_, err = ParseSelection("fittest")
	assert.Error(t, err)
}

func TestMutate(t *testing.T) {
	rng := NewRand(1)
	b := Bitstring("0000111100001111")

	assert.Equal(t, b, Mutate(b, 0, rng))
	assert.Equal(t, Bitstring("1111000011110000"), Mutate(b, 1, rng))

	// About half the bits flip at rate 0.5
	long := Bitstring(strings.Repeat("0", 10000))
	ones := Mutate(long, 0.5, rng).Ones()
	assert.InDelta(t, 5000, ones, 300)
	assert.Equal(t, strings.Repeat("0", 10000), string(long), "input must be unchanged")
}

func TestCrossover(t *testing.T) {
	rng := NewRand(2)
	a := Bitstring("00000000")
	b := Bitstring("11111111")

	for range 100 {
		c1, c2, err := Crossover(a, b, 1, rng)
		require.NoError(t, err)
		require.Len(t, c1, 8)
		require.Len(t, c2, 8)

		// Children are complementary at every position and both mix parents
		for i := range c1 {
			assert.NotEqual(t, c1[i], c2[i])
		}
		assert.Equal(t, byte('0'), c1[0])
		assert.Equal(t, byte('1'), c1[7])
		assert.Equal(t, c1.Ones()+c2.Ones(), 8)
	}

	c1, c2, err := Crossover(a, b, 0, rng)
	require.NoError(t, err)
	assert.Equal(t, a, c1)
	assert.Equal(t, b, c2)

	_, _, err = Crossover(a, "111", 1, rng)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	// One bit parents cannot be cut
	c1, c2, err = Crossover("0", "1", 1, rng)
	require.NoError(t, err)
	assert.Equal(t, Bitstring("0"), c1)
	assert.Equal(t, Bitstring("1"), c2)
}

func TestRouletteSelect(t *testing.T) {
	rng := NewRand(3)

	fitnesses := []float64{0, 1, 0, 3, 0}
	counts := make([]int, len(fitnesses))
	for range 4000 {
		counts[RouletteSelect(fitnesses, rng)]++
	}
	assert.Zero(t, counts[0])
	assert.Zero(t, counts[2])
	assert.Zero(t, counts[4])
	assert.InDelta(t, 1000, counts[1], 150)
	assert.InDelta(t, 3000, counts[3], 150)

	// All zero: uniform
	zero := []float64{0, 0, 0, 0}
	seen := map[int]bool{}
	for range 200 {
		seen[RouletteSelect(zero, rng)] = true
	}
	assert.Len(t, seen, 4)
}

func TestTournamentSelect(t *testing.T) {
	rng := NewRand(4)
	fitnesses := []float64{0.1, 0.9, 0.5, 0.3}

	// A tournament as large as the population almost always finds the best
	wins := 0
	for range 1000 {
		if TournamentSelect(fitnesses, 100, rng) == 1 {
			wins++
		}
	}
	assert.Equal(t, 1000, wins)

	// Size one is uniform
	seen := map[int]bool{}
	for range 200 {
		seen[TournamentSelect(fitnesses, 1, rng)] = true
	}
	assert.Len(t, seen, 4)

	// Ties keep the first draw
	tied := []float64{0.5, 0.5}
	for range 50 {
		idx := TournamentSelect(tied, 2, rng)
		assert.Contains(t, []int{0, 1}, idx)
	}
}

func TestPickDistinctPair(t *testing.T) {
	rng := NewRand(5)
	for range 500 {
		i, j := pickDistinctPair(3, rng)
		assert.NotEqual(t, i, j)
		assert.Less(t, i, 3)
		assert.Less(t, j, 3)
	}

	i, j := pickDistinctPair(1, rng)
	assert.Equal(t, 0, i)
	assert.Equal(t, 0, j)
}
