package evo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 5.0, Mean(values))
	assert.InDelta(t, 2.138, Stdev(values), 1e-3)
	assert.Equal(t, 40.0, Sum(values))
	assert.Equal(t, 9.0, MaxFloat(values))
	assert.Equal(t, 2.0, MinFloat(values))
	assert.Equal(t, 4.5, Median(values))
	assert.Equal(t, 5.0, Median([]float64{9, 5, 1}))

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Stdev([]float64{1}))
	assert.True(t, math.IsInf(MaxFloat(nil), -1))
	assert.True(t, math.IsInf(MinFloat(nil), 1))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, 1, ArgMax([]float64{1, 3, 3, 2}))
}

func TestPctIdentical(t *testing.T) {
	assert.Equal(t, 0.0, PctIdentical(nil))
	assert.Equal(t, 0.0, PctIdentical([]Bitstring{"00", "01", "10"}))
	assert.Equal(t, 1.0, PctIdentical([]Bitstring{"11", "11", "11"}))
	// Two copies of "00", one unique "01" and "10"
	assert.Equal(t, 0.5, PctIdentical([]Bitstring{"00", "00", "01", "10"}))
}

func TestDiversity(t *testing.T) {
	assert.Equal(t, 0.0, Diversity(nil))
	assert.Equal(t, 0.0, Diversity([][]float64{{1, 1}}))

	points := [][]float64{{0, 0}, {3, 4}, {1, 1}}
	assert.Equal(t, 5.0, Diversity(points))
}
