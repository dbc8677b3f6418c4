package evo

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// --- Statistical Functions ---

// Mean calculates the average of a slice of float64 values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return stat.Mean(values, nil)
}

// Stdev calculates the sample standard deviation of a slice of float64 values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0 // Undefined for less than 2 values
	}
	return stat.StdDev(values, nil)
}

// Sum calculates the sum of a slice of float64 values.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// MaxFloat returns the maximum value, or negative infinity if the slice is empty.
func MaxFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(values)
}

// MinFloat returns the minimum value, or positive infinity if the slice is empty.
func MinFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	return floats.Min(values)
}

// Median calculates the median of a slice of float64 values.
// Returns NaN if the slice is empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}

// ArgMax returns the index of the largest value; the first one wins ties.
// Returns -1 for an empty slice.
func ArgMax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}

// --- Population Measures ---

// PctIdentical is the fraction of members that share their genome with at
// least one other member.
func PctIdentical(population []Bitstring) float64 {
	if len(population) == 0 {
		return 0.0
	}
	counts := make(map[Bitstring]int, len(population))
	for _, m := range population {
		counts[m]++
	}
	unique := 0
	for _, c := range counts {
		if c == 1 {
			unique++
		}
	}
	return float64(len(population)-unique) / float64(len(population))
}

// Diversity is the largest Euclidean distance between any two points.
func Diversity(points [][]float64) float64 {
	diversity := 0.0
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if d := floats.Distance(points[i], points[j], 2); d > diversity {
				diversity = d
			}
		}
	}
	return diversity
}
