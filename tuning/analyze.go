package tuning

import (
	"fmt"
	"slices"

	"github.com/baldhumanity/evo-go/evo"
)

// Analysis summarises the results of one algorithm.
type Analysis struct {
	Algorithm       evo.Algorithm
	TotalRuns       int
	AvgScore        float64
	ScoreStdev      float64
	MedianFitness   float64
	ConvergenceRate float64
	TimeoutRate     float64
	ParamGroups     int

	BestRun *Result // Highest scoring single run, nil if no run scored above 0

	// BestGroup holds the parameters of the group with the highest mean score.
	BestGroup      Params
	BestGroupScore float64
}

// Analyze filters results by algorithm and summarises them. Runs are grouped
// by pop_size and mutation_rate for the GA, and by lambda and sigma for the ES.
func Analyze(results []*Result, algorithm evo.Algorithm) Analysis {
	analysis := Analysis{Algorithm: algorithm}

	var (
		scores    []float64
		fitnesses []float64
		converged int
		timedOut  int
		groups    = map[string][]*Result{}
	)
	for _, r := range results {
		if r.Algorithm != algorithm {
			continue
		}
		scores = append(scores, r.Score)
		fitnesses = append(fitnesses, r.MaxFitness)
		if r.Converged {
			converged++
		}
		if r.TimeoutReached {
			timedOut++
		}
		key := groupKey(algorithm, r.Parameters)
		groups[key] = append(groups[key], r)

		if r.Score > 0 && (analysis.BestRun == nil || r.Score > analysis.BestRun.Score) {
			analysis.BestRun = r
		}
	}

	analysis.TotalRuns = len(scores)
	analysis.ParamGroups = len(groups)
	if analysis.TotalRuns == 0 {
		return analysis
	}
	analysis.AvgScore = evo.Mean(scores)
	analysis.ScoreStdev = evo.Stdev(scores)
	analysis.MedianFitness = evo.Median(fitnesses)
	analysis.ConvergenceRate = float64(converged) / float64(analysis.TotalRuns)
	analysis.TimeoutRate = float64(timedOut) / float64(analysis.TotalRuns)

	// Sorted keys keep ties deterministic
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		group := groups[key]
		scores := make([]float64, len(group))
		for i, r := range group {
			scores[i] = r.Score
		}
		if avg := evo.Mean(scores); avg > analysis.BestGroupScore {
			analysis.BestGroupScore = avg
			analysis.BestGroup = group[0].Parameters
		}
	}
	return analysis
}

func groupKey(algorithm evo.Algorithm, p Params) string {
	if algorithm == evo.AlgorithmES {
		return fmt.Sprintf("%g_%.3f", p.Get("lambda"), p.Get("sigma"))
	}
	return fmt.Sprintf("%g_%.3f", p.Get("pop_size"), p.Get("mutation_rate"))
}
