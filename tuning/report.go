package tuning

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/baldhumanity/evo-go/evo"
)

var csvHeader = []string{
	"algorithm", "run_id", "max_fitness", "execution_time", "score",
	"converged", "generations", "timeout_reached",
}

// WriteCSV writes one row per result. The parameter columns are the sorted
// union of all parameter names; a parameter a result lacks is written as 0.
func WriteCSV(w io.Writer, results []*Result) error {
	var names []string
	for _, r := range results {
		for _, name := range r.Parameters.Names() {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)

	cw := csv.NewWriter(w)
	if err := cw.Write(append(slices.Clone(csvHeader), names...)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			string(r.Algorithm),
			strconv.Itoa(r.RunID),
			strconv.FormatFloat(r.MaxFitness, 'f', 6, 64),
			strconv.FormatFloat(r.ExecutionTime, 'f', 6, 64),
			strconv.FormatFloat(r.Score, 'f', 6, 64),
			strconv.FormatBool(r.Converged),
			strconv.Itoa(r.Generations),
			strconv.FormatBool(r.TimeoutReached),
		}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(r.Parameters.Get(name), 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes a human readable report of both analyses followed by
// a comparison of their best average scores.
func WriteSummary(w io.Writer, ga, es Analysis) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "\n%s\nPARAMETER TUNING SUMMARY\n%s\n", rule, rule)
	writeAnalysis(&b, ga)
	writeAnalysis(&b, es)

	b.WriteString("\n--- Algorithm Comparison ---\n")
	if ga.BestGroupScore > es.BestGroupScore {
		fmt.Fprintf(&b, "GA performs better on average\nGA avg score: %.6f vs ES avg score: %.6f\n",
			ga.BestGroupScore, es.BestGroupScore)
	} else {
		fmt.Fprintf(&b, "ES performs better on average\nES avg score: %.6f vs GA avg score: %.6f\n",
			es.BestGroupScore, ga.BestGroupScore)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAnalysis(b *strings.Builder, a Analysis) {
	fmt.Fprintf(b, "\n--- %s Results ---\n", a.Algorithm)
	fmt.Fprintf(b, "Total runs: %d\n", a.TotalRuns)
	fmt.Fprintf(b, "Average score: %.6f (stdev %.6f)\n", a.AvgScore, a.ScoreStdev)
	fmt.Fprintf(b, "Median max fitness: %.6f\n", a.MedianFitness)
	fmt.Fprintf(b, "Convergence rate: %.2f%%\n", a.ConvergenceRate*100)
	fmt.Fprintf(b, "Timeout rate: %.2f%%\n", a.TimeoutRate*100)
	fmt.Fprintf(b, "Parameter combinations tested: %d\n", a.ParamGroups)

	if a.BestRun != nil {
		b.WriteString("\nBest single run parameters:\n")
		writeParams(b, a.Algorithm, a.BestRun.Parameters)
		fmt.Fprintf(b, "  Score: %.6f\n", a.BestRun.Score)
	}
	if a.BestGroup != nil {
		b.WriteString("\nBest average parameters:\n")
		writeParams(b, a.Algorithm, a.BestGroup)
		fmt.Fprintf(b, "  Average score: %.6f\n", a.BestGroupScore)
	}
}

func writeParams(b *strings.Builder, algorithm evo.Algorithm, p Params) {
	if algorithm == evo.AlgorithmES {
		fmt.Fprintf(b, "  Mu: %g, Lambda: %g\n", p.Get("mu"), p.Get("lambda"))
		fmt.Fprintf(b, "  Sigma: %.3f\n", p.Get("sigma"))
		return
	}
	fmt.Fprintf(b, "  Population size: %g\n", p.Get("pop_size"))
	fmt.Fprintf(b, "  Mutation rate: %.3f\n", p.Get("mutation_rate"))
}
