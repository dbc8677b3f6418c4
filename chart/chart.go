// Package chart renders run histories as HTML line charts.
package chart

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/baldhumanity/evo-go/evo"
)

// Render writes a line chart of max fitness, mean fitness and diversity per
// generation. The ES chart also shows the mean step size.
func Render(w io.Writer, title string, stats []evo.GenerationStats) error {
	if len(stats) == 0 {
		return fmt.Errorf("chart: no generations to render")
	}

	generations := make([]int, len(stats))
	maxFitness := make([]opts.LineData, len(stats))
	meanFitness := make([]opts.LineData, len(stats))
	diversity := make([]opts.LineData, len(stats))
	sigma := make([]opts.LineData, len(stats))
	for i, s := range stats {
		generations[i] = s.Generation
		maxFitness[i] = opts.LineData{Value: s.MaxFitness}
		meanFitness[i] = opts.LineData{Value: s.MeanFitness}
		diversity[i] = opts.LineData{Value: s.Diversity}
		sigma[i] = opts.LineData{Value: s.MeanSigma}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%s, %d generations", stats[0].Algorithm, len(stats)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "generation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "fitness"}),
	)
	line.SetXAxis(generations).
		AddSeries("max fitness", maxFitness).
		AddSeries("mean fitness", meanFitness).
		AddSeries("diversity", diversity)
	if stats[0].Algorithm == evo.AlgorithmES {
		line.AddSeries("mean sigma", sigma)
	}

	return line.Render(w)
}

// RenderFile renders h into an HTML file.
func RenderFile(filePath, title string, h *evo.History) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create chart file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := Render(file, title, h.Stats()); err != nil {
		return err
	}
	return file.Close()
}
