package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/evo-go/evo"
)

func history(alg evo.Algorithm, n int) *evo.History {
	h := &evo.History{}
	for i := range n {
		h.ReportGeneration(evo.GenerationStats{
			Algorithm:   alg,
			Generation:  i,
			MaxFitness:  float64(i+1) / float64(n),
			MeanFitness: float64(i+1) / float64(2*n),
			Diversity:   1.0 / float64(i+1),
			MeanSigma:   0.5,
		})
	}
	return h
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "MaxOnes GA", history(evo.AlgorithmGA, 5).Stats()))

	out := buf.String()
	assert.Contains(t, out, "MaxOnes GA")
	assert.Contains(t, out, "max fitness")
	assert.Contains(t, out, "diversity")
	assert.NotContains(t, out, "mean sigma")

	buf.Reset()
	require.NoError(t, Render(&buf, "Himmelblau ES", history(evo.AlgorithmES, 3).Stats()))
	assert.Contains(t, buf.String(), "mean sigma")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, "empty", nil))
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")
	require.NoError(t, RenderFile(path, "run", history(evo.AlgorithmGA, 4)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<html>")
}
