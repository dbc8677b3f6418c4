package evo

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Algorithm identifies which evolutionary algorithm produced a statistic.
type Algorithm string

const (
	AlgorithmGA Algorithm = "GA"
	AlgorithmES Algorithm = "ES"
)

// GenerationStats summarises one generation.
type GenerationStats struct {
	Algorithm Algorithm
	Label     string

	// Parents and Offspring are (pop_size, pop_size) for the GA and
	// (mu, lambda) for the ES. MutationParam is the GA mutation rate or the
	// ES learning rate tau; CrossoverRate is always zero for the ES.
	Parents       int
	Offspring     int
	MutationParam float64
	CrossoverRate float64

	Generation   int
	Evaluations  int
	MaxFitness   float64
	MinFitness   float64
	MeanFitness  float64
	PctIdentical float64
	Diversity    float64
	MeanSigma    float64 // ES only
	Elapsed      time.Duration
}

// Reporter receives generation statistics while an algorithm runs.
type Reporter interface {
	ReportGeneration(stats GenerationStats)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(stats GenerationStats)

// ReportGeneration calls f(stats).
func (f ReporterFunc) ReportGeneration(stats GenerationStats) {
	f(stats)
}

// ReporterSet fans statistics out to several reporters.
type ReporterSet []Reporter

// ReportGeneration implements Reporter.
func (rs ReporterSet) ReportGeneration(stats GenerationStats) {
	for _, r := range rs {
		r.ReportGeneration(stats)
	}
}

// LogReporter logs one structured line per generation.
type LogReporter struct {
	log *zap.Logger
}

// NewLogReporter creates a reporter logging at debug level on log.
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// ReportGeneration implements Reporter.
func (r *LogReporter) ReportGeneration(s GenerationStats) {
	r.log.Debug("generation",
		zap.String("algorithm", string(s.Algorithm)),
		zap.Int("generation", s.Generation),
		zap.Int("evaluations", s.Evaluations),
		zap.Float64("max_fitness", s.MaxFitness),
		zap.Float64("mean_fitness", s.MeanFitness),
		zap.Float64("pct_identical", s.PctIdentical),
		zap.Float64("diversity", s.Diversity),
		zap.Duration("elapsed", s.Elapsed),
	)
}

// TraceReporter writes one whitespace separated line per generation:
//
//	<label> <GA|ES> <parents> <offspring> <mutation> <crossover> <generation> <evaluations> <max> <mean> <diversity>
//
// The format is stable so traces of different runs can be concatenated and
// loaded by plotting scripts.
type TraceReporter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewTraceReporter creates a reporter writing to w.
func NewTraceReporter(w io.Writer) *TraceReporter {
	return &TraceReporter{w: w}
}

// ReportGeneration implements Reporter.
func (r *TraceReporter) ReportGeneration(s GenerationStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, FormatTrace(s)+"\n")
}

// Err returns the first write error, if any.
func (r *TraceReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// FormatTrace renders stats in the TraceReporter line format.
func FormatTrace(s GenerationStats) string {
	fields := []string{
		string(s.Algorithm),
		strconv.Itoa(s.Parents),
		strconv.Itoa(s.Offspring),
		formatFloat(s.MutationParam),
		formatFloat(s.CrossoverRate),
		strconv.Itoa(s.Generation),
		strconv.Itoa(s.Evaluations),
		formatFloat(s.MaxFitness),
		formatFloat(s.MeanFitness),
		formatFloat(s.Diversity),
	}
	if s.Label != "" {
		fields = append([]string{s.Label}, fields...)
	}
	return strings.Join(fields, " ")
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// History records every generation it is sent.
type History struct {
	mu    sync.Mutex
	stats []GenerationStats
}

// ReportGeneration implements Reporter.
func (h *History) ReportGeneration(s GenerationStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats = append(h.stats, s)
}

// Stats returns a copy of the recorded statistics.
func (h *History) Stats() []GenerationStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]GenerationStats, len(h.stats))
	copy(out, h.stats)
	return out
}

// Len returns the number of recorded generations.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stats)
}

func (s GenerationStats) String() string {
	return fmt.Sprintf("%s generation %d: max=%.4f mean=%.4f diversity=%.4f",
		s.Algorithm, s.Generation, s.MaxFitness, s.MeanFitness, s.Diversity)
}
