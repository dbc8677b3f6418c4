package evo

import "go.uber.org/zap"

// Option customises a GA or ES instance.
type Option func(*options)

type options struct {
	log             *zap.Logger
	reporters       ReporterSet
	checkpointPath  string
	checkpointEvery int
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithReporter registers a generation reporter.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporters = append(o.reporters, r)
	}
}

// WithCheckpoint makes Run save a checkpoint to path after every n-th
// completed generation. Failed saves are logged and the run continues.
func WithCheckpoint(path string, n int) Option {
	return func(o *options) {
		o.checkpointPath = path
		o.checkpointEvery = n
	}
}

func (o *options) checkpointDue(generation int) bool {
	return o.checkpointPath != "" && o.checkpointEvery > 0 && generation%o.checkpointEvery == 0
}

func newOptions(opts []Option) *options {
	o := &options{log: zap.L()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
