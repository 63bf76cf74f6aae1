// Package service exposes the embeddable, programmatic surface of fiddler:
// an Environment wrapping a plugin registry, a StreamBuilder that parses a
// document and binds it against that environment, and the resulting Stream,
// which runs to completion and reports a final Result. Grounded on the
// teacher's own public/service/stream_builder.go builder-pattern shape and
// other_examples' Benthos v3 public/service/environment.go Environment
// pattern, re-expressed over this module's own internal/registry,
// internal/config, and internal/pipeline instead of Benthos's
// internal/bundle/internal/manager stack.
package service

import (
	"context"
	"log/slog"

	"github.com/rc1405/fiddler-sub001/internal/config"
	"github.com/rc1405/fiddler-sub001/internal/log"
	"github.com/rc1405/fiddler-sub001/internal/pipeline"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"

	"github.com/prometheus/client_golang/prometheus"
)

// Environment is an isolated plugin registry. Most callers do not need one:
// importing internal/impl/all (via the cmd/fiddler binary, or directly) is
// enough to populate the process-wide GlobalEnvironment. A distinct
// Environment is useful for tests or embedders that want a private plugin
// catalog, mirroring the real Benthos public/service.Environment's stated
// purpose ("sandboxing, testing, etc").
type Environment struct {
	registry *registry.Registry
}

// GlobalEnvironment wraps the process-wide registry every built-in plugin
// package registers itself against from an init() function.
var GlobalEnvironment = &Environment{registry: registry.Global}

// NewEnvironment returns an Environment with its own empty, independently
// writable registry - no built-in plugins are pre-registered, matching
// the teacher's semantics for a non-global environment.
func NewEnvironment() *Environment {
	return &Environment{registry: registry.New()}
}

// NewStreamBuilder creates a new StreamBuilder bound to this environment's
// registry; only plugins known to it will be resolvable when the builder's
// document is bound.
func (e *Environment) NewStreamBuilder() *StreamBuilder {
	return &StreamBuilder{env: e}
}

// NewStreamBuilder creates a new StreamBuilder against GlobalEnvironment,
// the common case for a binary that blank-imports internal/impl/all.
func NewStreamBuilder() *StreamBuilder {
	return GlobalEnvironment.NewStreamBuilder()
}

// StreamBuilder accumulates a fiddler document (as raw YAML) plus optional
// overrides (logger, metrics registerer), then binds and builds a runnable
// Stream.
type StreamBuilder struct {
	env *Environment

	yamlDoc []byte
	logger  log.Modular

	metricsReg prometheus.Registerer
	metricsOn  bool
}

// SetYAML sets (or replaces) the full document this builder will bind:
// label, num_threads, timeout, input, pipeline.processors, and output,
// per SPEC_FULL.md's document schema.
func (s *StreamBuilder) SetYAML(conf string) error {
	s.yamlDoc = []byte(conf)
	return nil
}

// SetLogger overrides the default stderr text logger with the given
// *slog.Logger.
func (s *StreamBuilder) SetLogger(l *slog.Logger) {
	s.logger = log.New(l)
}

// SetMetricsRegisterer forces Prometheus metrics collection on for the built
// stream, registering fiddler's runtime counters against reg, even if the
// document carries no "metrics:" stanza of its own. Not calling this still
// leaves a document's own declarative "metrics: {prometheus: {...}}" stanza
// free to enable metrics on its own (internal/config.Binder binds it
// directly); this setter is purely an additional, imperative override.
func (s *StreamBuilder) SetMetricsRegisterer(reg prometheus.Registerer) {
	s.metricsReg = reg
	s.metricsOn = true
}

// Build parses and binds the builder's document against the environment's
// registry and returns a runnable Stream. Binding freezes the environment's
// registry (spec.md §4.1): no further plugin registration into it is
// possible once any stream has been built from it.
func (s *StreamBuilder) Build() (*Stream, error) {
	logger := s.logger
	if logger == nil {
		logger = log.New(nil)
	}

	binder := config.NewBinder(s.env.registry, logger)
	if s.metricsOn {
		binder.SetMetricsRegisterer(s.metricsReg)
	}
	bound, err := binder.BindDocument(s.yamlDoc)
	if err != nil {
		return nil, err
	}

	return &Stream{
		runtime: pipeline.New(bound, logger),
	}, nil
}

// Stream is a single bound, runnable instance of a document built by
// StreamBuilder.Build.
type Stream struct {
	runtime *pipeline.Runtime
}

// Result is the outcome of running a Stream to completion: a final metrics
// snapshot and, if the run ended on a fatal error rather than a clean
// drain, that error.
type Result struct {
	Counters plugin.Counters
	Err      error
}

// Run drives the stream until its input is exhausted (or ctx is canceled)
// and returns once every stage has shut down. On cancellation or timeout,
// messages still in flight may be abandoned without being acknowledged.
func (st *Stream) Run(ctx context.Context) Result {
	res := st.runtime.Run(ctx)
	return Result{
		Counters: plugin.Counters{
			Completed:          res.Snapshot.Completed,
			ProcessErrors:      res.Snapshot.ProcessErrors,
			OutputErrors:       res.Snapshot.OutputErrors,
			DuplicatesRejected: res.Snapshot.DuplicatesRejected,
			InFlight:           int64(res.Snapshot.InFlight),
		},
		Err: res.FatalErr,
	}
}
