// Package config implements the configuration binder described in spec.md
// §4.3: it parses a user document, dispatches each stanza to the registered
// factory after schema validation, and yields a fully-constructed
// BoundPipeline. Grounded on the Rust Config/ParsedConfig split in
// lib/src/config/mod.rs and lib/src/config/validate.rs, generalized from a
// single (input, pipeline, output) triple into the recursive shape switch
// and try composites need.
package config

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/rc1405/fiddler-sub001/internal/component/tracer"
	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/log"
	"github.com/rc1405/fiddler-sub001/internal/metrics"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

// BoundPipeline is the fully-constructed result of binding a document
// (spec.md §3).
type BoundPipeline struct {
	Label       string
	Input       plugin.Input
	Processors  []plugin.Processor
	Output      plugin.Output
	WorkerCount int
	Timeout     time.Duration
	Metrics     plugin.Metrics
	Tracer      tracer.Config
}

// document is the raw shape of a top-level fiddler configuration (spec.md
// §6). Label, NumThreads, Timeout, Metrics, and Tracer are optional; Input,
// Output, and a non-empty Pipeline.Processors are required.
type document struct {
	Label      string           `yaml:"label"`
	NumThreads int              `yaml:"num_threads"`
	Timeout    string           `yaml:"timeout"`
	Metrics    map[string]any   `yaml:"metrics"`
	Tracer     map[string]any   `yaml:"tracer"`
	Input      map[string]any   `yaml:"input"`
	Pipeline   struct {
		Processors []map[string]any `yaml:"processors"`
	} `yaml:"pipeline"`
	Output map[string]any `yaml:"output"`
}

// Binder binds documents and stanzas against a single Registry. It
// implements registry.Context so a plugin factory (e.g. switch, try) can
// recurse back into the binder to construct nested sub-configurations
// without the registry package needing to import this one.
type Binder struct {
	reg *registry.Registry
	log log.Modular

	// metricsReg, when non-nil, forces metrics on for every document bound
	// through this Binder even if the document carries no "metrics:"
	// stanza of its own (the imperative public/service.StreamBuilder.
	// SetMetricsRegisterer path). A document that does name a "metrics:"
	// stanza enables metrics regardless of this field.
	metricsReg prometheus.Registerer
}

// NewBinder returns a Binder over reg. A nil logger falls back to a default
// stderr logger (see internal/log.New).
func NewBinder(reg *registry.Registry, logger log.Modular) *Binder {
	if logger == nil {
		logger = log.New(nil)
	}
	return &Binder{reg: reg, log: logger}
}

// SetMetricsRegisterer forces metrics on for documents bound through b
// regardless of whether they carry their own "metrics:" stanza, registering
// against reg (or prometheus.DefaultRegisterer if reg is nil).
func (b *Binder) SetMetricsRegisterer(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	b.metricsReg = reg
}

// BindDocument parses raw (YAML or JSON; YAML is a superset) as a top-level
// fiddler configuration document and binds it into a BoundPipeline.
func (b *Binder) BindDocument(raw []byte) (*BoundPipeline, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, ferrors.NewConfigFailedValidation("invalid document: %s", err)
	}

	if len(doc.Pipeline.Processors) == 0 {
		return nil, ferrors.NewConfigFailedValidation("pipeline must contain at least one processor")
	}

	inputAny, err := b.Bind(registry.Input, doc.Input)
	if err != nil {
		return nil, err
	}
	in, ok := inputAny.(plugin.Input)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("input stanza did not produce an Input plugin")
	}

	procs := make([]plugin.Processor, 0, len(doc.Pipeline.Processors))
	for i, stanza := range doc.Pipeline.Processors {
		procAny, err := b.Bind(registry.Processor, stanza)
		if err != nil {
			return nil, fmt.Errorf("processor[%d]: %w", i, err)
		}
		proc, ok := procAny.(plugin.Processor)
		if !ok {
			return nil, ferrors.NewConfigFailedValidation("processor[%d] stanza did not produce a Processor plugin", i)
		}
		procs = append(procs, proc)
	}

	outputAny, err := b.Bind(registry.Output, doc.Output)
	if err != nil {
		return nil, err
	}
	out, ok := outputAny.(plugin.Output)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("output stanza did not produce an Output plugin")
	}

	tracerConf, err := tracer.FromAny(doc.Tracer)
	if err != nil {
		return nil, ferrors.NewConfigFailedValidation("invalid tracer stanza: %s", err)
	}

	metricsBackend := ""
	if len(doc.Metrics) > 0 {
		name, _, _, err := extractPluginKey(doc.Metrics)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		if name != "prometheus" {
			return nil, ferrors.NewConfigFailedValidation("unsupported metrics backend %q", name)
		}
		metricsBackend = name
	}

	var boundMetrics plugin.Metrics
	if metricsBackend != "" || b.metricsReg != nil {
		reg := b.metricsReg
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m, err := metrics.NewPrometheus(reg, doc.Label)
		if err != nil {
			return nil, ferrors.NewConfigFailedValidation("metrics: %s", err)
		}
		boundMetrics = m
	}

	workers := doc.NumThreads
	if workers <= 0 {
		workers = 1
	}

	var timeout time.Duration
	if doc.Timeout != "" {
		timeout, err = time.ParseDuration(doc.Timeout)
		if err != nil {
			return nil, ferrors.NewConfigFailedValidation("invalid timeout %q: %s", doc.Timeout, err)
		}
	}

	// The registry is frozen the first time a pipeline is successfully
	// bound (spec.md §4.1): no writer races a reader once a run exists.
	b.reg.Freeze()

	return &BoundPipeline{
		Label:       doc.Label,
		Input:       in,
		Processors:  procs,
		Output:      out,
		WorkerCount: workers,
		Timeout:     timeout,
		Tracer:      tracerConf,
		Metrics:     boundMetrics,
	}, nil
}

// Bind extracts the single recognized plugin key from stanza, validates its
// inner value against that plugin's schema, and invokes its factory. It
// implements registry.Context so factories for composite plugins (switch,
// try) can recurse into it.
func (b *Binder) Bind(kind registry.Kind, stanza map[string]any) (any, error) {
	name, inner, _, err := extractPluginKey(stanza)
	if err != nil {
		return nil, err
	}

	entry, err := b.reg.Lookup(kind, name)
	if err != nil {
		return nil, err
	}

	if entry.Schema != nil {
		if err := entry.Schema.Validate(inner); err != nil {
			return nil, err
		}
	}

	return entry.Factory(inner, b)
}

// extractPluginKey pulls the one recognized plugin-name key out of a
// stanza, alongside the optional "label" key (spec.md §4.3). Exactly one
// plugin key must be present.
func extractPluginKey(stanza map[string]any) (name string, inner any, label string, err error) {
	if l, ok := stanza["label"]; ok {
		if s, ok := l.(string); ok {
			label = s
		}
	}

	var keys []string
	for k := range stanza {
		if k == "label" {
			continue
		}
		keys = append(keys, k)
	}

	switch len(keys) {
	case 0:
		return "", nil, "", ferrors.NewConfigFailedValidation("stanza has no plugin key")
	case 1:
		return keys[0], stanza[keys[0]], label, nil
	default:
		return "", nil, "", ferrors.NewConfigFailedValidation("stanza has more than one plugin key: %v", keys)
	}
}
