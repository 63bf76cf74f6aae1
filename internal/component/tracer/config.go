// Package tracer carries the optional tracing backend configuration for a
// fiddler pipeline document (SPEC_FULL.md §4.8 ambient stack). Adapted from
// the teacher's own internal/component/tracer/config.go: the original
// inferred its single plugin key via a docs.Provider lookup against the
// full Benthos component-doc registry, which this scoped module doesn't
// carry. The replacement below takes the single key present in the map as
// the backend name, much as the configuration binder takes a stanza's
// single non-"label" key as the plugin name.
package tracer

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func init() {
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

// Config is the all-encompassing configuration struct for the tracer
// backend named under a document's optional "tracer" key.
type Config struct {
	Type   string `json:"type" yaml:"type"`
	Plugin any    `json:"plugin,omitempty" yaml:"plugin,omitempty"`
}

// NewConfig returns the default configuration: tracing disabled.
func NewConfig() Config {
	return Config{Type: "none", Plugin: nil}
}

// FromAny returns a tracer Config from an already-typed Config, or from a
// decoded map[string]any such as `{"none": {}}` or `{"otlp": {endpoint:
// ...}}`.
func FromAny(value any) (conf Config, err error) {
	switch t := value.(type) {
	case Config:
		return t, nil
	case nil:
		return NewConfig(), nil
	case map[string]any:
		return fromMap(t)
	}
	return conf, fmt.Errorf("unexpected value, expected object, got %T", value)
}

func fromMap(value map[string]any) (conf Config, err error) {
	var keys []string
	for k := range value {
		keys = append(keys, k)
	}
	switch len(keys) {
	case 0:
		return NewConfig(), nil
	case 1:
		conf.Type = keys[0]
		conf.Plugin = value[keys[0]]
		return conf, nil
	default:
		return conf, fmt.Errorf("tracer stanza must have exactly one backend key, got %v", keys)
	}
}
