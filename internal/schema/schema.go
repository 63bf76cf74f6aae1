// Package schema compiles and evaluates JSON-Schema (draft-7) documents
// against configuration values. It wraps github.com/xeipuuv/gojsonschema,
// the same library real Benthos vendors
// (other_examples/manifests/redpanda-data-benthos/go.mod). Source text may
// be expressed as YAML or JSON; YAML is decoded with gopkg.in/yaml.v3 and
// re-marshaled to plain JSON-compatible values before compilation, mirroring
// the YAML-then-JSON round trip in the original fiddler
// lib/src/config/mod.rs::ConfigSpec::from_schema.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
)

// Validator is an immutable, cheaply shareable compiled schema.
type Validator struct {
	raw    []byte
	schema *gojsonschema.Schema
}

// Compile parses source (YAML or JSON) as a draft-7 JSON-Schema document and
// compiles it once. The returned Validator can be used concurrently by many
// readers.
func Compile(source []byte) (*Validator, error) {
	doc, err := toJSONCompatible(source)
	if err != nil {
		return nil, ferrors.NewInvalidValidationSchema("%s", err)
	}
	loader := gojsonschema.NewGoLoader(doc)
	sch, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, ferrors.NewInvalidValidationSchema("%s", err)
	}
	return &Validator{raw: source, schema: sch}, nil
}

// Validate checks value (typically a decoded YAML/JSON stanza) against the
// compiled schema, returning a ConfigFailedValidation error carrying every
// failure message when it does not conform.
func (v *Validator) Validate(value any) error {
	doc, err := toJSONCompatibleValue(value)
	if err != nil {
		return ferrors.NewConfigFailedValidation("%s", err)
	}
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return ferrors.NewConfigFailedValidation("%s", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &ferrors.ConfigFailedValidation{Detail: joinErrors(msgs)}
	}
	return nil
}

func joinErrors(msgs []string) string {
	out := ""
	for i, m := range msgs {
		if i > 0 {
			out += "; "
		}
		out += m
	}
	return out
}

// toJSONCompatible decodes source as YAML (a superset of JSON) and then
// round-trips it through encoding/json so every nested value is a plain
// map[string]any/[]any/string/float64/bool/nil the schema library expects,
// rather than yaml.Node's own type tree.
func toJSONCompatible(source []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(source, &v); err != nil {
		return nil, fmt.Errorf("decode schema source: %w", err)
	}
	return toJSONCompatibleValue(v)
}

func toJSONCompatibleValue(v any) (any, error) {
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return nil, fmt.Errorf("marshal for schema check: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal for schema check: %w", err)
	}
	return out, nil
}

// normalize recursively converts map[any]any (a shape yaml.v3 never produces
// for document roots but can for nested generic values) into
// map[string]any, so json.Marshal doesn't choke on non-string keys.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
