// Package composite implements the conditional/switch/try primitives
// described in spec.md §4.6: check/switch/try processors and check/switch
// outputs, all dispatching to nested sub-pipelines bound recursively through
// registry.Context. Grounded on
// original_source/fiddler/src/modules/processors/switch/check.rs,
// original_source/fiddler/src/modules/processors/exception/mod.rs, and
// original_source/lib/src/modules/outputs/switch/{mod.rs,check.rs}, with
// JMESPath evaluation translated from the Rust jmespath crate onto
// github.com/jmespath/go-jmespath, the Go library the real Benthos project
// uses for the same purpose.
package composite

import (
	"context"
	"fmt"

	"github.com/Jeffail/gabs/v2"
	"github.com/jmespath/go-jmespath"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

// evaluateCondition compiles and runs a JMESPath expression against a
// message payload interpreted as JSON, returning ConditionalCheckFailed
// (not a plain error) when the result is falsy - mirroring perform_check in
// check.rs, where a non-boolean-true result is the expected "no match"
// outcome rather than a processing failure. Parsed via gabs rather than a
// bare encoding/json.Unmarshal; .Data() hands expr.Search the same untyped
// map[string]any/[]any tree json.Unmarshal would have produced.
func evaluateCondition(condition string, payload []byte) error {
	parsed, err := gabs.ParseJSON(payload)
	if err != nil {
		return ferrors.NewProcessingError("payload is not valid JSON: %s", err)
	}
	doc := parsed.Data()

	expr, err := jmespath.Compile(condition)
	if err != nil {
		return ferrors.NewProcessingError("invalid condition: %s", err)
	}

	result, err := expr.Search(doc)
	if err != nil {
		return ferrors.NewProcessingError("condition evaluation failed: %s", err)
	}

	matched, _ := result.(bool)
	if !matched {
		return ferrors.ConditionalCheckFailed
	}
	return nil
}

// stanzaList coerces a decoded YAML value into a slice of stanza maps, the
// shape every "processors"/"output" sub-configuration field takes once
// gopkg.in/yaml.v3 has decoded it into `any`.
func stanzaList(v any) ([]map[string]any, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("expected a list of plugin stanzas, got %T", v)
	}
	out := make([]map[string]any, 0, len(raw))
	for i, item := range raw {
		m, err := stanzaMap(item)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// stanzaMap coerces a single decoded YAML value into a plugin stanza map,
// normalizing yaml.v3's map[string]interface{} (already native) as well as
// a defensive map[interface{}]interface{} in case a caller fed raw
// yaml.Node output through without the binder's own normalization.
func stanzaMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, ferrors.NewConfigFailedValidation("plugin stanza key %v is not a string", k)
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, ferrors.NewConfigFailedValidation("expected a plugin stanza object, got %T", v)
	}
}

// bindProcessors binds an ordered list of processor stanzas against ctx.
func bindProcessors(ctx registry.Context, stanzas []map[string]any) ([]plugin.Processor, error) {
	out := make([]plugin.Processor, 0, len(stanzas))
	for i, stanza := range stanzas {
		bound, err := ctx.Bind(registry.Processor, stanza)
		if err != nil {
			return nil, fmt.Errorf("processors[%d]: %w", i, err)
		}
		p, ok := bound.(plugin.Processor)
		if !ok {
			return nil, ferrors.NewConfigFailedValidation("processors[%d] did not produce a processor", i)
		}
		out = append(out, p)
	}
	return out, nil
}

// runProcessorChain feeds the accumulated working set through each processor
// in order, with each step's output becoming the next step's input and the
// working set free to grow via fan-out - the Go equivalent of check.rs's
// pop/extend accumulation loop.
func runProcessorChain(ctx context.Context, procs []plugin.Processor, start []message.Message) ([]message.Message, error) {
	working := start
	for _, p := range procs {
		var next []message.Message
		for _, m := range working {
			out, err := p.Process(ctx, m)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		working = next
	}
	return working, nil
}

// closeAll closes every processor in order, collecting (not short-circuiting
// on) the first error so every plugin's Close is attempted exactly once per
// spec.md §4.5 step 5.
func closeAll(ctx context.Context, procs []plugin.Processor) error {
	var firstErr error
	for _, p := range procs {
		if err := p.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
