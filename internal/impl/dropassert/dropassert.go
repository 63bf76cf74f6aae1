// Package dropassert registers the "drop" and "assert" output test
// fixtures. "drop" discards every message, matching
// original_source/lib/src/modules/outputs/drop/mod.rs. "assert" checks each
// written message against a fixed expected sequence in order, the Go
// idiom's error-return replacement for the Rust fixture's panic-on-mismatch
// in original_source/fiddler/tests/dependencies/output.rs (named "validate"
// there; registered here as "assert" to match the user-facing plugin name
// in SPEC_FULL.md §5).
package dropassert

import (
	"context"
	"sync"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

func init() {
	registry.MustRegister(registry.Output, "drop", []byte(`{"type": "object"}`), newDrop)
	registry.MustRegister(registry.Output, "assert", []byte(assertSchemaDoc), newAssert)
}

// Drop discards every message it is given.
type Drop struct{}

func newDrop(raw any, ctx registry.Context) (any, error) { return Drop{}, nil }

func (Drop) Write(context.Context, message.Message) error { return nil }
func (Drop) Close(context.Context) error                  { return nil }

const assertSchemaDoc = `{
	"type": "object",
	"properties": {
		"expected": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["expected"]
}`

// Assert checks every written message's payload against a fixed expected
// sequence, in order, and fails the delivery with an OutputError on the
// first mismatch or on an unexpected extra message. Close fails if fewer
// messages arrived than expected.
type Assert struct {
	mu       sync.Mutex
	expected []string
	count    int
}

func newAssert(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("assert config must be an object, got %T", raw)
	}
	list, ok := m["expected"].([]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("assert.expected must be an array, got %T", m["expected"])
	}
	expected := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, ferrors.NewConfigFailedValidation("assert.expected items must be strings, got %T", v)
		}
		expected = append(expected, s)
	}
	return &Assert{expected: expected}, nil
}

func (a *Assert) Write(ctx context.Context, m message.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	got := string(m.Payload)
	if a.count >= len(a.expected) {
		return ferrors.NewOutputError("received an extra message: %q", got)
	}
	want := a.expected[a.count]
	a.count++
	if want != got {
		return ferrors.NewOutputError("expected %q at position %d, got %q", want, a.count-1, got)
	}
	return nil
}

func (a *Assert) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count != len(a.expected) {
		return ferrors.NewOutputError("received %d messages, expected %d", a.count, len(a.expected))
	}
	return nil
}
