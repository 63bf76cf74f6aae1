// Package generator registers the "generator" test-fixture input: it emits
// a fixed count of synthetic messages and then reports end of input.
// Grounded on
// original_source/fiddler/tests/dependencies/generator.rs, kept as a
// stdlib-only plugin since the Rust source itself has no external
// dependency for it (SPEC_FULL.md §5).
package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"count": {"type": "number"}
	},
	"required": ["count"]
}`

func init() {
	registry.MustRegister(registry.Input, "generator", []byte(schemaDoc), newGenerator)
}

type conf struct {
	Count int `json:"count" yaml:"count"`
}

// Generator emits "Hello World N" counting down from count-1 to 0, matching
// the original Rust Generator's countdown ordering exactly.
type Generator struct {
	mu        sync.Mutex
	remaining int
}

func newGenerator(raw any, ctx registry.Context) (any, error) {
	c, err := decodeCount(raw)
	if err != nil {
		return nil, err
	}
	return &Generator{remaining: c}, nil
}

func decodeCount(raw any) (int, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return 0, ferrors.NewConfigFailedValidation("generator config must be an object, got %T", raw)
	}
	switch v := m["count"].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, ferrors.NewConfigFailedValidation("generator.count must be a number, got %T", m["count"])
	}
}

func (g *Generator) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.remaining <= 0 {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	g.remaining--
	payload := fmt.Sprintf("Hello World %d", g.remaining)
	return message.New([]byte(payload), nil, ""), nil, nil
}

func (g *Generator) Close(ctx context.Context) error { return nil }
