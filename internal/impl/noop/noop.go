// Package noop registers the "noop" passthrough processor, which returns
// its input message unchanged. Grounded on
// original_source/lib/src/modules/processors/noop/mod.rs.
package noop

import (
	"context"

	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

func init() {
	registry.MustRegister(registry.Processor, "noop", []byte(`{"type": "object"}`), newNoOp)
}

// NoOp passes every message through unchanged.
type NoOp struct{}

func newNoOp(raw any, ctx registry.Context) (any, error) { return NoOp{}, nil }

func (NoOp) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	return []message.Message{m}, nil
}

func (NoOp) Close(context.Context) error { return nil }
