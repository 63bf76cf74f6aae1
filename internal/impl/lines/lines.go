// Package lines registers the "lines" fan-out processor: it splits a
// message's payload on newlines and emits one successor message per line.
// Grounded on original_source/lib/src/modules/processors/lines/mod.rs,
// translated from the Rust split('\n')-and-collect into a bufio.Scanner
// pass, the idiomatic Go way of walking newline-delimited bytes.
package lines

import (
	"bufio"
	"bytes"
	"context"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

func init() {
	registry.MustRegister(registry.Processor, "lines", []byte(`{"type": "object"}`), newLines)
}

// Lines splits an incoming payload on newlines, one successor per line.
type Lines struct{}

func newLines(raw any, ctx registry.Context) (any, error) { return Lines{}, nil }

func (Lines) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	scanner := bufio.NewScanner(bytes.NewReader(m.Payload))
	var out []message.Message
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		out = append(out, message.New(line, m.Metadata, m.StreamID))
	}
	if err := scanner.Err(); err != nil {
		return nil, ferrors.NewProcessingError("lines: %v", err)
	}
	return out, nil
}

func (Lines) Close(context.Context) error { return nil }
