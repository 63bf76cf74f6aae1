// Package file registers the "file" input and output: one message per
// line of a named file for input, one appended line per message for
// output. SPEC_FULL.md's domain-stack table names this plugin against
// spec.md §1's external-collaborator list rather than a specific Rust
// module (no file-backed input/output exists anywhere under
// original_source/), so it is grounded instead on this module's own
// internal/impl/stdio package, which this is a straightforward os.Open/
// os.OpenFile variant of.
package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const inputSchemaDoc = `{
	"type": "object",
	"properties": {
		"path": {"type": "string"}
	},
	"required": ["path"]
}`

const outputSchemaDoc = `{
	"type": "object",
	"properties": {
		"path": {"type": "string"}
	},
	"required": ["path"]
}`

func init() {
	registry.MustRegister(registry.Input, "file", []byte(inputSchemaDoc), newInput)
	registry.MustRegister(registry.Output, "file", []byte(outputSchemaDoc), newOutput)
}

func pathField(raw any) (string, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", ferrors.NewConfigFailedValidation("file config must be an object, got %T", raw)
	}
	path, _ := m["path"].(string)
	if path == "" {
		return "", ferrors.NewConfigFailedValidation("file.path is required")
	}
	return path, nil
}

// Input reads one message per line of a file opened once at construction
// time, reporting end of input once the file is exhausted.
type Input struct {
	mu      sync.Mutex
	f       *os.File
	scanner *bufio.Scanner
}

func newInput(raw any, ctx registry.Context) (any, error) {
	path, err := pathField(raw)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.NewConfigFailedValidation("file: open %q: %v", path, err)
	}
	return &Input{f: f, scanner: bufio.NewScanner(f)}, nil
}

func (in *Input) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.scanner.Scan() {
		if err := in.scanner.Err(); err != nil {
			return message.Message{}, nil, ferrors.NewProcessingError("file: %v", err)
		}
		return message.Message{}, nil, ferrors.EndOfInput
	}
	line := make([]byte, len(in.scanner.Bytes()))
	copy(line, in.scanner.Bytes())
	return message.New(line, nil, ""), nil, nil
}

func (in *Input) Close(context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.f.Close()
}

// Output appends one line per message to a file opened once at
// construction time.
type Output struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func newOutput(raw any, ctx registry.Context) (any, error) {
	path, err := pathField(raw)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, ferrors.NewConfigFailedValidation("file: open %q: %v", path, err)
	}
	return &Output{f: f, w: bufio.NewWriter(f)}, nil
}

func (out *Output) Write(ctx context.Context, m message.Message) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if _, err := fmt.Fprintln(out.w, string(m.Payload)); err != nil {
		return ferrors.NewOutputError("file: %v", err)
	}
	return out.w.Flush()
}

func (out *Output) Close(context.Context) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if err := out.w.Flush(); err != nil {
		return ferrors.NewOutputError("file: %v", err)
	}
	return out.f.Close()
}
