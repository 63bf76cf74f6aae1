// Package stdio registers the "stdin" input and "stdout" output, each
// reading/writing one message per line. Grounded on
// original_source/fiddler/src/modules/inputs/stdin/mod.rs (the newer,
// Option<CallbackChan>-returning shape this module's AckFunc mirrors) and
// original_source/lib/src/modules/outputs/stdout/mod.rs. bufio.Scanner and
// bufio.Writer are the stdlib idiom the teacher reaches for line-oriented
// I/O (the Rust source's async_std::io::stdin().read_line loop translates
// directly).
package stdio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

func init() {
	registry.MustRegister(registry.Input, "stdin", []byte(`{"type": "object"}`), newStdin)
	registry.MustRegister(registry.Output, "stdout", []byte(`{"type": "object"}`), newStdout)
}

// exitSentinel matches the Rust StdIn's hardcoded "exit()" end-of-input
// marker.
const exitSentinel = "exit()"

// StdIn reads one message per line from os.Stdin, stopping at EOF or at the
// literal line "exit()".
type StdIn struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
}

func newStdin(raw any, ctx registry.Context) (any, error) {
	return &StdIn{scanner: bufio.NewScanner(os.Stdin)}, nil
}

func (s *StdIn) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return message.Message{}, nil, ferrors.NewProcessingError("stdin: %v", err)
		}
		return message.Message{}, nil, ferrors.EndOfInput
	}
	line := s.scanner.Text()
	if line == exitSentinel {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	return message.New([]byte(line), nil, ""), nil, nil
}

func (s *StdIn) Close(context.Context) error { return nil }

// StdOut writes one line per message to os.Stdout.
type StdOut struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func newStdout(raw any, ctx registry.Context) (any, error) {
	return &StdOut{w: bufio.NewWriter(os.Stdout)}, nil
}

func (s *StdOut) Write(ctx context.Context, m message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, string(m.Payload)); err != nil {
		return ferrors.NewOutputError("stdout: %v", err)
	}
	return s.w.Flush()
}

func (s *StdOut) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil && err != io.ErrClosedPipe {
		return ferrors.NewOutputError("stdout: %v", err)
	}
	return nil
}
