package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rc1405/fiddler-sub001/internal/config"
	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/log"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
)

// keyEqualsCheckProcessor is a minimal, dependency-free stand-in for the
// composite "check" processor (a JMESPath evaluation is overkill for this
// integration test): it compares a single JSON top-level key against a
// fixed value and delegates to its wrapped processor on a match, returning
// ConditionalCheckFailed otherwise, exercising exactly the same pipeline
// contract the real check-processor does (spec.md §4.6).
type keyEqualsCheckProcessor struct {
	key   string
	want  float64
	inner plugin.Processor
}

func (c *keyEqualsCheckProcessor) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	var doc map[string]float64
	if err := json.Unmarshal(m.Payload, &doc); err != nil {
		return nil, ferrors.NewProcessingError("invalid json: %s", err)
	}
	if doc[c.key] != c.want {
		return nil, ferrors.ConditionalCheckFailed
	}
	return c.inner.Process(ctx, m)
}
func (c *keyEqualsCheckProcessor) Close(ctx context.Context) error { return c.inner.Close(ctx) }

// fakeGeneratorInput emits n fixed strings and then EndOfInput, mirroring
// the "generator" built-in plugin's count-bounded emission described in
// SPEC_FULL.md §5 without depending on that package.
type fakeGeneratorInput struct {
	mu       sync.Mutex
	messages []string
	next     int
	acked    []bool
}

func newFakeGeneratorInput(messages []string) *fakeGeneratorInput {
	return &fakeGeneratorInput{messages: messages, acked: make([]bool, len(messages))}
}

func (f *fakeGeneratorInput) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.messages) {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	idx := f.next
	f.next++
	payload := f.messages[idx]
	ack := func(success bool) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.acked[idx] = success
	}
	return message.New([]byte(payload), nil, "s"), ack, nil
}

func (f *fakeGeneratorInput) Close(context.Context) error { return nil }

// infiniteInput never exhausts, for the timeout scenario.
type infiniteInput struct{ n int }

func (i *infiniteInput) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	i.n++
	return message.New([]byte(fmt.Sprintf("msg-%d", i.n)), nil, "s"), func(bool) {}, nil
}
func (i *infiniteInput) Close(context.Context) error { return nil }

type noopProcessor struct{}

func (noopProcessor) Process(_ context.Context, m message.Message) ([]message.Message, error) {
	return []message.Message{m}, nil
}
func (noopProcessor) Close(context.Context) error { return nil }

// linesProcessor splits a payload on newlines into one successor per line,
// the fan-out exercised by scenario S2.
type linesProcessor struct{}

func (linesProcessor) Process(_ context.Context, m message.Message) ([]message.Message, error) {
	var out []message.Message
	start := 0
	for i := 0; i <= len(m.Payload); i++ {
		if i == len(m.Payload) || m.Payload[i] == '\n' {
			out = append(out, message.New(m.Payload[start:i], m.Metadata, m.StreamID))
			start = i + 1
		}
	}
	return out, nil
}
func (linesProcessor) Close(context.Context) error { return nil }

type recordingOutput struct {
	mu       sync.Mutex
	payloads []string
}

func (r *recordingOutput) Write(_ context.Context, m message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, string(m.Payload))
	return nil
}
func (r *recordingOutput) Close(context.Context) error { return nil }

func (r *recordingOutput) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.payloads))
	copy(out, r.payloads)
	return out
}

func TestPipeline_S1_BaselineOrderPreserved(t *testing.T) {
	in := newFakeGeneratorInput([]string{"Hello World 4", "Hello World 3", "Hello World 2", "Hello World 1", "Hello World 0"})
	out := &recordingOutput{}

	bound := &config.BoundPipeline{
		Input:       in,
		Processors:  []plugin.Processor{noopProcessor{}},
		Output:      out,
		WorkerCount: 1,
	}

	r := New(bound, log.Noop())
	result := r.Run(context.Background())

	if result.FatalErr != nil {
		t.Fatalf("unexpected fatal error: %v", result.FatalErr)
	}
	want := []string{"Hello World 4", "Hello World 3", "Hello World 2", "Hello World 1", "Hello World 0"}
	got := out.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: want %q got %q", i, want[i], got[i])
		}
	}
	if result.Snapshot.InFlight != 0 {
		t.Fatalf("expected tracker drained, got %d in flight", result.Snapshot.InFlight)
	}
}

func TestPipeline_S2_FanOutViaLines(t *testing.T) {
	in := newFakeGeneratorInput([]string{"a\nb\nc"})
	out := &recordingOutput{}

	bound := &config.BoundPipeline{
		Input:       in,
		Processors:  []plugin.Processor{linesProcessor{}},
		Output:      out,
		WorkerCount: 1,
	}

	r := New(bound, log.Noop())
	result := r.Run(context.Background())

	if result.FatalErr != nil {
		t.Fatalf("unexpected fatal error: %v", result.FatalErr)
	}
	got := out.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 fanned-out messages, got %d: %v", len(got), got)
	}
	if result.Snapshot.Completed != 3 {
		t.Fatalf("expected 3 completions tracked, got %d", result.Snapshot.Completed)
	}
}

func TestPipeline_S3_ConditionalDropViaBareCheck(t *testing.T) {
	in := newFakeGeneratorInput([]string{`{"k":1}`, `{"k":2}`, `{"k":3}`})
	out := &recordingOutput{}

	check := &keyEqualsCheckProcessor{key: "k", want: 2, inner: noopProcessor{}}

	bound := &config.BoundPipeline{
		Input:       in,
		Processors:  []plugin.Processor{check},
		Output:      out,
		WorkerCount: 1,
	}

	r := New(bound, log.Noop())
	result := r.Run(context.Background())

	if result.FatalErr != nil {
		t.Fatalf("unexpected fatal error: %v", result.FatalErr)
	}
	got := out.snapshot()
	if len(got) != 1 || got[0] != `{"k":2}` {
		t.Fatalf("expected only the matching object delivered, got %v", got)
	}
	if result.Snapshot.ConditionalDrops != 2 {
		t.Fatalf("expected 2 conditional drops, got %d", result.Snapshot.ConditionalDrops)
	}
}

func TestPipeline_S5_TimeoutDrainsCleanly(t *testing.T) {
	in := &infiniteInput{}
	out := &recordingOutput{}

	bound := &config.BoundPipeline{
		Input:       in,
		Processors:  []plugin.Processor{noopProcessor{}},
		Output:      out,
		WorkerCount: 1,
		Timeout:     200 * time.Millisecond,
	}

	r := New(bound, log.Noop())
	start := time.Now()
	result := r.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Fatalf("expected prompt drain after timeout, took %s", elapsed)
	}
	if len(out.snapshot()) == 0 {
		t.Fatalf("expected at least one message delivered before timeout")
	}
	_ = result
}
