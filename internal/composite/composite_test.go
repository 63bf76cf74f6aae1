package composite

import (
	"context"
	"testing"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
)

// echoProcessor passes its input through unchanged; used to exercise
// composite dispatch without depending on any built-in impl/* plugin.
type echoProcessor struct{}

func (echoProcessor) Process(_ context.Context, m message.Message) ([]message.Message, error) {
	return []message.Message{m}, nil
}
func (echoProcessor) Close(context.Context) error { return nil }

// failProcessor always fails with a non-conditional error.
type failProcessor struct{ err error }

func (f failProcessor) Process(context.Context, message.Message) ([]message.Message, error) {
	return nil, f.err
}
func (failProcessor) Close(context.Context) error { return nil }

type recordingOutput struct {
	written []message.Message
}

func (r *recordingOutput) Write(_ context.Context, m message.Message) error {
	r.written = append(r.written, m)
	return nil
}
func (r *recordingOutput) Close(context.Context) error { return nil }

func TestCheckProcessor_MatchRunsSubPipeline(t *testing.T) {
	c := &checkProcessor{condition: "k == `2`", processors: []plugin.Processor{echoProcessor{}}}
	m := message.New([]byte(`{"k":2}`), nil, "s1")

	out, err := c.Process(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 message, got %d", len(out))
	}
}

func TestCheckProcessor_NoMatchReturnsConditionalCheckFailed(t *testing.T) {
	c := &checkProcessor{condition: "k == `2`", processors: []plugin.Processor{echoProcessor{}}}
	m := message.New([]byte(`{"k":3}`), nil, "s1")

	_, err := c.Process(context.Background(), m)
	if err != ferrors.ConditionalCheckFailed {
		t.Fatalf("expected ConditionalCheckFailed, got %v", err)
	}
}

func TestSwitchProcessor_FallsThroughToOriginalWhenNoBranchMatches(t *testing.T) {
	s := &switchProcessor{branches: []plugin.Processor{
		&checkProcessor{condition: "k == `2`", processors: []plugin.Processor{echoProcessor{}}},
	}}
	m := message.New([]byte(`{"k":3}`), nil, "s1")

	out, err := s.Process(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || string(out[0].Payload) != `{"k":3}` {
		t.Fatalf("expected original message to pass through unchanged, got %+v", out)
	}
}

func TestSwitchProcessor_PropagatesNonConditionalError(t *testing.T) {
	boom := ferrors.NewProcessingError("boom")
	s := &switchProcessor{branches: []plugin.Processor{failProcessor{err: boom}}}
	m := message.New([]byte(`{}`), nil, "s1")

	_, err := s.Process(context.Background(), m)
	if err != boom {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestTryProcessor_RunsCatchOnPrimaryFailure(t *testing.T) {
	tr := &tryProcessor{
		primary: failProcessor{err: ferrors.NewProcessingError("boom")},
		catch:   []plugin.Processor{echoProcessor{}},
	}
	m := message.New([]byte(`{"k":1}`), nil, "s1")

	out, err := tr.Process(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error from catch chain: %v", err)
	}
	if len(out) != 1 || string(out[0].Payload) != `{"k":1}` {
		t.Fatalf("expected original message run through catch, got %+v", out)
	}
}

func TestTryProcessor_NoCatchSwallowsErrorAndPassesThroughOriginal(t *testing.T) {
	tr := &tryProcessor{primary: failProcessor{err: ferrors.NewProcessingError("boom")}}
	m := message.New([]byte(`{"k":1}`), nil, "s1")

	out, err := tr.Process(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || string(out[0].Payload) != `{"k":1}` {
		t.Fatalf("expected original message passed through, got %+v", out)
	}
}

func TestSwitchOutput_NoMatchSilentlyDrops(t *testing.T) {
	rec := &recordingOutput{}
	s := &switchOutput{branches: []plugin.Output{
		&checkOutput{condition: "k == `2`", output: rec},
	}}
	m := message.New([]byte(`{"k":3}`), nil, "s1")

	if err := s.Write(context.Background(), m); err != nil {
		t.Fatalf("expected silent drop, got error: %v", err)
	}
	if len(rec.written) != 0 {
		t.Fatalf("expected nothing written, got %d", len(rec.written))
	}
}

func TestSwitchOutput_MatchWrites(t *testing.T) {
	rec := &recordingOutput{}
	s := &switchOutput{branches: []plugin.Output{
		&checkOutput{condition: "k == `2`", output: rec},
	}}
	m := message.New([]byte(`{"k":2}`), nil, "s1")

	if err := s.Write(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.written) != 1 {
		t.Fatalf("expected 1 write, got %d", len(rec.written))
	}
}
