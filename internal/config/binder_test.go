package config

import (
	"context"
	"testing"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
	"github.com/rc1405/fiddler-sub001/internal/schema"
)

type stubInput struct{}

func (stubInput) Read(context.Context) (message.Message, message.AckFunc, error) {
	return message.Message{}, nil, ferrors.EndOfInput
}
func (stubInput) Close(context.Context) error { return nil }

type stubOutput struct{}

func (stubOutput) Write(context.Context, message.Message) error { return nil }
func (stubOutput) Close(context.Context) error                 { return nil }

type stubProcessor struct{}

func (stubProcessor) Process(_ context.Context, m message.Message) ([]message.Message, error) {
	return []message.Message{m}, nil
}
func (stubProcessor) Close(context.Context) error { return nil }

func mustSchema(t *testing.T, src string) *schema.Validator {
	t.Helper()
	v, err := schema.Compile([]byte(src))
	if err != nil {
		t.Fatalf("failed to compile schema: %v", err)
	}
	return v
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	objSchema := mustSchema(t, `{"type": "object"}`)

	if err := r.Register(registry.Input, "stub_input", objSchema, func(conf any, ctx registry.Context) (any, error) {
		return stubInput{}, nil
	}); err != nil {
		t.Fatalf("register input: %v", err)
	}
	if err := r.Register(registry.Output, "stub_output", objSchema, func(conf any, ctx registry.Context) (any, error) {
		return stubOutput{}, nil
	}); err != nil {
		t.Fatalf("register output: %v", err)
	}
	if err := r.Register(registry.Processor, "stub_processor", objSchema, func(conf any, ctx registry.Context) (any, error) {
		return stubProcessor{}, nil
	}); err != nil {
		t.Fatalf("register processor: %v", err)
	}
	return r
}

func TestBindDocument_Success(t *testing.T) {
	r := newTestRegistry(t)
	b := NewBinder(r, nil)

	doc := []byte(`
num_threads: 3
timeout: 500ms
input:
  stub_input: {}
pipeline:
  processors:
    - stub_processor: {}
output:
  stub_output: {}
`)

	bound, err := b.BindDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound.WorkerCount != 3 {
		t.Fatalf("expected worker count 3, got %d", bound.WorkerCount)
	}
	if bound.Timeout.String() != "500ms" {
		t.Fatalf("expected 500ms timeout, got %s", bound.Timeout)
	}
	if len(bound.Processors) != 1 {
		t.Fatalf("expected 1 processor, got %d", len(bound.Processors))
	}
	if !r.Frozen() {
		t.Fatalf("expected registry to be frozen after a successful bind")
	}
}

func TestBindDocument_RejectsEmptyProcessorList(t *testing.T) {
	r := newTestRegistry(t)
	b := NewBinder(r, nil)

	doc := []byte(`
input:
  stub_input: {}
pipeline:
  processors: []
output:
  stub_output: {}
`)

	_, err := b.BindDocument(doc)
	if _, ok := err.(*ferrors.ConfigFailedValidation); !ok {
		t.Fatalf("expected ConfigFailedValidation, got %v (%T)", err, err)
	}
}

func TestBindDocument_UnknownPluginNameFails(t *testing.T) {
	r := newTestRegistry(t)
	b := NewBinder(r, nil)

	doc := []byte(`
input:
  does_not_exist: {}
pipeline:
  processors:
    - stub_processor: {}
output:
  stub_output: {}
`)

	_, err := b.BindDocument(doc)
	if _, ok := err.(*ferrors.ConfigurationItemNotFound); !ok {
		t.Fatalf("expected ConfigurationItemNotFound, got %v (%T)", err, err)
	}
}

func TestBind_RejectsStanzaWithMultiplePluginKeys(t *testing.T) {
	r := newTestRegistry(t)
	b := NewBinder(r, nil)

	_, err := b.Bind(registry.Input, map[string]any{
		"stub_input": map[string]any{},
		"other":      map[string]any{},
	})
	if _, ok := err.(*ferrors.ConfigFailedValidation); !ok {
		t.Fatalf("expected ConfigFailedValidation, got %v (%T)", err, err)
	}
}

func TestBind_DefaultsWorkerCountToOne(t *testing.T) {
	r := newTestRegistry(t)
	b := NewBinder(r, nil)

	doc := []byte(`
input:
  stub_input: {}
pipeline:
  processors:
    - stub_processor: {}
output:
  stub_output: {}
`)
	bound, err := b.BindDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound.WorkerCount != 1 {
		t.Fatalf("expected default worker count 1, got %d", bound.WorkerCount)
	}
}
