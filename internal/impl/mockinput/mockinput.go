// Package mockinput registers the "mock_input" test-fixture input: it
// replays a fixed list of strings in declared order, then reports end of
// input. Grounded on original_source/fiddler/tests/dependencies/mock.rs.
package mockinput

import (
	"context"
	"sync"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"input": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["input"]
}`

func init() {
	registry.MustRegister(registry.Input, "mock_input", []byte(schemaDoc), newMockInput)
}

// MockInput replays its configured strings in declared order.
type MockInput struct {
	mu    sync.Mutex
	items []string
	next  int
}

func newMockInput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("mock_input config must be an object, got %T", raw)
	}
	list, ok := m["input"].([]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("mock_input.input must be an array, got %T", m["input"])
	}
	items := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, ferrors.NewConfigFailedValidation("mock_input.input items must be strings, got %T", v)
		}
		items = append(items, s)
	}
	return &MockInput{items: items}, nil
}

func (m *MockInput) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.items) {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	payload := m.items[m.next]
	m.next++
	return message.New([]byte(payload), nil, ""), nil, nil
}

func (m *MockInput) Close(ctx context.Context) error { return nil }
