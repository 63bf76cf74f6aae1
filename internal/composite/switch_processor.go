package composite

import (
	"context"
	"errors"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const switchProcessorSchema = `{"type": "array"}`

func init() {
	registry.MustRegister(registry.Processor, "switch", []byte(switchProcessorSchema), newSwitchProcessor)
}

// switchProcessor is an ordered list of check-processors: the first whose
// condition matches handles the message; if every branch fails with
// ConditionalCheckFailed, the original message passes through unchanged
// (spec.md §4.6's switch-processor state machine). Grounded on the same
// check.rs plus the declared switch-processor fallthrough behavior; the
// Rust tree has no standalone switch/mod.rs processor file to mirror
// directly, so the dispatch loop below is written in check.rs's own idiom.
type switchProcessor struct {
	branches []plugin.Processor
}

func newSwitchProcessor(conf any, ctx registry.Context) (any, error) {
	stanzas, err := stanzaList(conf)
	if err != nil {
		return nil, err
	}
	branches, err := bindProcessors(ctx, stanzas)
	if err != nil {
		return nil, err
	}
	return &switchProcessor{branches: branches}, nil
}

func (s *switchProcessor) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	for _, branch := range s.branches {
		result, err := branch.Process(ctx, m)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ferrors.ConditionalCheckFailed) {
			continue
		}
		return nil, err
	}
	return []message.Message{m}, nil
}

func (s *switchProcessor) Close(ctx context.Context) error {
	return closeAll(ctx, s.branches)
}
