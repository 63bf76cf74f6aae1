package composite

import (
	"context"
	"errors"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const switchOutputSchema = `{"type": "array"}`

func init() {
	registry.MustRegister(registry.Output, "switch", []byte(switchOutputSchema), newSwitchOutput)
}

// switchOutput is an ordered list of check-outputs (spec.md §4.6): the first
// whose condition matches handles the write and the call returns. If every
// branch fails its condition, the message is silently dropped - the
// declared contract preserved from
// original_source/lib/src/modules/outputs/switch/mod.rs, where the Rust
// write loop falls out of the 'steps label and returns Ok(()) without
// having written anything.
type switchOutput struct {
	branches []plugin.Output
}

func newSwitchOutput(conf any, ctx registry.Context) (any, error) {
	stanzas, err := stanzaList(conf)
	if err != nil {
		return nil, err
	}

	branches := make([]plugin.Output, 0, len(stanzas))
	for i, stanza := range stanzas {
		bound, err := ctx.Bind(registry.Output, stanza)
		if err != nil {
			return nil, err
		}
		out, ok := bound.(plugin.Output)
		if !ok {
			return nil, ferrors.NewConfigFailedValidation("switch branch[%d] did not produce an output", i)
		}
		branches = append(branches, out)
	}

	return &switchOutput{branches: branches}, nil
}

func (s *switchOutput) Write(ctx context.Context, m message.Message) error {
	for _, branch := range s.branches {
		err := branch.Write(ctx, m)
		if err == nil {
			return nil
		}
		if errors.Is(err, ferrors.ConditionalCheckFailed) {
			continue
		}
		return err
	}
	// No branch matched: silent drop, per the declared switch-output
	// contract (spec.md §4.6). The pipeline's output loop still sees this
	// as a successful Write and emits a normal Output state event.
	return nil
}

func (s *switchOutput) Close(ctx context.Context) error {
	var firstErr error
	for _, branch := range s.branches {
		if err := branch.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
