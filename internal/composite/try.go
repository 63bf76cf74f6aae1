package composite

import (
	"context"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const tryProcessorSchema = `{
	"type": "object",
	"properties": {
		"processor": {"type": "object"},
		"catch": {"type": "array"}
	},
	"required": ["processor"]
}`

func init() {
	registry.MustRegister(registry.Processor, "try", []byte(tryProcessorSchema), newTryProcessor)
}

// tryProcessor runs a primary processor and, on any error, reruns a catch
// chain against the *original* message (spec.md §4.6). Grounded on
// original_source/fiddler/src/modules/processors/exception/mod.rs.
type tryProcessor struct {
	primary plugin.Processor
	catch   []plugin.Processor
}

func newTryProcessor(conf any, ctx registry.Context) (any, error) {
	m, err := stanzaMap(conf)
	if err != nil {
		return nil, err
	}

	procStanza, ok := m["processor"]
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("try requires a processor field")
	}
	innerStanza, err := stanzaMap(procStanza)
	if err != nil {
		return nil, err
	}
	primaryAny, err := ctx.Bind(registry.Processor, innerStanza)
	if err != nil {
		return nil, err
	}
	primary, ok := primaryAny.(plugin.Processor)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("try.processor did not produce a processor")
	}

	var catch []plugin.Processor
	if raw, ok := m["catch"]; ok {
		stanzas, err := stanzaList(raw)
		if err != nil {
			return nil, err
		}
		catch, err = bindProcessors(ctx, stanzas)
		if err != nil {
			return nil, err
		}
	}

	return &tryProcessor{primary: primary, catch: catch}, nil
}

func (t *tryProcessor) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	result, err := t.primary.Process(ctx, m)
	if err == nil {
		return result, nil
	}
	return runProcessorChain(ctx, t.catch, []message.Message{m})
}

func (t *tryProcessor) Close(ctx context.Context) error {
	if err := t.primary.Close(ctx); err != nil {
		return err
	}
	return closeAll(ctx, t.catch)
}
