package composite

import (
	"context"

	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const checkProcessorSchema = `{
	"type": "object",
	"properties": {
		"label": {"type": "string"},
		"condition": {"type": "string"},
		"processors": {"type": "array"}
	},
	"required": ["condition", "processors"]
}`

func init() {
	registry.MustRegister(registry.Processor, "check", []byte(checkProcessorSchema), newCheckProcessor)
}

// checkProcessor runs its sub-pipeline only when condition matches the
// incoming payload, per spec.md §4.6's check-processor definition. Grounded
// on original_source/fiddler/src/modules/processors/switch/check.rs.
type checkProcessor struct {
	label      string
	condition  string
	processors []plugin.Processor
}

func newCheckProcessor(conf any, ctx registry.Context) (any, error) {
	m, err := stanzaMap(conf)
	if err != nil {
		return nil, err
	}

	condition, _ := m["condition"].(string)
	label, _ := m["label"].(string)

	stanzas, err := stanzaList(m["processors"])
	if err != nil {
		return nil, err
	}
	procs, err := bindProcessors(ctx, stanzas)
	if err != nil {
		return nil, err
	}

	return &checkProcessor{label: label, condition: condition, processors: procs}, nil
}

func (c *checkProcessor) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	if err := evaluateCondition(c.condition, m.Payload); err != nil {
		return nil, err
	}
	return runProcessorChain(ctx, c.processors, []message.Message{m})
}

func (c *checkProcessor) Close(ctx context.Context) error {
	return closeAll(ctx, c.processors)
}
