package composite

import (
	"context"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/plugin"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const checkOutputSchema = `{
	"type": "object",
	"properties": {
		"label": {"type": "string"},
		"condition": {"type": "string"},
		"output": {"type": "object"}
	},
	"required": ["condition", "output"]
}`

func init() {
	registry.MustRegister(registry.Output, "check", []byte(checkOutputSchema), newCheckOutput)
}

// checkOutput gates a nested output behind a JMESPath condition; a failed
// condition surfaces as ConditionalCheckFailed so an enclosing switchOutput
// can fall through to its next branch (spec.md §4.6). Grounded on
// original_source/lib/src/modules/outputs/switch/check.rs.
type checkOutput struct {
	label     string
	condition string
	output    plugin.Output
}

func newCheckOutput(conf any, ctx registry.Context) (any, error) {
	m, err := stanzaMap(conf)
	if err != nil {
		return nil, err
	}

	condition, _ := m["condition"].(string)
	label, _ := m["label"].(string)

	outStanza, ok := m["output"]
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("check output requires an output field")
	}
	innerStanza, err := stanzaMap(outStanza)
	if err != nil {
		return nil, err
	}
	outAny, err := ctx.Bind(registry.Output, innerStanza)
	if err != nil {
		return nil, err
	}
	out, ok := outAny.(plugin.Output)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("check.output did not produce an output")
	}

	return &checkOutput{label: label, condition: condition, output: out}, nil
}

func (c *checkOutput) Write(ctx context.Context, m message.Message) error {
	if err := evaluateCondition(c.condition, m.Payload); err != nil {
		return err
	}
	return c.output.Write(ctx, m)
}

func (c *checkOutput) Close(ctx context.Context) error {
	return c.output.Close(ctx)
}
