// Package amqp registers the "amqp_0_9" input/output, consuming from a
// declared queue and publishing to a fixed exchange/routing key. Grounded
// on original_source/fiddler/tests/amqp_test.rs's config fixture (input:
// url/queue/consumer_tag; output: url/exchange/routing_key/persistent),
// using github.com/rabbitmq/amqp091-go - the maintained Go client for the
// AMQP 0-9-1 protocol the Rust fixture's lapin crate also speaks.
package amqp

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const inputSchemaDoc = `{
	"type": "object",
	"properties": {
		"url": {"type": "string"},
		"queue": {"type": "string"},
		"consumer_tag": {"type": "string"}
	},
	"required": ["url", "queue"]
}`

const outputSchemaDoc = `{
	"type": "object",
	"properties": {
		"url": {"type": "string"},
		"exchange": {"type": "string"},
		"routing_key": {"type": "string"},
		"persistent": {"type": "boolean"}
	},
	"required": ["url", "exchange", "routing_key"]
}`

func init() {
	registry.MustRegister(registry.Input, "amqp_0_9", []byte(inputSchemaDoc), newInput)
	registry.MustRegister(registry.Output, "amqp_0_9", []byte(outputSchemaDoc), newOutput)
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, ferrors.NewConfigFailedValidation("amqp: dial: %v", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, ferrors.NewConfigFailedValidation("amqp: open channel: %v", err)
	}
	return conn, ch, nil
}

// Input consumes deliveries from a declared queue, acking each delivery
// only once the tracker's ack fires successfully.
type Input struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	deliveries <-chan amqp.Delivery
}

func newInput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("amqp config must be an object, got %T", raw)
	}
	url, _ := m["url"].(string)
	queue, _ := m["queue"].(string)
	consumerTag, _ := m["consumer_tag"].(string)

	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}
	deliveries, err := ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, ferrors.NewConfigFailedValidation("amqp: consume %q: %v", queue, err)
	}

	return &Input{conn: conn, ch: ch, queue: queue, deliveries: deliveries}, nil
}

func (in *Input) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	select {
	case <-ctx.Done():
		return message.Message{}, nil, ferrors.EndOfInput
	case d, ok := <-in.deliveries:
		if !ok {
			return message.Message{}, nil, ferrors.EndOfInput
		}
		ack := func(success bool) {
			if success {
				_ = d.Ack(false)
			} else {
				_ = d.Nack(false, true)
			}
		}
		return message.New(d.Body, nil, ""), ack, nil
	}
}

func (in *Input) Close(context.Context) error {
	in.ch.Close()
	return in.conn.Close()
}

// Output publishes each message to a fixed exchange/routing key.
type Output struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
	persistent bool
}

func newOutput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("amqp config must be an object, got %T", raw)
	}
	url, _ := m["url"].(string)
	exchange, _ := m["exchange"].(string)
	routingKey, _ := m["routing_key"].(string)
	persistent, _ := m["persistent"].(bool)

	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}

	return &Output{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey, persistent: persistent}, nil
}

func (out *Output) Write(ctx context.Context, m message.Message) error {
	deliveryMode := amqp.Transient
	if out.persistent {
		deliveryMode = amqp.Persistent
	}
	err := out.ch.PublishWithContext(ctx, out.exchange, out.routingKey, false, false, amqp.Publishing{
		DeliveryMode: deliveryMode,
		Body:         m.Payload,
	})
	if err != nil {
		return ferrors.NewOutputError("amqp: publish: %v", err)
	}
	return nil
}

func (out *Output) Close(context.Context) error {
	out.ch.Close()
	return out.conn.Close()
}
