// Package mqtt registers the "mqtt" output, publishing each message's
// payload to a fixed topic. Grounded on
// original_source/fiddler/src/modules/outputs/mqtt/mod.rs's MqttOutputConfig
// (broker, client_id, topic, qos, retain, username/password), using
// github.com/eclipse/paho.mqtt.golang in place of the Rust rumqttc crate -
// the teacher's own go.mod already vendors it for this exact concern.
package mqtt

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"broker": {"type": "string"},
		"client_id": {"type": "string"},
		"topic": {"type": "string"},
		"qos": {"type": "number"},
		"retain": {"type": "boolean"},
		"username": {"type": "string"},
		"password": {"type": "string"}
	},
	"required": ["broker", "topic"]
}`

func init() {
	registry.MustRegister(registry.Output, "mqtt", []byte(schemaDoc), newOutput)
}

// Output publishes each message to a fixed MQTT topic over a single
// long-lived client connection.
type Output struct {
	client mqtt.Client
	topic  string
	qos    byte
	retain bool
}

func newOutput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("mqtt config must be an object, got %T", raw)
	}
	broker, _ := m["broker"].(string)
	topic, _ := m["topic"].(string)
	if broker == "" || topic == "" {
		return nil, ferrors.NewConfigFailedValidation("mqtt.broker and mqtt.topic are required")
	}

	clientID, _ := m["client_id"].(string)
	if clientID == "" {
		clientID = fmt.Sprintf("fiddler_%s", uuid.New().String())
	}

	qos := byte(1)
	switch v := m["qos"].(type) {
	case float64:
		qos = byte(v)
	case int:
		qos = byte(v)
	}
	retain, _ := m["retain"].(bool)

	opts := mqtt.NewClientOptions().AddBroker(normalizeBroker(broker)).SetClientID(clientID)
	if username, ok := m["username"].(string); ok && username != "" {
		opts.SetUsername(username)
		if password, ok := m["password"].(string); ok {
			opts.SetPassword(password)
		}
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, ferrors.NewConfigFailedValidation("mqtt: connect: %v", token.Error())
	}

	return &Output{client: client, topic: topic, qos: qos, retain: retain}, nil
}

// normalizeBroker accepts the same "tcp://host:port", "mqtt://host:port", or
// bare "host:port" forms the Rust parse_broker helper does, re-expressed for
// paho's AddBroker (which wants a scheme).
func normalizeBroker(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

func (o *Output) Write(ctx context.Context, m message.Message) error {
	token := o.client.Publish(o.topic, o.qos, o.retain, m.Payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return ferrors.NewOutputError("mqtt: publish: %v", err)
	}
	return nil
}

func (o *Output) Close(context.Context) error {
	o.client.Disconnect(250)
	return nil
}
