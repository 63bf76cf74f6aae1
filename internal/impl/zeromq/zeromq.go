// Package zeromq registers the "zeromq" output, sending each message's
// payload over a push or pub socket. Grounded on
// original_source/fiddler/src/modules/outputs/zeromq/mod.rs's
// ZmqOutputConfig (socket_type, bind, connect), using
// github.com/pebbe/zmq4 - the cgo binding to libzmq the teacher's go.mod
// already vendors, in place of the Rust zeromq crate's async socket.
package zeromq

import (
	"context"
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"socket_type": {"type": "string", "enum": ["push", "pub"]},
		"bind": {"type": "string"},
		"connect": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["socket_type"]
}`

func init() {
	registry.MustRegister(registry.Output, "zeromq", []byte(schemaDoc), newOutput)
}

// Output wraps a single push or pub socket, serialized behind a mutex since
// zmq4 sockets are not safe for concurrent use.
type Output struct {
	mu     sync.Mutex
	socket *zmq.Socket
}

func newOutput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("zeromq config must be an object, got %T", raw)
	}
	socketType, _ := m["socket_type"].(string)

	var zt zmq.Type
	switch socketType {
	case "push":
		zt = zmq.PUSH
	case "pub":
		zt = zmq.PUB
	default:
		return nil, ferrors.NewConfigFailedValidation("zeromq.socket_type must be 'push' or 'pub'")
	}

	socket, err := zmq.NewSocket(zt)
	if err != nil {
		return nil, ferrors.NewConfigFailedValidation("zeromq: new socket: %v", err)
	}

	if bind, ok := m["bind"].(string); ok && bind != "" {
		if err := socket.Bind(bind); err != nil {
			socket.Close()
			return nil, ferrors.NewConfigFailedValidation("zeromq: bind %q: %v", bind, err)
		}
	}
	if connect, ok := m["connect"].([]any); ok {
		for _, v := range connect {
			addr, _ := v.(string)
			if addr == "" {
				continue
			}
			if err := socket.Connect(addr); err != nil {
				socket.Close()
				return nil, ferrors.NewConfigFailedValidation("zeromq: connect %q: %v", addr, err)
			}
		}
	}

	return &Output{socket: socket}, nil
}

func (o *Output) Write(ctx context.Context, m message.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.socket.SendBytes(m.Payload, 0); err != nil {
		return ferrors.NewOutputError("zeromq: send: %v", err)
	}
	return nil
}

func (o *Output) Close(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.socket.Close()
}
