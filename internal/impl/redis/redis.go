// Package redis registers the "redis_list" input/output list-mode plugin:
// BLPOP-based input, RPUSH-based output against a single key. Grounded on
// original_source/fiddler/tests/redis_test.rs's list-mode fixture (url,
// mode: list, keys, list_command: blpop, timeout), using
// github.com/redis/go-redis/v9 - the client the Rust fixture's own redis
// crate test maps onto directly.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"url": {"type": "string"},
		"mode": {"type": "string", "enum": ["list"]},
		"keys": {"type": "array", "items": {"type": "string"}},
		"list_command": {"type": "string", "enum": ["blpop", "brpop"]},
		"timeout": {"type": "number"}
	},
	"required": ["url", "keys"]
}`

func init() {
	registry.MustRegister(registry.Input, "redis_list", []byte(schemaDoc), newInput)
	registry.MustRegister(registry.Output, "redis_list", []byte(schemaDoc), newOutput)
}

func newClient(m map[string]any) (*goredis.Client, error) {
	url, _ := m["url"].(string)
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, ferrors.NewConfigFailedValidation("redis: parse url: %v", err)
	}
	return goredis.NewClient(opts), nil
}

func decodeTimeout(m map[string]any) time.Duration {
	switch v := m["timeout"].(type) {
	case float64:
		return time.Duration(v) * time.Second
	case int:
		return time.Duration(v) * time.Second
	default:
		return time.Second
	}
}

func decodeKeys(m map[string]any) []string {
	list, _ := m["keys"].([]any)
	keys := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}

// Input BLPOPs (or BRPOPs) from one or more list keys, blocking up to
// timeout seconds per call and reporting end of input on a timeout with no
// message.
type Input struct {
	client  *goredis.Client
	keys    []string
	timeout time.Duration
	brpop   bool
}

func newInput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("redis config must be an object, got %T", raw)
	}
	client, err := newClient(m)
	if err != nil {
		return nil, err
	}
	return &Input{
		client:  client,
		keys:    decodeKeys(m),
		timeout: decodeTimeout(m),
		brpop:   m["list_command"] == "brpop",
	}, nil
}

func (in *Input) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	pop := in.client.BLPop
	if in.brpop {
		pop = in.client.BRPop
	}
	result, err := pop(ctx, in.timeout, in.keys...).Result()
	if err == goredis.Nil {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	if err != nil {
		return message.Message{}, nil, ferrors.NewProcessingError("redis: %v", err)
	}
	if len(result) < 2 {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	return message.New([]byte(result[1]), nil, ""), nil, nil
}

func (in *Input) Close(context.Context) error { return in.client.Close() }

// Output RPUSHes each message's payload onto a fixed key.
type Output struct {
	client *goredis.Client
	key    string
}

func newOutput(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("redis config must be an object, got %T", raw)
	}
	client, err := newClient(m)
	if err != nil {
		return nil, err
	}
	keys := decodeKeys(m)
	if len(keys) == 0 {
		return nil, ferrors.NewConfigFailedValidation("redis.keys must name at least one key")
	}
	return &Output{client: client, key: keys[0]}, nil
}

func (out *Output) Write(ctx context.Context, m message.Message) error {
	if err := out.client.RPush(ctx, out.key, m.Payload).Err(); err != nil {
		return ferrors.NewOutputError("redis: %v", err)
	}
	return nil
}

func (out *Output) Close(context.Context) error { return out.client.Close() }
