// Package decode registers the "decode" processor, which decodes a
// message's payload according to a configured algorithm. The base64
// variant is grounded on
// original_source/fiddler/src/modules/processors/decode/mod.rs, whose only
// algorithm variant is standard base64 (stdlib encoding/base64 is the
// idiomatic substitute for the Rust base64 crate's BASE64_STANDARD
// engine); the gzip variant supplements it with stdlib compress/gzip,
// since SPEC_FULL.md's domain-stack table names both algorithms for this
// processor.
package decode

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"io"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"algorithm": {"type": "string", "enum": ["base64", "gzip"]}
	}
}`

func init() {
	registry.MustRegister(registry.Processor, "decode", []byte(schemaDoc), newDecoder)
}

// Decoder decodes an incoming payload according to its configured
// algorithm. newDecoder selects standard base64 when no algorithm is
// configured, matching the Rust Algoritym enum's #[default] variant.
type Decoder struct {
	algorithm string
}

func newDecoder(raw any, ctx registry.Context) (any, error) {
	d := &Decoder{algorithm: "base64"}
	if raw == nil {
		return d, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("decode config must be an object, got %T", raw)
	}
	if v, ok := m["algorithm"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, ferrors.NewConfigFailedValidation("decode.algorithm must be a string, got %T", v)
		}
		d.algorithm = s
	}
	return d, nil
}

func (d *Decoder) Process(ctx context.Context, m message.Message) ([]message.Message, error) {
	switch d.algorithm {
	case "base64":
		out, err := base64.StdEncoding.DecodeString(string(m.Payload))
		if err != nil {
			return nil, ferrors.NewProcessingError("decode: %v", err)
		}
		return []message.Message{message.New(out, m.Metadata, m.StreamID)}, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(m.Payload))
		if err != nil {
			return nil, ferrors.NewProcessingError("decode: %v", err)
		}
		out, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, ferrors.NewProcessingError("decode: %v", err)
		}
		return []message.Message{message.New(out, m.Metadata, m.StreamID)}, nil
	default:
		return nil, ferrors.NewProcessingError("decode: unsupported algorithm %q", d.algorithm)
	}
}

func (d *Decoder) Close(context.Context) error { return nil }
