// Package elasticsearch registers the "elasticsearch" output, which
// indexes one document per message. Grounded on
// original_source/lib/src/modules/outputs/elasticsearch/mod.rs's Elastic
// output (url/username/password/cloud_id/index configuration, one bulk
// index operation per message), using github.com/olivere/elastic/v7 in
// place of the Rust elasticsearch crate - the same third-party client the
// rest of the corpus's Go services reach for.
package elasticsearch

import (
	"context"

	"github.com/olivere/elastic/v7"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const schemaDoc = `{
	"type": "object",
	"properties": {
		"url": {"type": "string"},
		"username": {"type": "string"},
		"password": {"type": "string"},
		"index": {"type": "string"}
	},
	"required": ["index"]
}`

func init() {
	registry.MustRegister(registry.Output, "elasticsearch", []byte(schemaDoc), newElastic)
}

// Elastic indexes each message's payload as one JSON document through a
// single-document Index call.
type Elastic struct {
	client *elastic.Client
	index  string
}

func newElastic(raw any, ctx registry.Context) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("elasticsearch config must be an object, got %T", raw)
	}
	index, _ := m["index"].(string)
	if index == "" {
		return nil, ferrors.NewConfigFailedValidation("elasticsearch.index is required")
	}

	opts := []elastic.ClientOptionFunc{}
	if url, ok := m["url"].(string); ok && url != "" {
		opts = append(opts, elastic.SetURL(url))
	}
	username, hasUser := m["username"].(string)
	password, _ := m["password"].(string)
	if hasUser && username != "" {
		opts = append(opts, elastic.SetBasicAuth(username, password))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, ferrors.NewConfigFailedValidation("elasticsearch: unable to determine connection type: %v", err)
	}
	return &Elastic{client: client, index: index}, nil
}

func (e *Elastic) Write(ctx context.Context, m message.Message) error {
	_, err := e.client.Index().
		Index(e.index).
		BodyString(string(m.Payload)).
		Do(ctx)
	if err != nil {
		return ferrors.NewOutputError("elasticsearch: %v", err)
	}
	return nil
}

func (e *Elastic) Close(context.Context) error { return nil }
