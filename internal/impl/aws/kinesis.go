package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/google/uuid"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const kinesisInputSchemaDoc = `{
	"type": "object",
	"properties": {
		"stream_name": {"type": "string"},
		"shard_id": {"type": "string"},
		"shard_iterator_type": {"type": "string"},
		"region": {"type": "string"},
		"endpoint_url": {"type": "string"},
		"credentials": {"type": "object"}
	},
	"required": ["stream_name"]
}`

const kinesisOutputSchemaDoc = `{
	"type": "object",
	"properties": {
		"stream_name": {"type": "string"},
		"partition_key": {"type": "string"},
		"region": {"type": "string"},
		"endpoint_url": {"type": "string"},
		"credentials": {"type": "object"}
	},
	"required": ["stream_name"]
}`

func init() {
	registry.MustRegister(registry.Input, "aws_kinesis", []byte(kinesisInputSchemaDoc), newKinesisInput)
	registry.MustRegister(registry.Output, "aws_kinesis", []byte(kinesisOutputSchemaDoc), newKinesisOutput)
}

func newKinesisClient(ctx context.Context, m map[string]any) (*kinesis.Client, error) {
	creds, err := decodeCredentials(m["credentials"])
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx, stringField(m, "region"), stringField(m, "endpoint_url"), creds)
	if err != nil {
		return nil, err
	}
	endpoint := stringField(m, "endpoint_url")
	return kinesis.NewFromConfig(cfg, func(o *kinesis.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	}), nil
}

func parseShardIteratorType(s string) types.ShardIteratorType {
	switch strings.ToUpper(s) {
	case "TRIM_HORIZON":
		return types.ShardIteratorTypeTrimHorizon
	case "AT_TIMESTAMP":
		return types.ShardIteratorTypeAtTimestamp
	case "AT_SEQUENCE_NUMBER":
		return types.ShardIteratorTypeAtSequenceNumber
	case "AFTER_SEQUENCE_NUMBER":
		return types.ShardIteratorTypeAfterSequenceNumber
	default:
		return types.ShardIteratorTypeLatest
	}
}

// KinesisInput iterates one shard of a stream, re-fetching a fresh shard
// iterator once the current one is exhausted. Grounded on
// original_source/fiddler/src/modules/aws/aws_kinesis.rs's KinesisInputConfig
// (stream_name, shard_id, shard_iterator_type, batch_size) and
// original_source/fiddler/tests/kinesis_test.rs.
type KinesisInput struct {
	client       *kinesis.Client
	streamName   string
	shardID      string
	iteratorType types.ShardIteratorType

	iterator *string
	records  []types.Record
}

func newKinesisInput(raw any, ctx registry.Context) (any, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	client, err := newKinesisClient(context.Background(), m)
	if err != nil {
		return nil, err
	}
	in := &KinesisInput{
		client:       client,
		streamName:   stringField(m, "stream_name"),
		shardID:      stringField(m, "shard_id"),
		iteratorType: types.ShardIteratorTypeLatest,
	}
	if v := stringField(m, "shard_iterator_type"); v != "" {
		in.iteratorType = parseShardIteratorType(v)
	}
	return in, nil
}

func (k *KinesisInput) resolveShardID(ctx context.Context) (string, error) {
	if k.shardID != "" {
		return k.shardID, nil
	}
	out, err := k.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{StreamName: &k.streamName})
	if err != nil {
		return "", ferrors.NewProcessingError("aws_kinesis: describe stream: %v", err)
	}
	if len(out.StreamDescription.Shards) == 0 {
		return "", ferrors.NewProcessingError("aws_kinesis: stream %q has no shards", k.streamName)
	}
	return *out.StreamDescription.Shards[0].ShardId, nil
}

func (k *KinesisInput) ensureIterator(ctx context.Context) error {
	if k.iterator != nil {
		return nil
	}
	shardID, err := k.resolveShardID(ctx)
	if err != nil {
		return err
	}
	out, err := k.client.GetShardIterator(ctx, &kinesis.GetShardIteratorInput{
		StreamName:        &k.streamName,
		ShardId:           &shardID,
		ShardIteratorType: k.iteratorType,
	})
	if err != nil {
		return ferrors.NewProcessingError("aws_kinesis: get shard iterator: %v", err)
	}
	k.iterator = out.ShardIterator
	return nil
}

func (k *KinesisInput) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	for len(k.records) == 0 {
		if err := k.ensureIterator(ctx); err != nil {
			return message.Message{}, nil, err
		}
		out, err := k.client.GetRecords(ctx, &kinesis.GetRecordsInput{ShardIterator: k.iterator})
		if err != nil {
			return message.Message{}, nil, ferrors.NewProcessingError("aws_kinesis: get records: %v", err)
		}
		k.iterator = out.NextShardIterator
		if len(out.Records) == 0 {
			return message.Message{}, nil, ferrors.EndOfInput
		}
		k.records = out.Records
	}
	rec := k.records[0]
	k.records = k.records[1:]
	return message.New(rec.Data, nil, ""), nil, nil
}

func (k *KinesisInput) Close(context.Context) error { return nil }

// KinesisOutput puts each message as one record, using a fixed
// partition_key when configured and a fresh random one per record
// otherwise, matching the Rust output config's documented default.
type KinesisOutput struct {
	client       *kinesis.Client
	streamName   string
	partitionKey string
}

func newKinesisOutput(raw any, ctx registry.Context) (any, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	client, err := newKinesisClient(context.Background(), m)
	if err != nil {
		return nil, err
	}
	return &KinesisOutput{
		client:       client,
		streamName:   stringField(m, "stream_name"),
		partitionKey: stringField(m, "partition_key"),
	}, nil
}

func (k *KinesisOutput) Write(ctx context.Context, m message.Message) error {
	partitionKey := k.partitionKey
	if partitionKey == "" {
		partitionKey = uuid.New().String()
	}
	_, err := k.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   &k.streamName,
		Data:         m.Payload,
		PartitionKey: &partitionKey,
	})
	if err != nil {
		return ferrors.NewOutputError("aws_kinesis: put record: %v", err)
	}
	return nil
}

func (k *KinesisOutput) Close(context.Context) error { return nil }
