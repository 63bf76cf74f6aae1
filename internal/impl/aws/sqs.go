package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const sqsSchemaDoc = `{
	"type": "object",
	"properties": {
		"queue_url": {"type": "string"},
		"endpoint_url": {"type": "string"},
		"region": {"type": "string"},
		"credentials": {"type": "object"}
	},
	"required": ["queue_url"]
}`

func init() {
	registry.MustRegister(registry.Input, "aws_sqs", []byte(sqsSchemaDoc), newSQSInput)
	registry.MustRegister(registry.Output, "aws_sqs", []byte(sqsSchemaDoc), newSQSOutput)
}

func newSQSClient(ctx context.Context, m map[string]any) (*sqs.Client, error) {
	creds, err := decodeCredentials(m["credentials"])
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx, stringField(m, "region"), stringField(m, "endpoint_url"), creds)
	if err != nil {
		return nil, err
	}
	endpoint := stringField(m, "endpoint_url")
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	}), nil
}

func decodeMap(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("config must be an object, got %T", raw)
	}
	return m, nil
}

// SQSInput polls a single SQS queue with a long-poll ReceiveMessage call per
// Read, deleting the message only once its ack fires successfully -
// mirroring the queue_url-based fixture in
// original_source/fiddler/tests/aws_sqs_test.rs.
type SQSInput struct {
	client   *sqs.Client
	queueURL string
}

func newSQSInput(raw any, ctx registry.Context) (any, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	client, err := newSQSClient(context.Background(), m)
	if err != nil {
		return nil, err
	}
	return &SQSInput{client: client, queueURL: stringField(m, "queue_url")}, nil
}

func (s *SQSInput) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &s.queueURL,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     5,
	})
	if err != nil {
		return message.Message{}, nil, ferrors.NewProcessingError("aws_sqs: receive: %v", err)
	}
	if len(out.Messages) == 0 {
		return message.Message{}, nil, ferrors.EndOfInput
	}
	msg := out.Messages[0]
	receiptHandle := msg.ReceiptHandle
	ack := func(success bool) {
		if !success {
			return
		}
		_, _ = s.client.DeleteMessage(context.Background(), &sqs.DeleteMessageInput{
			QueueUrl:      &s.queueURL,
			ReceiptHandle: receiptHandle,
		})
	}
	body := ""
	if msg.Body != nil {
		body = *msg.Body
	}
	return message.New([]byte(body), nil, ""), ack, nil
}

func (s *SQSInput) Close(context.Context) error { return nil }

// SQSOutput sends each message's payload as the body of a SendMessage call.
type SQSOutput struct {
	client   *sqs.Client
	queueURL string
}

func newSQSOutput(raw any, ctx registry.Context) (any, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	client, err := newSQSClient(context.Background(), m)
	if err != nil {
		return nil, err
	}
	return &SQSOutput{client: client, queueURL: stringField(m, "queue_url")}, nil
}

func (s *SQSOutput) Write(ctx context.Context, m message.Message) error {
	body := string(m.Payload)
	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &s.queueURL,
		MessageBody: &body,
	})
	if err != nil {
		return ferrors.NewOutputError("aws_sqs: send: %v", err)
	}
	return nil
}

func (s *SQSOutput) Close(context.Context) error { return nil }
