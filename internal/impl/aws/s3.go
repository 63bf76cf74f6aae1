package aws

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/message"
	"github.com/rc1405/fiddler-sub001/internal/registry"
)

const s3SchemaDoc = `{
	"type": "object",
	"properties": {
		"bucket": {"type": "string"},
		"read_lines": {"type": "boolean"},
		"endpoint_url": {"type": "string"},
		"region": {"type": "string"},
		"force_path_style_urls": {"type": "boolean"},
		"delete_after_read": {"type": "boolean"},
		"credentials": {"type": "object"}
	},
	"required": ["bucket"]
}`

func init() {
	registry.MustRegister(registry.Input, "aws_s3", []byte(s3SchemaDoc), newS3Input)
	registry.MustRegister(registry.Output, "aws_s3", []byte(s3SchemaDoc), newS3Output)
}

func newS3Client(ctx context.Context, m map[string]any) (*s3.Client, error) {
	creds, err := decodeCredentials(m["credentials"])
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx, stringField(m, "region"), stringField(m, "endpoint_url"), creds)
	if err != nil {
		return nil, err
	}
	endpoint := stringField(m, "endpoint_url")
	pathStyle := boolField(m, "force_path_style_urls")
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
		o.UsePathStyle = pathStyle
	}), nil
}

// S3Input lists objects in a bucket and replays their contents, one message
// per object or one per line when read_lines is set, deleting the object
// after a successful ack when delete_after_read is set. Grounded on the
// no-queue branch of original_source/fiddler/tests/aws_s3_test.rs (config1),
// which lists the bucket directly rather than waiting on an SQS
// notification queue.
type S3Input struct {
	client          *s3.Client
	bucket          string
	readLines       bool
	deleteAfterRead bool

	pending []string
	lines   []string
	key     string
	listed  bool
}

func newS3Input(raw any, ctx registry.Context) (any, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(context.Background(), m)
	if err != nil {
		return nil, err
	}
	return &S3Input{
		client:          client,
		bucket:          stringField(m, "bucket"),
		readLines:       boolField(m, "read_lines"),
		deleteAfterRead: boolField(m, "delete_after_read"),
	}, nil
}

func (s *S3Input) listObjects(ctx context.Context) error {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket})
	if err != nil {
		return ferrors.NewProcessingError("aws_s3: list: %v", err)
	}
	for _, obj := range out.Contents {
		if obj.Key != nil {
			s.pending = append(s.pending, *obj.Key)
		}
	}
	s.listed = true
	return nil
}

func (s *S3Input) Read(ctx context.Context) (message.Message, message.AckFunc, error) {
	if !s.listed {
		if err := s.listObjects(ctx); err != nil {
			return message.Message{}, nil, err
		}
	}

	for len(s.lines) == 0 {
		if len(s.pending) == 0 {
			return message.Message{}, nil, ferrors.EndOfInput
		}
		key := s.pending[0]
		s.pending = s.pending[1:]

		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
		if err != nil {
			return message.Message{}, nil, ferrors.NewProcessingError("aws_s3: get %q: %v", key, err)
		}
		body, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return message.Message{}, nil, ferrors.NewProcessingError("aws_s3: read %q: %v", key, err)
		}

		s.key = key
		if s.readLines {
			scanner := bufio.NewScanner(bytes.NewReader(body))
			for scanner.Scan() {
				s.lines = append(s.lines, scanner.Text())
			}
		} else {
			s.lines = []string{string(body)}
		}
	}

	line := s.lines[0]
	s.lines = s.lines[1:]
	isLastLine := len(s.lines) == 0
	key := s.key

	var ack message.AckFunc
	if isLastLine && s.deleteAfterRead {
		ack = func(success bool) {
			if !success {
				return
			}
			_, _ = s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key})
		}
	}
	return message.New([]byte(line), nil, ""), ack, nil
}

func (s *S3Input) Close(context.Context) error { return nil }

// S3Output writes each message as its own object, keyed by a per-output
// sequence number counting up from 1; the corpus fixtures only exercise aws_s3 as an input, so
// this mirrors the same bucket/credentials shape for symmetry.
type S3Output struct {
	client *s3.Client
	bucket string
	next   int
}

func newS3Output(raw any, ctx registry.Context) (any, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(context.Background(), m)
	if err != nil {
		return nil, err
	}
	return &S3Output{client: client, bucket: stringField(m, "bucket")}, nil
}

func (s *S3Output) Write(ctx context.Context, m message.Message) error {
	s.next++
	key := strconv.Itoa(s.next)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(m.Payload),
	})
	if err != nil {
		return ferrors.NewOutputError("aws_s3: put %q: %v", key, err)
	}
	return nil
}

func (s *S3Output) Close(context.Context) error { return nil }
