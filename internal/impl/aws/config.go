// Package aws registers the "aws_sqs", "aws_s3", and "aws_kinesis"
// input/output plugins, grounded on
// original_source/fiddler/tests/aws_sqs_test.rs,
// original_source/fiddler/tests/aws_s3_test.rs, and
// original_source/fiddler/src/modules/aws/aws_kinesis.rs. It uses the real
// AWS SDK for Go v2 packages the teacher's go.mod already vendors
// (aws-sdk-go-v2/{config,credentials,service/{sqs,s3,kinesis}}).
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
)

// staticCredentials mirrors the Rust fixtures' "credentials: {access_key_id,
// secret_access_key}" stanza.
type staticCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

func decodeCredentials(raw any) (*staticCredentials, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.NewConfigFailedValidation("credentials must be an object, got %T", raw)
	}
	c := &staticCredentials{}
	if v, ok := m["access_key_id"].(string); ok {
		c.AccessKeyID = v
	}
	if v, ok := m["secret_access_key"].(string); ok {
		c.SecretAccessKey = v
	}
	if v, ok := m["session_token"].(string); ok {
		c.SessionToken = v
	}
	return c, nil
}

// loadConfig resolves an aws.Config the way every fixture in the corpus
// does: a region override, an optional endpoint override (LocalStack in the
// tests), and optional static credentials in place of the default chain.
func loadConfig(ctx context.Context, region, endpointURL string, creds *staticCredentials) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if creds != nil {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, ferrors.NewConfigFailedValidation("aws: unable to load config: %v", err)
	}
	return cfg, nil
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolField(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}
