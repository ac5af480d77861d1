// Package s3ds implements the datasource tree on top of an S3 bucket.
//
// Credentials come from the default AWS chain; the pipeline config loads
// the access key pair into the environment before this client is built.
package s3ds

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Bucket is an S3-backed data source tree.
type Bucket struct {
	client *s3.S3
	bucket string
}

// Config selects the bucket and region. Endpoint is optional and exists
// for S3-compatible stores (e.g. MinIO) in integration setups.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

// New builds a Bucket from Config using a fresh session.
func New(cfg Config) (*Bucket, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3ds: bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3ds: session: %w", err)
	}
	return &Bucket{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

// List pages through the bucket and returns all .json object keys under
// prefix.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	}
	err := b.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := aws.StringValue(obj.Key)
				if strings.HasSuffix(key, ".json") {
					keys = append(keys, key)
				}
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("s3ds: list s3://%s/%s: %w", b.bucket, prefix, err)
	}
	return keys, nil
}

// Open streams one object's body.
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3ds: get s3://%s/%s: %w", b.bucket, key, err)
	}
	return out.Body, nil
}
