// Package storage persists derived tables as partitioned parquet trees.
//
// Files are always produced locally first (staging) and then published to
// the output root through a Sink. For a local root that is a copy; for S3
// it is an upload. Publishing per completed file keeps a failed run from
// leaving half-written parquet behind, though cross-table atomicity is
// explicitly out of scope: a run that fails on the third table leaves the
// first two published.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Sink publishes staged parquet files to the output location.
type Sink interface {
	// Reset removes everything under prefix so the run has full-rewrite
	// semantics. A prefix that does not exist yet is not an error.
	Reset(ctx context.Context, prefix string) error

	// Publish copies the staged file at localPath to key under the
	// output root.
	Publish(ctx context.Context, localPath, key string) error
}

// LocalSink publishes into a directory tree.
type LocalSink struct{ root string }

// NewLocalSink returns a Sink rooted at dir.
func NewLocalSink(dir string) *LocalSink { return &LocalSink{root: dir} }

func (s *LocalSink) Reset(ctx context.Context, prefix string) error {
	path := filepath.Join(s.root, filepath.FromSlash(prefix))
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("reset %s: %w", path, err)
	}
	return nil
}

func (s *LocalSink) Publish(ctx context.Context, localPath, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	in, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return out.Close()
}

// S3Sink publishes into an S3 bucket via the transfer manager.
type S3Sink struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

// S3Config selects the output bucket.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

// NewS3Sink builds an S3Sink with a fresh session; credentials come from
// the default AWS chain.
func NewS3Sink(cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 sink: session: %w", err)
	}
	return &S3Sink{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
	}, nil
}

func (s *S3Sink) Reset(ctx context.Context, prefix string) error {
	prefix = strings.TrimPrefix(prefix, "/")
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	var pageErr error
	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			if len(page.Contents) == 0 {
				return true
			}
			del := &s3.Delete{}
			for _, obj := range page.Contents {
				del.Objects = append(del.Objects, &s3.ObjectIdentifier{Key: obj.Key})
			}
			_, pageErr = s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: del,
			})
			return pageErr == nil
		})
	if err == nil {
		err = pageErr
	}
	if err != nil {
		return fmt.Errorf("reset s3://%s/%s: %w", s.bucket, prefix, err)
	}
	return nil
}

func (s *S3Sink) Publish(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	defer f.Close()
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("publish s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
