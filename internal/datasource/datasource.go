// Package datasource abstracts the input storage tree the loaders read
// from. A Tree lists the record files below a prefix and opens them one at
// a time; implementations exist for a local directory (file.Dir) and an S3
// bucket (s3ds.Bucket).
package datasource

import (
	"context"
	"io"
)

// Tree is a read-only view of a storage location holding record files.
type Tree interface {
	// List returns the keys of all .json files at or below prefix, in
	// unspecified order. An empty result is not an error; deciding
	// whether zero inputs is fatal belongs to the caller.
	List(ctx context.Context, prefix string) ([]string, error)

	// Open opens one listed key for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
