// Package load implements the two input loaders: the song catalog and the
// user activity log.
//
// Both walk a datasource tree, parse NDJSON files concurrently, and coerce
// raw records into the typed schema shapes. The per-record failure policy
// is configurable: the default tolerates partial corruption (a malformed
// record is skipped and counted, the batch continues), while Strict aborts
// on the first bad record. A location that lists files but yields zero
// usable records is a load error either way.
package load

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"sparkifyetl/internal/datasource"
	jsonparser "sparkifyetl/internal/parser/json"
	"sparkifyetl/internal/schema"
	"sparkifyetl/pkg/records"
)

// Options controls loader concurrency and the bad-record policy.
type Options struct {
	// Workers bounds the number of files read concurrently. Values <= 0
	// fall back to 4.
	Workers int

	// Strict aborts the load on the first malformed record instead of
	// skipping it.
	Strict bool

	// OnBadRecord, when non-nil, observes every skipped record: the file
	// key, the 1-based line number, and the parse/coerce error.
	OnBadRecord func(key string, line int, err error)
}

// Stats summarizes one load.
type Stats struct {
	Files   int
	Records int64
	Skipped int64
}

// Catalog loads song/artist catalog records from every .json file under
// prefix. No filtering is applied; all catalog records are eligible.
func Catalog(ctx context.Context, tree datasource.Tree, prefix string, opt Options) ([]schema.SongRecord, Stats, error) {
	return loadFiles(ctx, tree, prefix, opt, schema.SongFromRecord)
}

// Events loads user activity records from every .json file under prefix.
// All pages are retained; the song-play filter is applied downstream so
// that the users dimension can see non-play events too.
func Events(ctx context.Context, tree datasource.Tree, prefix string, opt Options) ([]schema.EventRecord, Stats, error) {
	return loadFiles(ctx, tree, prefix, opt, schema.EventFromRecord)
}

func loadFiles[T any](
	ctx context.Context,
	tree datasource.Tree,
	prefix string,
	opt Options,
	coerce func(records.Record) (T, error),
) ([]T, Stats, error) {
	keys, err := tree.List(ctx, prefix)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load %s: %w", prefix, err)
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu    sync.Mutex
		out   []T
		stats = Stats{Files: len(keys)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			rc, err := tree.Open(gctx, key)
			if err != nil {
				return fmt.Errorf("load %s: %w", prefix, err)
			}
			defer rc.Close()

			var (
				local   []T
				skipped int64
			)
			bad := func(n int, err error) bool {
				skipped++
				if opt.OnBadRecord != nil {
					opt.OnBadRecord(key, n, err)
				}
				return !opt.Strict
			}
			err = jsonparser.Lines(rc, bad,
				func(line int, r records.Record) error {
					rec, err := coerce(r)
					if err != nil {
						if bad(line, err) {
							return nil
						}
						return fmt.Errorf("line %d: %w", line, err)
					}
					local = append(local, rec)
					return nil
				})
			if err != nil {
				return fmt.Errorf("load %s: %s: %w", prefix, key, err)
			}

			mu.Lock()
			out = append(out, local...)
			stats.Records += int64(len(local))
			stats.Skipped += skipped
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	if len(keys) > 0 && len(out) == 0 {
		return nil, stats, fmt.Errorf("load %s: %d file(s) listed but no records parsed", prefix, len(keys))
	}
	return out, stats, nil
}
