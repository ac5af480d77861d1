// Package main wires the lake ETL end-to-end: load the raw catalog and
// event trees, derive the five analytics tables, and publish them as
// partitioned parquet. This file keeps the CLI layer thin: it depends only
// on the Tree and Sink interfaces and constructs concrete backends in one
// place.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"sparkifyetl/internal/config"
	"sparkifyetl/internal/datasource"
	"sparkifyetl/internal/datasource/file"
	"sparkifyetl/internal/datasource/s3ds"
	"sparkifyetl/internal/load"
	"sparkifyetl/internal/metrics"
	"sparkifyetl/internal/schema"
	"sparkifyetl/internal/star"
	"sparkifyetl/internal/storage"
)

const badRecordSamples = 3

// counters holds cross-goroutine statistics for one run.
//
// All fields are updated atomically; the loaders run concurrently.
type counters struct {
	songFiles    atomic.Int64 // catalog files read
	songRecords  atomic.Int64 // catalog records coerced
	eventFiles   atomic.Int64 // event files read
	eventRecords atomic.Int64 // event records coerced
	skipped      atomic.Int64 // malformed records dropped (lenient mode)
	filesWritten atomic.Int64 // parquet files published
}

// errAgg aggregates bad-record errors across loader goroutines. Only the
// first N messages are retained for the end-of-run summary.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// Function variables used to introduce test seams. In production these point
// to the real constructors; tests can override them.
var (
	newTreeFn = newTree
	newSinkFn = newSink
)

// run executes the full pipeline described by p:
//
//	catalog + events (concurrent load)
//	    → star tables (4 dims concurrent, then the fact)
//	    → parquet staging
//	    → publish (full rewrite per table)
//
// Bad input records follow the configured tolerance policy: lenient skips
// and counts them, strict aborts the run on the first one. Per-stage
// durations and row counts are reported through the metrics package.
func run(ctx context.Context, p config.Pipeline) error {
	p = p.Defaulted()

	// Credentials first: any s3 client built below reads the ambient env.
	if p.S3.CredentialsFile != "" {
		if err := godotenv.Load(p.S3.CredentialsFile); err != nil {
			return fmt.Errorf("load credentials %s: %w", p.S3.CredentialsFile, err)
		}
	}

	tree, err := newTreeFn(p)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	sink, err := newSinkFn(p)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	stagingDir := p.Output.StagingDir
	if stagingDir == "" {
		dir, err := os.MkdirTemp("", "etl-staging-*")
		if err != nil {
			return fmt.Errorf("staging dir: %w", err)
		}
		defer os.RemoveAll(dir)
		stagingDir = dir
	}

	var (
		cnt      counters
		parseAgg = newErrAgg(badRecordSamples)
	)
	loadOpt := load.Options{
		Workers: p.Runtime.LoadWorkers,
		Strict:  p.Runtime.StrictParse,
		OnBadRecord: func(key string, line int, err error) {
			cnt.skipped.Add(1)
			parseAgg.add(fmt.Sprintf("%s:%d: %v", key, line, err))
		},
	}

	var (
		catalog []schema.SongRecord
		events  []schema.EventRecord
	)
	loadStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, stats, err := load.Catalog(gctx, tree, p.Input.SongPrefix, loadOpt)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		catalog = rows
		cnt.songFiles.Store(int64(stats.Files))
		cnt.songRecords.Store(stats.Records)
		metrics.RecordRows(p.Job, "catalog", stats.Records)
		return nil
	})
	g.Go(func() error {
		rows, stats, err := load.Events(gctx, tree, p.Input.LogPrefix, loadOpt)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		events = rows
		cnt.eventFiles.Store(int64(stats.Files))
		cnt.eventRecords.Store(stats.Records)
		metrics.RecordRows(p.Job, "events", stats.Records)
		return nil
	})
	err = g.Wait()
	metrics.RecordStep(p.Job, "load", err, time.Since(loadStart))
	if err != nil {
		return err
	}
	log.Printf("loaded: catalog=%d records (%d files) events=%d records (%d files) skipped=%d",
		cnt.songRecords.Load(), cnt.songFiles.Load(),
		cnt.eventRecords.Load(), cnt.eventFiles.Load(), cnt.skipped.Load())

	buildStart := time.Now()
	tables, err := star.Build(ctx, catalog, events)
	metrics.RecordStep(p.Job, "build", err, time.Since(buildStart))
	if err != nil {
		return fmt.Errorf("build tables: %w", err)
	}
	metrics.RecordRows(p.Job, "songplays", int64(len(tables.Songplays)))
	log.Printf("derived: songs=%d artists=%d time=%d users=%d songplays=%d",
		len(tables.Songs), len(tables.Artists), len(tables.Time),
		len(tables.Users), len(tables.Songplays))

	par := int64(p.Runtime.ParquetParallelism)
	if err := writeStage(ctx, p.Job, sink, stagingDir, schema.TableSongs, tables.Songs, schema.SongRow.Partition, par, &cnt); err != nil {
		return err
	}
	if err := writeStage(ctx, p.Job, sink, stagingDir, schema.TableArtists, tables.Artists, schema.ArtistRow.Partition, par, &cnt); err != nil {
		return err
	}
	if err := writeStage(ctx, p.Job, sink, stagingDir, schema.TableTime, tables.Time, schema.TimeRow.Partition, par, &cnt); err != nil {
		return err
	}
	if err := writeStage(ctx, p.Job, sink, stagingDir, schema.TableUsers, tables.Users, schema.UserRow.Partition, par, &cnt); err != nil {
		return err
	}
	if err := writeStage(ctx, p.Job, sink, stagingDir, schema.TableSongplays, tables.Songplays, schema.SongplayRow.Partition, par, &cnt); err != nil {
		return err
	}

	logBadRecordSummary(parseAgg)
	log.Printf("done: %d parquet files published, %d input records skipped",
		cnt.filesWritten.Load(), cnt.skipped.Load())
	return nil
}

// writeStage writes one table and records the stage metrics.
func writeStage[T any](
	ctx context.Context,
	job string,
	sink storage.Sink,
	stagingDir string,
	table string,
	rows []T,
	partitionOf func(T) string,
	parallel int64,
	cnt *counters,
) error {
	start := time.Now()
	n, err := storage.WriteTable(ctx, sink, stagingDir, table, rows, partitionOf, parallel)
	metrics.RecordStep(job, "write_"+table, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("write %s: %w", table, err)
	}
	cnt.filesWritten.Add(int64(n))
	metrics.RecordFiles(job, table, int64(n))
	log.Printf("wrote %s: %d rows, %d files", table, len(rows), n)
	return nil
}

// logBadRecordSummary prints the first few skipped-record errors. Only the
// first N unique messages (per errAgg) are shown.
func logBadRecordSummary(a *errAgg) {
	if a.count == 0 {
		return
	}
	log.Printf("bad records: %d (showing first %d)", a.count, len(a.first))
	for i, s := range a.first {
		log.Printf("  #%03d: %s", i+1, s)
	}
}

// newTree builds the input Tree for the configured kind.
func newTree(p config.Pipeline) (datasource.Tree, error) {
	switch p.Input.Kind {
	case "file":
		return file.NewDir(p.Input.Root), nil
	case "s3":
		return s3ds.New(s3ds.Config{
			Bucket:   p.Input.Root,
			Region:   p.S3.Region,
			Endpoint: p.S3.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unsupported input kind %q", p.Input.Kind)
	}
}

// newSink builds the output Sink for the configured kind.
func newSink(p config.Pipeline) (storage.Sink, error) {
	switch p.Output.Kind {
	case "file":
		return storage.NewLocalSink(p.Output.Root), nil
	case "s3":
		return storage.NewS3Sink(storage.S3Config{
			Bucket:   p.Output.Root,
			Region:   p.S3.Region,
			Endpoint: p.S3.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unsupported output kind %q", p.Output.Kind)
	}
}
