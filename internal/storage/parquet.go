package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// rowGroupSize mirrors the parquet default of 128 MiB row groups; the
// tables here are far smaller, so each partition ends up as one group.
const rowGroupSize = 128 * 1024 * 1024

// WriteTable writes rows as a hive-partitioned parquet tree for table.
//
// Rows are grouped by partitionOf (empty string means unpartitioned), each
// partition is written as one snappy-compressed file under stagingDir, and
// every completed file is published through sink at
//
//	<table>/<table>.parquet[/<partition path>]/part-00000.parquet
//
// The table prefix is reset first, giving full-rewrite semantics per run.
// Returns the number of files published.
func WriteTable[T any](
	ctx context.Context,
	sink Sink,
	stagingDir string,
	table string,
	rows []T,
	partitionOf func(T) string,
	parallel int64,
) (int, error) {
	if parallel <= 0 {
		parallel = 2
	}
	prefix := table + "/" + table + ".parquet"
	if err := sink.Reset(ctx, table); err != nil {
		return 0, fmt.Errorf("write %s: %w", table, err)
	}

	groups := make(map[string][]T)
	for _, r := range rows {
		p := partitionOf(r)
		groups[p] = append(groups[p], r)
	}

	// Deterministic write order keeps logs and failures reproducible.
	parts := make([]string, 0, len(groups))
	for p := range groups {
		parts = append(parts, p)
	}
	sort.Strings(parts)

	files := 0
	for _, part := range parts {
		select {
		case <-ctx.Done():
			return files, ctx.Err()
		default:
		}
		key := prefix
		if part != "" {
			key += "/" + part
		}
		key += "/part-00000.parquet"

		staged := filepath.Join(stagingDir, filepath.FromSlash(key))
		if err := writeParquetFile(staged, groups[part], parallel); err != nil {
			return files, fmt.Errorf("write %s: %w", table, err)
		}
		if err := sink.Publish(ctx, staged, key); err != nil {
			return files, fmt.Errorf("write %s: %w", table, err)
		}
		files++
	}
	return files, nil
}

func writeParquetFile[T any](path string, rows []T, parallel int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(T), parallel)
	if err != nil {
		fw.Close()
		return fmt.Errorf("parquet writer %s: %w", path, err)
	}
	pw.RowGroupSize = rowGroupSize
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			fw.Close()
			return fmt.Errorf("write row %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return fw.Close()
}

// ReadTable reads every part file of a locally published table back into
// memory, in partition-path order. Used by tests and ad-hoc verification.
func ReadTable[T any](root, table string, parallel int64) ([]T, error) {
	if parallel <= 0 {
		parallel = 2
	}
	dir := filepath.Join(root, table)
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".parquet") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	sort.Strings(paths)

	var out []T
	for _, path := range paths {
		rows, err := readParquetFile[T](path, parallel)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func readParquetFile[T any](path string, parallel int64) ([]T, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(T), parallel)
	if err != nil {
		return nil, fmt.Errorf("parquet reader %s: %w", path, err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]T, n)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read rows %s: %w", path, err)
	}
	return rows, nil
}
