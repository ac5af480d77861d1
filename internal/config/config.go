// Package config defines the canonical, JSON-serializable configuration
// model for the ETL job. It is intentionally small and explicit so that a
// pipeline can be loaded from disk and passed through the program without
// additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job": "sparkify_lake",
//	  "input":  { "kind": "s3", "root": "udacity-dend" },
//	  "output": { "kind": "s3", "root": "sparkify-lake-out" },
//	  "s3":     { "region": "us-east-1", "credentials_file": "dl.env" },
//	  "runtime": { "load_workers": 8 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log lines.
	Job string `json:"job"`

	// Input locates the raw catalog and event trees.
	Input Input `json:"input"`

	// Output locates the derived parquet tables.
	Output Output `json:"output"`

	// S3 carries connection settings shared by any s3-kind input/output.
	S3 S3 `json:"s3"`

	// Runtime controls concurrency and the bad-record policy.
	Runtime Runtime `json:"runtime"`
}

// Input identifies the source storage tree.
type Input struct {
	// Kind selects the implementation: "file" or "s3".
	Kind string `json:"kind"`

	// Root is the local directory (kind=file) or bucket name (kind=s3).
	Root string `json:"root"`

	// SongPrefix and LogPrefix locate the two datasets under Root.
	// Defaults: "song_data" and "log_data".
	SongPrefix string `json:"song_prefix"`
	LogPrefix  string `json:"log_prefix"`
}

// Output identifies the destination tree for the five tables.
type Output struct {
	// Kind selects the implementation: "file" or "s3".
	Kind string `json:"kind"`

	// Root is the local directory (kind=file) or bucket name (kind=s3).
	Root string `json:"root"`

	// StagingDir holds parquet files before they are published. Empty
	// means a fresh temp directory per run.
	StagingDir string `json:"staging_dir"`
}

// S3 holds connection settings for S3-backed input/output.
type S3 struct {
	Region string `json:"region"`

	// Endpoint overrides the S3 endpoint for compatible stores (MinIO).
	Endpoint string `json:"endpoint"`

	// CredentialsFile is an env-style file holding AWS_ACCESS_KEY_ID and
	// AWS_SECRET_ACCESS_KEY. Loaded into the process environment before
	// any client is built; empty means rely on the ambient AWS chain.
	CredentialsFile string `json:"credentials_file"`
}

// Runtime controls concurrency, batching, and failure tolerance.
type Runtime struct {
	// LoadWorkers bounds concurrent input files per loader.
	LoadWorkers int `json:"load_workers"`

	// StrictParse aborts the run on the first malformed input record
	// instead of skipping it.
	StrictParse bool `json:"strict_parse"`

	// ParquetParallelism is passed to the parquet writer/reader.
	ParquetParallelism int `json:"parquet_parallelism"`
}

// Defaulted returns a copy of p with empty optional fields resolved.
func (p Pipeline) Defaulted() Pipeline {
	if p.Input.SongPrefix == "" {
		p.Input.SongPrefix = "song_data"
	}
	if p.Input.LogPrefix == "" {
		p.Input.LogPrefix = "log_data"
	}
	if p.Runtime.LoadWorkers <= 0 {
		p.Runtime.LoadWorkers = 4
	}
	if p.Runtime.ParquetParallelism <= 0 {
		p.Runtime.ParquetParallelism = 2
	}
	return p
}

// Load decodes a pipeline file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}
