package config

import (
	"os"
	"path/filepath"
	"testing"
)

func valid() Pipeline {
	return Pipeline{
		Job:    "sparkify_lake",
		Input:  Input{Kind: "file", Root: "/data/in"},
		Output: Output{Kind: "file", Root: "/data/out"},
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{
  "job": "sparkify_lake",
  "input":  { "kind": "s3", "root": "udacity-dend" },
  "output": { "kind": "s3", "root": "sparkify-lake-out", "staging_dir": "/tmp/stage" },
  "s3":     { "region": "us-east-1", "credentials_file": "dl.env" },
  "runtime": { "load_workers": 8, "strict_parse": true }
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "sparkify_lake" || p.Input.Root != "udacity-dend" || !p.Runtime.StrictParse {
		t.Errorf("unexpected pipeline: %+v", p)
	}
	if p.S3.Region != "us-east-1" || p.S3.CredentialsFile != "dl.env" {
		t.Errorf("unexpected s3 config: %+v", p.S3)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(`{"job":"x","inputt":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("unknown fields should be rejected")
	}
}

func TestDefaulted(t *testing.T) {
	p := valid().Defaulted()
	if p.Input.SongPrefix != "song_data" || p.Input.LogPrefix != "log_data" {
		t.Errorf("prefix defaults: %+v", p.Input)
	}
	if p.Runtime.LoadWorkers != 4 || p.Runtime.ParquetParallelism != 2 {
		t.Errorf("runtime defaults: %+v", p.Runtime)
	}
}

func hasIssue(issues []Issue, severity IssueSeverity, path string) bool {
	for _, i := range issues {
		if i.Severity == severity && i.Path == path {
			return true
		}
	}
	return false
}

func TestValidateOK(t *testing.T) {
	if issues := Validate(valid()); len(issues) != 0 {
		t.Fatalf("valid pipeline produced issues: %v", issues)
	}
}

func TestValidateFindings(t *testing.T) {
	p := valid()
	p.Job = " "
	p.Input.Kind = "gopher-drive"
	p.Output.Root = ""
	issues := Validate(p)

	if !hasIssue(issues, SeverityError, "job") {
		t.Errorf("missing job error: %v", issues)
	}
	if !hasIssue(issues, SeverityWarning, "input.kind") {
		t.Errorf("unknown kind should warn: %v", issues)
	}
	if !hasIssue(issues, SeverityError, "output.root") {
		t.Errorf("missing output.root error: %v", issues)
	}
}

func TestValidateS3NeedsRegion(t *testing.T) {
	p := valid()
	p.Output.Kind = "s3"
	if !hasIssue(Validate(p), SeverityError, "s3.region") {
		t.Fatalf("s3 output without region must be an error")
	}
}
