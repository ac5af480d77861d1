package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "song_data/A/B/C/b.json", "{}")
	writeFile(t, root, "song_data/A/A/A/a.json", "{}")
	writeFile(t, root, "song_data/A/A/A/notes.txt", "skip me")
	writeFile(t, root, "log_data/2018/11/events.json", "{}")

	d := NewDir(root)
	got, err := d.List(context.Background(), "song_data")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"song_data/A/A/A/a.json", "song_data/A/B/C/b.json"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListMissingPrefix(t *testing.T) {
	d := NewDir(t.TempDir())
	if _, err := d.List(context.Background(), "nope"); err == nil {
		t.Fatalf("missing prefix should be an error")
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "log_data/x.json", `{"ts":1}`)

	d := NewDir(root)
	rc, err := d.Open(context.Background(), "log_data/x.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil || string(b) != `{"ts":1}` {
		t.Fatalf("read = %q, %v", b, err)
	}

	if _, err := d.Open(context.Background(), "log_data/missing.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file should wrap os.ErrNotExist, got %v", err)
	}
}

func TestOpenCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDir(t.TempDir()).Open(ctx, "x.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
