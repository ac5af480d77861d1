// Package file implements a local filesystem-backed data source tree.
package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a filesystem data source rooted at a directory. It is safe for
// concurrent use as long as the underlying tree is not being mutated.
type Dir struct{ root string }

// NewDir returns a Dir rooted at the provided filesystem path.
func NewDir(root string) *Dir { return &Dir{root: root} }

// List walks root/prefix and returns the relative paths of all .json files
// beneath it, sorted for reproducible runs. A missing prefix directory is
// reported as an error: an unreachable input location is a connectivity
// failure, not an empty dataset.
func (d *Dir) List(ctx context.Context, prefix string) ([]string, error) {
	base := filepath.Join(d.root, filepath.FromSlash(prefix))
	var keys []string
	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", base, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open opens one listed key for reading. If the context is already done at
// the time of the call, Open returns the context error without touching
// the filesystem. Filesystem errors are wrapped with the path while still
// permitting errors.Is checks (e.g. errors.Is(err, os.ErrNotExist)).
func (d *Dir) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	path := filepath.Join(d.root, filepath.FromSlash(key))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
