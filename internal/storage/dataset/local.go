package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/storage/parquet"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// Local stores partitions under a directory on the local filesystem.
type Local struct {
	root string
	opts parquet.Options
}

// NewLocal creates a local dataset rooted at root, creating it if needed.
func NewLocal(root string, opts parquet.Options) (*Local, error) {
	if root == "" {
		return nil, errors.NewMissingField("dataset.local.root")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create dataset root: %w", err)
	}
	return &Local{root: root, opts: opts}, nil
}

// Root returns the dataset directory.
func (l *Local) Root() string {
	return l.root
}

// Location returns the partition file path.
func (l *Local) Location(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(partitionPath("", key)))
}

// Exists reports whether the partition file is present.
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.Location(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
}

// Write writes the partition to a temporary file and renames it into place,
// so a partition is either complete or absent.
func (l *Local) Write(ctx context.Context, key string, rows []types.FeatureRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest := l.Location(key)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".part-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageWrite, err)
	}
	tmpPath := tmp.Name()

	w := parquet.NewFeatureWriterTo(tmp, l.opts)
	if err := w.Write(rows); err != nil {
		w.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageWrite, key, err)
	}
	if err := w.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageWrite, key, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageWrite, key, err)
	}
	return nil
}

// Read reads the partition file.
func (l *Local) Read(ctx context.Context, key string) ([]types.FeatureRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := l.Location(key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("partition %s: %w", key, errors.ErrNotFound)
	}

	rows, err := parquet.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrStorageRead, key, err)
	}
	return rows, nil
}

// List returns the keys of all directories holding a partition file.
func (l *Local) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
	}

	var keys []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(l.Location(e.Name())); err == nil {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Glob returns a read_parquet pattern matching every partition.
func (l *Local) Glob() string {
	return filepath.Join(l.root, "*", PartFile)
}
