// Package dataset stores feature partitions, one Parquet file per hour
// window, on the local filesystem or in S3.
//
// A partition is addressed by its key (the window start formatted as
// 2006-01-02_15) and lives at <root>/<key>/part-0.parquet.
package dataset

import (
	"context"
	"fmt"
	"strings"

	defaults "github.com/xtxerr/smartbid/config"
	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/storage/parquet"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// PartFile is the file name of a partition inside its key directory.
const PartFile = defaults.DefaultPartFile

// Dataset is a partitioned feature dataset.
type Dataset interface {
	// Exists reports whether the partition for key has been written.
	Exists(ctx context.Context, key string) (bool, error)

	// Write stores rows as the partition for key, replacing any previous one.
	Write(ctx context.Context, key string, rows []types.FeatureRow) error

	// Read returns the rows of the partition for key.
	Read(ctx context.Context, key string) ([]types.FeatureRow, error)

	// List returns the keys of all written partitions, sorted.
	List(ctx context.Context) ([]string, error)

	// Location returns a human readable address of the partition.
	Location(key string) string
}

// New creates the dataset described by cfg.
func New(ctx context.Context, cfg config.DatasetConfig) (Dataset, error) {
	opts := parquet.DefaultOptions()
	opts.Compression = parquet.ParseCompressionType(cfg.Compression)

	switch cfg.Type {
	case "local":
		return NewLocal(cfg.Local.Root, opts)
	case "remote":
		return NewS3(ctx, cfg.Remote, opts)
	default:
		return nil, fmt.Errorf("unknown dataset type %q", cfg.Type)
	}
}

// partitionPath joins a prefix, key and part file with forward slashes.
func partitionPath(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key + "/" + PartFile
	}
	return prefix + "/" + key + "/" + PartFile
}

// keyFromPath extracts the partition key from <prefix>/<key>/part-0.parquet.
func keyFromPath(prefix, path string) (string, bool) {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		if !strings.HasPrefix(path, prefix+"/") {
			return "", false
		}
		path = path[len(prefix)+1:]
	}

	key, file, ok := strings.Cut(path, "/")
	if !ok || file != PartFile || key == "" {
		return "", false
	}
	return key, true
}
