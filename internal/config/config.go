// Package config loads the smartbid ETL configuration.
//
// Values are resolved in order of increasing precedence: built-in defaults,
// the YAML file, environment variables (ApplyEnv) and finally command-line
// flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"time"

	defaults "github.com/xtxerr/smartbid/config"
	"gopkg.in/yaml.v3"
)

// Config represents the complete ETL configuration.
type Config struct {
	// Run configures the extraction run.
	Run RunConfig `yaml:"run"`

	// Store configures the event store connection.
	Store StoreConfig `yaml:"store"`

	// Dataset configures where feature partitions are written.
	Dataset DatasetConfig `yaml:"dataset"`

	// Dictionary configures the transform lookup tables.
	Dictionary DictionaryConfig `yaml:"dictionary"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// RunConfig configures the extraction run.
type RunConfig struct {
	// DownSamplingPercentage is the fraction of events kept per window (0-1).
	DownSamplingPercentage float64 `yaml:"down_sampling_percentage"`

	// MaxWorkers is the number of windows processed concurrently.
	MaxWorkers int `yaml:"max_workers"`

	// LookbackDays is the default range when no dates are given.
	LookbackDays int `yaml:"lookback_days"`

	// SkipExisting skips windows whose partition already exists.
	SkipExisting bool `yaml:"skip_existing"`
}

// StoreConfig configures the event store.
type StoreConfig struct {
	// Driver is the database/sql driver: duckdb, postgres, sqlite.
	Driver string `yaml:"driver"`

	// DSN is the data source name passed to sql.Open.
	DSN string `yaml:"dsn"`

	// Table is the table or view holding events.
	Table string `yaml:"table"`

	// ParquetGlob, if set (duckdb only), exposes these Parquet files as Table.
	ParquetGlob string `yaml:"parquet_glob"`

	// MemoryLimit is the DuckDB memory limit.
	MemoryLimit string `yaml:"memory_limit"`

	// QueryTimeout bounds a single window extraction.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// MaxOpenConns limits concurrent connections.
	MaxOpenConns int `yaml:"max_open_conns"`
}

// DatasetConfig configures the dataset backend.
type DatasetConfig struct {
	// Type is local or remote.
	Type string `yaml:"type"`

	// Compression is the Parquet codec: snappy, zstd, lz4, gzip, none.
	Compression string `yaml:"compression"`

	// Local configures the local directory backend.
	Local LocalConfig `yaml:"local"`

	// Remote configures the S3 backend.
	Remote RemoteConfig `yaml:"remote"`
}

// LocalConfig configures the local directory backend.
type LocalConfig struct {
	// Root is the dataset root directory.
	Root string `yaml:"root"`
}

// RemoteConfig configures the S3 backend.
type RemoteConfig struct {
	// Bucket is the S3 bucket name.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every partition key.
	Prefix string `yaml:"prefix"`

	// Region is the AWS region.
	Region string `yaml:"region"`

	// Endpoint is an optional custom endpoint (MinIO, LocalStack).
	Endpoint string `yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool `yaml:"use_path_style"`
}

// DictionaryConfig configures the transform lookup tables.
type DictionaryConfig struct {
	// Dir holds devices.json, product_categories.json, content_categories.json.
	Dir string `yaml:"dir"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is auto, text or json.
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file on top of the defaults.
// The result is not validated; call Validate after applying overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			DownSamplingPercentage: defaults.DefaultDownSamplingPercentage,
			MaxWorkers:             defaults.DefaultMaxWorkers,
			LookbackDays:           defaults.DefaultLookbackDays,
			SkipExisting:           true,
		},
		Store: StoreConfig{
			Driver:       defaults.DefaultStoreDriver,
			DSN:          defaults.DefaultStoreDSN,
			Table:        defaults.DefaultStoreTable,
			MemoryLimit:  defaults.DefaultStoreMemoryLimit,
			QueryTimeout: defaults.DefaultQueryTimeout,
			MaxOpenConns: defaults.DefaultStoreMaxOpenConns,
		},
		Dataset: DatasetConfig{
			Type:        defaults.DefaultDatasetType,
			Compression: defaults.DefaultCompression,
			Local: LocalConfig{
				Root: defaults.DefaultLocalRoot,
			},
			Remote: RemoteConfig{
				Prefix: defaults.DefaultRemotePrefix,
				Region: defaults.DefaultRemoteRegion,
			},
		},
		Dictionary: DictionaryConfig{
			Dir: defaults.DefaultDictionaryDir,
		},
		Logging: LoggingConfig{
			Level:  defaults.DefaultLogLevel,
			Format: defaults.DefaultLogFormat,
		},
	}
}
