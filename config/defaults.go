// Package config provides configuration defaults for smartbid.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml, environment variables or
// command-line flags (highest precedence).
package config

import "time"

// =============================================================================
// Extraction Defaults
// =============================================================================

const (
	// DefaultLookbackDays is the date range extracted when no dates are given:
	// from 00:00:00 this many days ago to 23:59:59 yesterday.
	DefaultLookbackDays = 7

	// DefaultDownSamplingPercentage is the fraction of each window's events kept.
	// Override via config: run.down_sampling_percentage
	DefaultDownSamplingPercentage = 0.01

	// DefaultMaxWorkers is the number of windows processed concurrently.
	// Override via config: run.max_workers
	DefaultMaxWorkers = 8

	// DefaultWindowSize is the length of one extraction window.
	DefaultWindowSize = time.Hour
)

// =============================================================================
// Event Store Defaults
// =============================================================================

const (
	// DefaultStoreDriver is the database/sql driver used for the event store.
	// One of: duckdb, postgres, sqlite
	// Override via config: store.driver or env EVENTSTORE_DRIVER
	DefaultStoreDriver = "duckdb"

	// DefaultStoreDSN is the event store location. For duckdb this is a file
	// path; empty opens an in-memory database.
	// Override via config: store.dsn or env EVENTSTORE_DSN
	DefaultStoreDSN = "events.duckdb"

	// DefaultStoreTable is the table (or view) holding events.
	// Override via config: store.table or env EVENTSTORE_TABLE
	DefaultStoreTable = "events"

	// DefaultStoreMemoryLimit caps DuckDB memory usage.
	// Override via config: store.memory_limit
	DefaultStoreMemoryLimit = "2GB"

	// DefaultQueryTimeout bounds a single window extraction.
	// Override via config: store.query_timeout
	DefaultQueryTimeout = 10 * time.Minute

	// DefaultStoreMaxOpenConns limits concurrent store connections.
	// Should be >= run.max_workers.
	DefaultStoreMaxOpenConns = 16
)

// =============================================================================
// Dataset Defaults
// =============================================================================

const (
	// DefaultDatasetType selects the dataset backend: local or remote.
	// Override via config: dataset.type or --storage_type
	DefaultDatasetType = "remote"

	// DefaultLocalRoot is the local dataset directory.
	// Override via config: dataset.local.root
	DefaultLocalRoot = ".db/smart_bidding/raw_dataset"

	// DefaultRemotePrefix is the S3 key prefix for dataset partitions.
	// Override via config: dataset.remote.prefix
	DefaultRemotePrefix = "smart_bidding/raw_dataset"

	// DefaultRemoteRegion is the AWS region of the dataset bucket.
	// Override via config: dataset.remote.region
	DefaultRemoteRegion = "us-east-1"

	// DefaultCompression is the Parquet compression codec.
	// One of: snappy, zstd, lz4, gzip, none
	// Override via config: dataset.compression
	DefaultCompression = "zstd"

	// DefaultPartFile is the file name of a partition's single Parquet part.
	DefaultPartFile = "part-0.parquet"
)

// =============================================================================
// Dictionary Defaults
// =============================================================================

const (
	// DefaultDictionaryDir holds devices.json, product_categories.json and
	// content_categories.json.
	// Override via config: dictionary.dir
	DefaultDictionaryDir = ".db/smart_bidding/dictionaries"
)

// =============================================================================
// Logging Defaults
// =============================================================================

const (
	// DefaultLogLevel is the minimum level logged.
	DefaultLogLevel = "info"

	// DefaultLogFormat picks text on a terminal and JSON otherwise.
	DefaultLogFormat = "auto"
)
