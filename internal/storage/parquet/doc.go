// Package parquet implements Parquet file reading and writing for feature rows.
//
// The package provides:
//   - FeatureWriter/FeatureReader for transformed feature rows
//   - Support for multiple compression algorithms (snappy, zstd, lz4, gzip)
//   - Type conversion between storage types and Parquet rows
package parquet
