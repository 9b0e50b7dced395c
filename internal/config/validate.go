package config

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Run.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("run: %w", err))
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}

	if err := c.Dataset.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dataset: %w", err))
	}

	if c.Dictionary.Dir == "" {
		errs = append(errs, errors.New("dictionary: dir is required"))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the run configuration.
func (c *RunConfig) Validate() error {
	var errs []error

	if math.IsNaN(c.DownSamplingPercentage) || c.DownSamplingPercentage < 0 || c.DownSamplingPercentage > 1 {
		errs = append(errs, errors.New("down_sampling_percentage must be between 0 and 1"))
	}

	if c.MaxWorkers <= 0 {
		errs = append(errs, errors.New("max_workers must be positive"))
	}

	if c.LookbackDays <= 0 {
		errs = append(errs, errors.New("lookback_days must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the store configuration.
func (c *StoreConfig) Validate() error {
	var errs []error

	validDrivers := map[string]bool{
		"duckdb":   true,
		"postgres": true,
		"sqlite":   true,
	}
	if !validDrivers[c.Driver] {
		errs = append(errs, errors.New("driver must be one of: duckdb, postgres, sqlite"))
	}

	if c.Driver != "duckdb" && c.DSN == "" {
		errs = append(errs, errors.New("dsn is required for "+c.Driver))
	}

	if !identifierPattern.MatchString(c.Table) {
		errs = append(errs, fmt.Errorf("table %q is not a valid identifier", c.Table))
	}

	if c.ParquetGlob != "" && c.Driver != "duckdb" {
		errs = append(errs, errors.New("parquet_glob requires the duckdb driver"))
	}

	if c.QueryTimeout < 0 {
		errs = append(errs, errors.New("query_timeout must be non-negative"))
	}

	if c.MaxOpenConns < 0 {
		errs = append(errs, errors.New("max_open_conns must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the dataset configuration.
func (c *DatasetConfig) Validate() error {
	var errs []error

	switch c.Type {
	case "local":
		if c.Local.Root == "" {
			errs = append(errs, errors.New("local.root is required for local datasets"))
		}
	case "remote":
		if c.Remote.Bucket == "" {
			errs = append(errs, errors.New("remote.bucket is required for remote datasets"))
		}
	default:
		errs = append(errs, errors.New("type must be one of: local, remote"))
	}

	validAlgorithms := map[string]bool{
		"snappy": true,
		"zstd":   true,
		"lz4":    true,
		"gzip":   true,
		"none":   true,
		"":       true, // Empty means uncompressed
	}
	if !validAlgorithms[c.Compression] {
		errs = append(errs, errors.New("compression must be one of: snappy, zstd, lz4, gzip, none"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the logging configuration.
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Level] {
		return errors.New("level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"auto": true, "text": true, "json": true}
	if !validFormats[c.Format] {
		return errors.New("format must be one of: auto, text, json")
	}
	return nil
}

// ValidIdentifier reports whether name can be used as a table reference.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
