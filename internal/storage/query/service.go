// Package query inspects written feature partitions with DuckDB.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/xtxerr/smartbid/internal/errors"
)

// Service runs read_parquet queries over a dataset directory.
type Service struct {
	mu sync.Mutex

	db *sql.DB

	// Statistics
	stats ServiceStats
}

// PartitionStats summarizes one partition file.
type PartitionStats struct {
	Key            string
	Path           string
	Rows           int64
	FirstEvent     time.Time
	LastEvent      time.Time
	ClickRate      float64
	ConversionRate float64
}

// DatasetStats summarizes every partition matched by a glob.
type DatasetStats struct {
	Partitions     int64
	Rows           int64
	FirstEvent     time.Time
	LastEvent      time.Time
	ClickRate      float64
	ConversionRate float64
}

// Bucket is one row of a Breakdown.
type Bucket struct {
	Value int64
	Rows  int64
}

// breakdownColumns are the integer feature columns Breakdown accepts.
var breakdownColumns = map[string]bool{
	"hour_of_day":      true,
	"day_of_week":      true,
	"device_type":      true,
	"device_brand":     true,
	"ad_category":      true,
	"content_category": true,
	"campaign_type":    true,
	"zone_type":        true,
	"traffic_type":     true,
	"os":               true,
	"idbrowser":        true,
}

// New creates a query service on an in-memory DuckDB database.
func New(memoryLimit string) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if memoryLimit != "" {
		_, err = db.Exec(fmt.Sprintf("SET memory_limit='%s'", strings.ReplaceAll(memoryLimit, "'", "''")))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	return &Service{db: db}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// hasFiles reports whether glob matches at least one file. read_parquet
// fails on an empty match, which callers treat as an empty dataset.
func hasFiles(glob string) (bool, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return false, fmt.Errorf("%w: bad pattern %q: %v", errors.ErrInvalidArgument, glob, err)
	}
	return len(matches) > 0, nil
}

// Partitions returns per-file statistics ordered by partition key.
func (s *Service) Partitions(ctx context.Context, glob string) ([]PartitionStats, error) {
	ok, err := hasFiles(glob)
	if err != nil || !ok {
		return nil, err
	}

	query := `
		SELECT
			filename,
			count(*) AS n,
			min(date_time_ms), max(date_time_ms),
			avg(CAST(click_status > 0 AS DOUBLE)),
			avg(CAST(conversion_status > 0 AS DOUBLE))
		FROM read_parquet($1, filename = true)
		GROUP BY filename
		ORDER BY filename
	`

	rows, err := s.db.QueryContext(ctx, query, glob)
	if err != nil {
		s.recordError()
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
	}
	defer rows.Close()

	var results []PartitionStats
	for rows.Next() {
		var p PartitionStats
		var first, last int64
		var clickRate, convRate sql.NullFloat64

		if err := rows.Scan(&p.Path, &p.Rows, &first, &last, &clickRate, &convRate); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		p.Key = filepath.Base(filepath.Dir(p.Path))
		p.FirstEvent = time.UnixMilli(first).UTC()
		p.LastEvent = time.UnixMilli(last).UTC()
		p.ClickRate = clickRate.Float64
		p.ConversionRate = convRate.Float64
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.recordQuery(int64(len(results)))
	return results, nil
}

// Summary aggregates every partition matched by glob. An empty match
// yields zero stats.
func (s *Service) Summary(ctx context.Context, glob string) (DatasetStats, error) {
	var ds DatasetStats

	ok, err := hasFiles(glob)
	if err != nil || !ok {
		return ds, err
	}

	query := `
		SELECT
			count(DISTINCT filename),
			count(*),
			min(date_time_ms), max(date_time_ms),
			avg(CAST(click_status > 0 AS DOUBLE)),
			avg(CAST(conversion_status > 0 AS DOUBLE))
		FROM read_parquet($1, filename = true)
	`

	var first, last sql.NullInt64
	var clickRate, convRate sql.NullFloat64
	err = s.db.QueryRowContext(ctx, query, glob).Scan(
		&ds.Partitions, &ds.Rows, &first, &last, &clickRate, &convRate,
	)
	if err != nil {
		s.recordError()
		return ds, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
	}

	if first.Valid {
		ds.FirstEvent = time.UnixMilli(first.Int64).UTC()
		ds.LastEvent = time.UnixMilli(last.Int64).UTC()
	}
	ds.ClickRate = clickRate.Float64
	ds.ConversionRate = convRate.Float64

	s.recordQuery(1)
	return ds, nil
}

// Breakdown counts rows per value of an integer feature column, most
// frequent first.
func (s *Service) Breakdown(ctx context.Context, glob, column string, limit int) ([]Bucket, error) {
	if !breakdownColumns[column] {
		return nil, fmt.Errorf("%w: column %q", errors.ErrInvalidArgument, column)
	}

	ok, err := hasFiles(glob)
	if err != nil || !ok {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s AS value, count(*) AS n
		FROM read_parquet($1)
		GROUP BY value
		ORDER BY n DESC, value
	`, column)
	args := []any{glob}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.recordError()
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageRead, err)
	}
	defer rows.Close()

	var buckets []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Value, &b.Rows); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.recordQuery(int64(len(buckets)))
	return buckets, nil
}

func (s *Service) recordQuery(rows int64) {
	s.mu.Lock()
	s.stats.QueriesExecuted++
	s.stats.RowsReturned += rows
	s.mu.Unlock()
}

func (s *Service) recordError() {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
}

// Stats returns query statistics.
func (s *Service) Stats() ServiceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// ExecuteSQL executes a raw SQL query using DuckDB.
// This is useful for ad-hoc queries and debugging.
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.recordError()
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.recordQuery(int64(len(results)))
	return results, nil
}
