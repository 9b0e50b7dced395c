// Package eventstore connects to the append-only event store that the ETL
// samples from. The store is any database/sql engine with a supported
// Dialect; DuckDB is the default and can also expose Parquet files as the
// events table.
package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// insertBatchRows keeps multi-row inserts under every engine's bind limit.
const insertBatchRows = 400

// Store is a handle to the event store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	log     *slog.Logger
}

// Open connects to the event store described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if !config.ValidIdentifier(cfg.Table) {
		return nil, fmt.Errorf("table %q: %w", cfg.Table, errors.ErrInvalidIdentifier)
	}

	db, err := sql.Open(dialect.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	s := New(db, dialect, cfg.Table)

	if dialect.Name == DuckDB.Name {
		if cfg.MemoryLimit != "" {
			if _, err := db.ExecContext(ctx, "SET memory_limit="+quoteLiteral(cfg.MemoryLimit)); err != nil {
				db.Close()
				return nil, fmt.Errorf("set memory limit: %w", err)
			}
		}
		if cfg.ParquetGlob != "" {
			if err := s.AttachParquet(ctx, cfg.ParquetGlob); err != nil {
				db.Close()
				return nil, err
			}
		}
	}

	s.log.Info("event store opened", "driver", dialect.Name, "table", cfg.Table)
	return s, nil
}

// New wraps an already open database. The table name is trusted; Open
// validates it for configured stores.
func New(db *sql.DB, dialect Dialect, table string) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		table:   table,
		log:     logging.Component("eventstore"),
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the engine dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Table returns the events table name.
func (s *Store) Table() string {
	return s.table
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SchemaDDL returns the CREATE TABLE statement for the events table.
func (s *Store) SchemaDDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.table)
	for i, col := range types.EventColumns {
		switch col {
		case "date_time":
			fmt.Fprintf(&b, "    %s %s NOT NULL", col, s.dialect.TimestampType)
		case "country", "sub":
			fmt.Fprintf(&b, "    %s VARCHAR NOT NULL DEFAULT ''", col)
		default:
			fmt.Fprintf(&b, "    %s BIGINT NOT NULL DEFAULT 0", col)
		}
		if i < len(types.EventColumns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// EnsureSchema creates the events table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.SchemaDDL()); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// AttachParquet exposes the Parquet files matching glob as the events table
// (DuckDB only).
func (s *Store) AttachParquet(ctx context.Context, glob string) error {
	if s.dialect.Name != DuckDB.Name {
		return fmt.Errorf("parquet sources need duckdb, not %s: %w", s.dialect.Name, errors.ErrUnsupportedDriver)
	}

	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)", s.table, quoteLiteral(glob))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("attach parquet %s: %w", glob, err)
	}
	return nil
}

// Append inserts events in a single transaction.
func (s *Store) Append(ctx context.Context, events []types.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(events); start += insertBatchRows {
		end := start + insertBatchRows
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]

		args := make([]any, 0, len(batch)*len(types.EventColumns))
		for i := range batch {
			args = append(args, batch[i].Values()...)
		}

		if _, err := tx.ExecContext(ctx, s.insertSQL(len(batch)), args...); err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Debug("events appended", "count", len(events))
	return nil
}

// insertSQL builds a multi-row INSERT for n events.
func (s *Store) insertSQL(n int) string {
	cols := len(types.EventColumns)

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", s.table, strings.Join(types.EventColumns, ", "))
	for row := 0; row < n; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.dialect.Placeholder(row*cols + c + 1))
		}
		b.WriteString(")")
	}
	return b.String()
}

// Count returns the total number of events in the store.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n.Int64, nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
