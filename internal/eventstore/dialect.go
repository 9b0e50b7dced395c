package eventstore

import (
	"fmt"
	"strconv"

	"github.com/xtxerr/smartbid/internal/errors"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	// Name is the configuration name: duckdb, postgres or sqlite.
	Name string

	// DriverName is the database/sql driver name passed to sql.Open.
	DriverName string

	// TimestampType is the column type used for date_time.
	TimestampType string

	placeholderPrefix string
}

var (
	DuckDB   = Dialect{Name: "duckdb", DriverName: "duckdb", TimestampType: "TIMESTAMP", placeholderPrefix: "$"}
	Postgres = Dialect{Name: "postgres", DriverName: "postgres", TimestampType: "TIMESTAMP", placeholderPrefix: "$"}
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite3", TimestampType: "TIMESTAMP", placeholderPrefix: "?"}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case DuckDB.Name:
		return DuckDB, nil
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%q: %w", name, errors.ErrUnsupportedDriver)
	}
}

// Placeholder returns the positional parameter marker for the n-th argument
// (1-based): $n for DuckDB and Postgres, ?n for SQLite. A marker may appear
// several times in one statement and always binds the same argument.
func (d Dialect) Placeholder(n int) string {
	return d.placeholderPrefix + strconv.Itoa(n)
}
