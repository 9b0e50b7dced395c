// Package extract draws a uniform random sample of events from a half-open
// time window of the event store.
//
// A sample is taken in one read transaction: the window is counted, the
// sample size is derived from the count, and that many rows are selected in
// random order. Both statements come from embedded SQL templates.
package extract

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/eventstore"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/storage/types"
	"github.com/xtxerr/smartbid/internal/validation"
	"github.com/xtxerr/smartbid/internal/window"
)

const (
	countTemplate  = "count_events"
	selectTemplate = "extract_events"
)

// TxBeginner starts transactions. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// QueryError reports a failed extraction together with its window.
type QueryError struct {
	Start time.Time
	End   time.Time
	Op    string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("extract [%s, %s) %s: %v",
		e.Start.Format(time.DateTime), e.End.Format(time.DateTime), e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Stats holds extractor counters.
type Stats struct {
	Extractions  int64
	RowsMatched  int64
	RowsReturned int64
	Errors       int64
}

// Extractor samples events from one table.
type Extractor struct {
	db      TxBeginner
	dialect eventstore.Dialect
	table   string

	count  *Template
	sample *Template

	extractions  atomic.Int64
	rowsMatched  atomic.Int64
	rowsReturned atomic.Int64
	errors       atomic.Int64

	log *slog.Logger
}

// New creates an extractor reading table through db.
func New(db TxBeginner, dialect eventstore.Dialect, table string) (*Extractor, error) {
	count, err := LoadTemplate(countTemplate)
	if err != nil {
		return nil, err
	}
	sample, err := LoadTemplate(selectTemplate)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		db:      db,
		dialect: dialect,
		table:   table,
		count:   count,
		sample:  sample,
		log:     logging.Component("extract"),
	}

	// Render once with dummy values so a bad table name or template fails here.
	probe := e.bindings(time.Time{}, time.Time{})
	probe.Values["limit"] = int64(0)
	for _, t := range []*Template{count, sample} {
		if _, _, err := t.Bind(dialect, probe); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// FromStore creates an extractor for an opened event store.
func FromStore(s *eventstore.Store) (*Extractor, error) {
	return New(s.DB(), s.Dialect(), s.Table())
}

// SampleLimit returns round(total * pct) clamped to [0, total]. Halves round
// to even: 5 * 0.5 is 2 and 7 * 0.5 is 4.
func SampleLimit(total int64, pct float64) int64 {
	if total <= 0 || math.IsNaN(pct) || pct <= 0 {
		return 0
	}
	if pct >= 1 {
		return total
	}

	limit := int64(math.RoundToEven(float64(total) * pct))
	if limit < 0 {
		return 0
	}
	if limit > total {
		return total
	}
	return limit
}

// ExtractWindow samples the window w.
func (e *Extractor) ExtractWindow(ctx context.Context, w window.Window, pct float64) ([]types.Event, error) {
	return e.Extract(ctx, w.Start, w.End, pct)
}

// Extract returns a uniform random sample of the events with
// start <= date_time < end. The sample holds SampleLimit(n, pct) distinct
// rows where n is the number of matching events. Rows come back in no
// particular order. An empty or inverted window yields an empty, non-nil
// slice.
func (e *Extractor) Extract(ctx context.Context, start, end time.Time, pct float64) ([]types.Event, error) {
	e.extractions.Add(1)

	events, err := e.extract(ctx, start, end, pct)
	if err != nil {
		e.errors.Add(1)
		return nil, err
	}
	return events, nil
}

func (e *Extractor) extract(ctx context.Context, start, end time.Time, pct float64) ([]types.Event, error) {
	// Stored times are UTC; bounds must be too for text-backed drivers.
	start, end = start.UTC(), end.UTC()

	fail := func(op string, err error) error {
		return &QueryError{Start: start, End: end, Op: op, Err: err}
	}

	if err := validation.CheckPercentage(pct); err != nil {
		return nil, fail("validate", err)
	}

	b := e.bindings(start, end)
	countSQL, countArgs, err := e.count.Bind(e.dialect, b)
	if err != nil {
		return nil, fail("bind", err)
	}

	// Count and select must see the same snapshot.
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fail("begin", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
	}
	defer tx.Rollback()

	var total sql.NullInt64
	if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fail("count", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
	}
	e.rowsMatched.Add(total.Int64)

	limit := SampleLimit(total.Int64, pct)
	if limit == 0 {
		if err := tx.Commit(); err != nil {
			return nil, fail("commit", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
		}
		return []types.Event{}, nil
	}

	b.Values["limit"] = limit
	selectSQL, selectArgs, err := e.sample.Bind(e.dialect, b)
	if err != nil {
		return nil, fail("bind", err)
	}

	rows, err := tx.QueryContext(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, fail("select", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
	}
	defer rows.Close()

	events := make([]types.Event, 0, limit)
	for rows.Next() {
		var ev types.Event
		if err := rows.Scan(ev.ScanTargets()...); err != nil {
			return nil, fail("scan", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
		}
		ev.DateTime = ev.DateTime.UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("select", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fail("commit", fmt.Errorf("%w: %w", errors.ErrQueryExecution, err))
	}

	e.rowsReturned.Add(int64(len(events)))
	e.log.Debug("window sampled",
		"start", start.Format(time.DateTime),
		"end", end.Format(time.DateTime),
		"matched", total.Int64,
		"limit", limit,
		"returned", len(events))

	return events, nil
}

func (e *Extractor) bindings(start, end time.Time) Bindings {
	return Bindings{
		Identifiers: map[string]string{"table": e.table},
		Values: map[string]any{
			"start_time": start,
			"end_time":   end,
		},
	}
}

// Stats returns a snapshot of the extractor counters.
func (e *Extractor) Stats() Stats {
	return Stats{
		Extractions:  e.extractions.Load(),
		RowsMatched:  e.rowsMatched.Load(),
		RowsReturned: e.rowsReturned.Load(),
		Errors:       e.errors.Load(),
	}
}
