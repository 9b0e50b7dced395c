// Package processor runs the hourly extract, transform and write pipeline
// over a date range.
//
// The range is split into one-hour windows. Each window is extracted as a
// random sample from the event store, mapped to feature rows and written as
// one dataset partition. Windows run concurrently up to MaxWorkers, and the
// first failure cancels the rest.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/storage/aggregate"
	"github.com/xtxerr/smartbid/internal/storage/dataset"
	"github.com/xtxerr/smartbid/internal/storage/types"
	"github.com/xtxerr/smartbid/internal/validation"
	"github.com/xtxerr/smartbid/internal/window"
)

// Metric names recorded per processed window.
const (
	MetricExtractLatency = "extract_latency_ms"
	MetricWindowRows     = "window_rows"
)

// Stage names used in WindowError.
const (
	StageExists    = "exists"
	StageExtract   = "extract"
	StageTransform = "transform"
	StageWrite     = "write"
)

// Extractor returns a random sample of the events in [start, end).
type Extractor interface {
	Extract(ctx context.Context, start, end time.Time, pct float64) ([]types.Event, error)
}

// Transformer maps events to feature rows.
type Transformer interface {
	Transform(events []types.Event) ([]types.FeatureRow, error)
}

// Options configures a run.
type Options struct {
	Start time.Time
	End   time.Time

	DownSamplingPercentage float64
	MaxWorkers             int

	// QueryTimeout bounds each extraction. Zero means no timeout.
	QueryTimeout time.Duration

	// SkipExisting leaves windows whose partition already exists untouched.
	SkipExisting bool
}

// Summary describes a finished run.
type Summary struct {
	WindowsTotal  int
	Processed     int
	Skipped       int
	RowsExtracted int64
	RowsWritten   int64
	Elapsed       time.Duration

	// Written holds the partition keys written, sorted.
	Written []string

	// Extraction latency percentiles, zero when nothing was extracted.
	LatencyP50 time.Duration
	LatencyP95 time.Duration
	LatencyP99 time.Duration
}

// WindowError reports the window and stage at which a run failed.
type WindowError struct {
	Window window.Window
	Stage  string
	Err    error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %s: %s: %v", e.Window.Key(), e.Stage, e.Err)
}

func (e *WindowError) Unwrap() error {
	return e.Err
}

// Processor fans windows out to workers.
type Processor struct {
	extractor   Extractor
	transformer Transformer
	dataset     dataset.Dataset
	opts        Options
	windows     []window.Window

	metrics *aggregate.Manager
	logger  *slog.Logger
}

// New validates opts and partitions the range into hour windows.
func New(ext Extractor, tr Transformer, ds dataset.Dataset, opts Options) (*Processor, error) {
	if ext == nil || tr == nil || ds == nil {
		return nil, fmt.Errorf("extractor, transformer and dataset are required: %w", errors.ErrInvalidArgument)
	}
	if err := validation.CheckPercentage(opts.DownSamplingPercentage); err != nil {
		return nil, err
	}
	if opts.MaxWorkers <= 0 {
		return nil, errors.NewInvalidArgument("max_workers", opts.MaxWorkers, "must be positive")
	}

	windows, err := window.HourIntervals(opts.Start, opts.End)
	if err != nil {
		return nil, err
	}

	return &Processor{
		extractor:   ext,
		transformer: tr,
		dataset:     ds,
		opts:        opts,
		windows:     windows,
		metrics:     aggregate.NewManager(true),
		logger:      logging.Component("processor"),
	}, nil
}

// Windows returns the windows the run will visit, in order.
func (p *Processor) Windows() []window.Window {
	return p.windows
}

// Metrics returns the per-window metrics recorded so far.
func (p *Processor) Metrics() []aggregate.Result {
	return p.metrics.Results()
}

type runCounters struct {
	processed atomic.Int64
	skipped   atomic.Int64
	extracted atomic.Int64
	written   atomic.Int64

	mu   sync.Mutex
	keys []string
}

// Run processes every window and returns a summary. On failure the summary
// still reports the windows completed before the run stopped.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	var c runCounters

	p.logger.Info("run started",
		"windows", len(p.windows),
		"start", p.opts.Start.Format(time.DateTime),
		"end", p.opts.End.Format(time.DateTime),
		"down_sampling_percentage", p.opts.DownSamplingPercentage,
		"max_workers", p.opts.MaxWorkers,
	)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.MaxWorkers)

	for _, w := range p.windows {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			return p.processWindow(gctx, w, &c)
		})
	}

	err := group.Wait()
	if err == nil {
		err = ctx.Err()
	}

	summary := p.summary(&c, time.Since(started))
	if err != nil {
		p.logger.Error("run failed",
			"error", err,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
		)
		return summary, err
	}

	p.logger.Info("run finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"rows_written", summary.RowsWritten,
		"elapsed", summary.Elapsed,
		"latency_p95", summary.LatencyP95,
	)
	return summary, nil
}

func (p *Processor) processWindow(ctx context.Context, w window.Window, c *runCounters) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := w.Key()
	ctx = logging.ContextWithWindow(ctx, key)
	log := logging.WithContext(ctx).With("component", "processor")

	if p.opts.SkipExisting {
		exists, err := p.dataset.Exists(ctx, key)
		if err != nil {
			return stageError(w, StageExists, errors.ErrStorageRead, err)
		}
		if exists {
			c.skipped.Add(1)
			log.Info("partition exists, skipping", "location", p.dataset.Location(key))
			return nil
		}
	}

	extractCtx := ctx
	if p.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, p.opts.QueryTimeout)
		defer cancel()
	}

	t0 := time.Now()
	events, err := p.extractor.Extract(extractCtx, w.Start, w.End, p.opts.DownSamplingPercentage)
	if err != nil {
		return stageError(w, StageExtract, errors.ErrQueryExecution, err)
	}
	latency := time.Since(t0)
	p.metrics.Observe(MetricExtractLatency, float64(latency)/float64(time.Millisecond))
	c.extracted.Add(int64(len(events)))

	rows, err := p.transformer.Transform(events)
	if err != nil {
		return stageError(w, StageTransform, errors.ErrTransform, err)
	}

	if err := p.dataset.Write(ctx, key, rows); err != nil {
		return stageError(w, StageWrite, errors.ErrStorageWrite, err)
	}
	p.metrics.Observe(MetricWindowRows, float64(len(rows)))
	c.written.Add(int64(len(rows)))
	c.processed.Add(1)

	c.mu.Lock()
	c.keys = append(c.keys, key)
	c.mu.Unlock()

	log.Info("partition written",
		"rows", len(rows),
		"extract_latency", latency,
		"location", p.dataset.Location(key),
	)
	return nil
}

// stageError wraps err with its stage, adding sentinel unless the chain
// already carries it. Cancellation is passed through unchanged.
func stageError(w window.Window, stage string, sentinel, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if !errors.Is(err, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return &WindowError{Window: w, Stage: stage, Err: err}
}

func (p *Processor) summary(c *runCounters, elapsed time.Duration) *Summary {
	c.mu.Lock()
	keys := append([]string(nil), c.keys...)
	c.mu.Unlock()
	sort.Strings(keys)

	s := &Summary{
		WindowsTotal:  len(p.windows),
		Processed:     int(c.processed.Load()),
		Skipped:       int(c.skipped.Load()),
		RowsExtracted: c.extracted.Load(),
		RowsWritten:   c.written.Load(),
		Elapsed:       elapsed,
		Written:       keys,
	}

	if r := p.metrics.Result(MetricExtractLatency); r.HasPercentiles() {
		s.LatencyP50 = millis(*r.P50)
		s.LatencyP95 = millis(*r.P95)
		s.LatencyP99 = millis(*r.P99)
	}
	return s
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
