// smartbid-etl extracts down-sampled hourly event windows from the event
// store and writes them as Parquet feature partitions.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/eventstore"
	"github.com/xtxerr/smartbid/internal/extract"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/processor"
	"github.com/xtxerr/smartbid/internal/storage/dataset"
	"github.com/xtxerr/smartbid/internal/transform"
)

// Version is set at build time via ldflags
var Version = "dev"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, os.LookupEnv, time.Now(), stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "smartbid-etl: %v\n", err)
		return exitUsage
	}

	level, err := logging.ParseLevel(opts.cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(stderr, "smartbid-etl: %v\n", err)
		return exitUsage
	}
	logging.Init(level, logging.UseJSON(opts.cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())

	log := logging.WithContext(ctx)
	log.Info("smartbid-etl starting", "version", Version)

	summary, err := execute(ctx, opts)
	if err != nil {
		log.Error("run failed", "error", err, "stage", errors.Stage(err))
		if errors.IsValidation(err) {
			return exitUsage
		}
		return exitError
	}

	log.Info("run complete",
		"windows", summary.WindowsTotal,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"rows_extracted", summary.RowsExtracted,
		"rows_written", summary.RowsWritten,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
		"latency_p50", summary.LatencyP50,
		"latency_p95", summary.LatencyP95,
		"latency_p99", summary.LatencyP99,
	)
	return exitOK
}

// execute wires the event store, dictionary and dataset into a processor
// and runs it.
func execute(ctx context.Context, opts *runOptions) (*processor.Summary, error) {
	cfg := opts.cfg
	log := logging.WithContext(ctx)

	store, err := eventstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	defer store.Close()

	ext, err := extract.FromStore(store)
	if err != nil {
		return nil, err
	}

	dict, err := transform.LoadDictionary(cfg.Dictionary.Dir)
	if err != nil {
		return nil, fmt.Errorf("load dictionaries: %w", err)
	}
	log.Info("dictionaries loaded",
		"devices", dict.Len(transform.DeviceDictionary),
		"brands", dict.Brands(),
		"product_categories", dict.Len(transform.ProductCategoryDictionary),
		"content_categories", dict.Len(transform.ContentCategoryDictionary),
	)

	ds, err := dataset.New(ctx, cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	p, err := processor.New(ext, transform.New(dict), ds, processor.Options{
		Start:                  opts.start,
		End:                    opts.end,
		DownSamplingPercentage: cfg.Run.DownSamplingPercentage,
		MaxWorkers:             cfg.Run.MaxWorkers,
		QueryTimeout:           cfg.Store.QueryTimeout,
		SkipExisting:           cfg.Run.SkipExisting,
	})
	if err != nil {
		return nil, err
	}

	return p.Run(ctx)
}
