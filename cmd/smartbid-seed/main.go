// smartbid-seed fills an event store with synthetic events for local runs
// of smartbid-etl.
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

	defaults "github.com/xtxerr/smartbid/config"
	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/eventstore"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/seed"
	"github.com/xtxerr/smartbid/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "smartbid-seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("smartbid-seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	driver := fs.String("driver", defaults.DefaultStoreDriver, "event store driver: duckdb, postgres, sqlite")
	dsn := fs.String("db", defaults.DefaultStoreDSN, "event store DSN (file path for duckdb and sqlite)")
	table := fs.String("table", defaults.DefaultStoreTable, "event table")
	startFlag := fs.String("start", "", "first hour, 'YYYY-MM-DD HH:MM:SS' (default 24 hours ago)")
	hours := fs.Int("hours", 24, "number of hours to generate")
	perHour := fs.Int("per-hour", 1000, "events per hour")
	seedFlag := fs.Uint64("seed", 1, "random seed")
	devices := fs.Int("devices", 50, "distinct device ids")
	logLevel := fs.String("log-level", defaults.DefaultLogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logging.InitWriter(stderr, level, false)
	log := logging.Component("seed")

	opts := seed.DefaultOptions()
	opts.Hours = *hours
	opts.PerHour = *perHour
	opts.Seed = *seedFlag
	opts.Devices = *devices
	if *startFlag != "" {
		if opts.Start, err = validation.ParseDateTime(*startFlag); err != nil {
			return err
		}
	}

	events, err := seed.Generate(opts)
	if err != nil {
		return err
	}

	store, err := eventstore.Open(ctx, config.StoreConfig{Driver: *driver, DSN: *dsn, Table: *table})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	started := time.Now()
	if err := store.Append(ctx, events); err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	log.Info("events written",
		"table", *table,
		"inserted", len(events),
		"total", total,
		"first_hour", opts.Start.UTC().Truncate(time.Hour).Format(time.DateTime),
		"hours", opts.Hours,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return nil
}
