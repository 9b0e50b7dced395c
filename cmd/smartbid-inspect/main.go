// smartbid-inspect prints the partitions of a local feature dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	defaults "github.com/xtxerr/smartbid/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/logging"
	"github.com/xtxerr/smartbid/internal/storage/dataset"
	"github.com/xtxerr/smartbid/internal/storage/parquet"
	"github.com/xtxerr/smartbid/internal/storage/query"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "smartbid-inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("smartbid-inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	root := fs.String("root", defaults.DefaultLocalRoot, "local dataset directory")
	breakdown := fs.String("breakdown", "", "also count rows per value of this feature column")
	limit := fs.Int("limit", 10, "maximum breakdown rows")
	memoryLimit := fs.String("memory-limit", "", "DuckDB memory limit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.InitWriter(stderr, slog.LevelWarn, false)

	if _, err := os.Stat(*root); err != nil {
		return fmt.Errorf("dataset root %s: %w", *root, errors.ErrNotFound)
	}
	ds, err := dataset.NewLocal(*root, parquet.DefaultOptions())
	if err != nil {
		return err
	}

	keys, err := ds.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(stdout, "no partitions under %s\n", *root)
		return nil
	}

	svc, err := query.New(*memoryLimit)
	if err != nil {
		return err
	}
	defer svc.Close()

	parts, err := svc.Partitions(ctx, ds.Glob())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTITION\tROWS\tFIRST EVENT\tLAST EVENT\tCLICK RATE\tCONVERSION RATE")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.4f\t%.4f\n",
			p.Key, p.Rows,
			p.FirstEvent.Format(time.DateTime), p.LastEvent.Format(time.DateTime),
			p.ClickRate, p.ConversionRate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum, err := svc.Summary(ctx, ds.Glob())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n%d partitions, %d rows", sum.Partitions, sum.Rows)
	if sum.Rows > 0 {
		fmt.Fprintf(stdout, ", %s to %s", sum.FirstEvent.Format(time.DateTime), sum.LastEvent.Format(time.DateTime))
	}
	fmt.Fprintln(stdout)

	if *breakdown == "" {
		return nil
	}

	buckets, err := svc.Breakdown(ctx, ds.Glob(), *breakdown, *limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n")
	tw = tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tROWS\n", *breakdown)
	for _, b := range buckets {
		fmt.Fprintf(tw, "%d\t%d\n", b.Value, b.Rows)
	}
	return tw.Flush()
}
