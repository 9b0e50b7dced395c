package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/eventstore"
	"github.com/xtxerr/smartbid/internal/seed"
	"github.com/xtxerr/smartbid/internal/storage/dataset"
	"github.com/xtxerr/smartbid/internal/storage/parquet"
)

var now = time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) config.LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parseArgs([]string{"--storage_type", "local"}, noEnv, now, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}

	if want := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC); !opts.start.Equal(want) {
		t.Errorf("start = %s, want %s", opts.start, want)
	}
	if want := time.Date(2024, 5, 9, 23, 59, 59, 0, time.UTC); !opts.end.Equal(want) {
		t.Errorf("end = %s, want %s", opts.end, want)
	}
	if opts.cfg.Run.DownSamplingPercentage != 0.01 || opts.cfg.Run.MaxWorkers != 8 {
		t.Errorf("run config = %+v", opts.cfg.Run)
	}
	if opts.cfg.Dataset.Type != "local" || !opts.cfg.Run.SkipExisting {
		t.Errorf("dataset type = %q, skip existing = %v", opts.cfg.Dataset.Type, opts.cfg.Run.SkipExisting)
	}
}

func TestParseArgsExplicitRange(t *testing.T) {
	args := []string{
		"--storage_type", "local",
		"--start_date", "2024-01-01 00:00:00",
		"--end_date", "2024-01-01 05:59:59",
		"--down_sampling_percentage", "0.25",
		"--max_workers", "2",
		"--overwrite",
	}
	opts, err := parseArgs(args, noEnv, now, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}

	if !opts.start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) ||
		!opts.end.Equal(time.Date(2024, 1, 1, 5, 59, 59, 0, time.UTC)) {
		t.Errorf("range = %s .. %s", opts.start, opts.end)
	}
	if opts.cfg.Run.DownSamplingPercentage != 0.25 || opts.cfg.Run.MaxWorkers != 2 {
		t.Errorf("run config = %+v", opts.cfg.Run)
	}
	if opts.cfg.Run.SkipExisting {
		t.Error("--overwrite should disable skip existing")
	}
}

func TestParseArgsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.yaml")
	writeFile(t, path, `
run:
  max_workers: 3
  down_sampling_percentage: 0.5
store:
  table: file_events
dataset:
  type: local
  local:
    root: /from/file
`)

	env := envMap(map[string]string{
		config.EnvStoreTable:  "env_events",
		config.EnvDatasetRoot: "/from/env",
	})
	opts, err := parseArgs([]string{"--config", path, "--max_workers", "5"}, env, now, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}

	cfg := opts.cfg
	if cfg.Run.MaxWorkers != 5 {
		t.Errorf("flag should win: max_workers = %d", cfg.Run.MaxWorkers)
	}
	if cfg.Run.DownSamplingPercentage != 0.5 {
		t.Errorf("file should beat default: pct = %v", cfg.Run.DownSamplingPercentage)
	}
	if cfg.Store.Table != "env_events" || cfg.Dataset.Local.Root != "/from/env" {
		t.Errorf("env should beat file: table = %q root = %q", cfg.Store.Table, cfg.Dataset.Local.Root)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"pct above one", []string{"--storage_type", "local", "--down_sampling_percentage", "1.5"}, errors.ErrInvalidPercentage},
		{"pct not a number", []string{"--storage_type", "local", "--down_sampling_percentage", "abc"}, errors.ErrInvalidArgument},
		{"zero workers", []string{"--storage_type", "local", "--max_workers", "0"}, errors.ErrInvalidArgument},
		{"unknown storage", []string{"--storage_type", "gcs"}, errors.ErrInvalidArgument},
		{"bad start", []string{"--storage_type", "local", "--start_date", "2024-01-01"}, errors.ErrInvalidArgument},
		{"remote without bucket", []string{"--storage_type", "remote"}, errors.ErrInvalidConfig},
		{"missing config file", []string{"--config", "/nonexistent/etl.yaml"}, errors.ErrInvalidConfig},
		{"help", []string{"-h"}, flag.ErrHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, noEnv, now, &bytes.Buffer{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "events.duckdb")
	store, err := eventstore.Open(ctx, config.StoreConfig{Driver: "duckdb", DSN: dbPath, Table: "events"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events, err := seed.Generate(seed.Options{Start: start, Hours: 2, PerHour: 100, Seed: 1, Devices: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := store.Append(ctx, events); err != nil {
		t.Fatalf("Append: %v", err)
	}
	store.Close()

	dictDir := filepath.Join(dir, "dict")
	os.MkdirAll(dictDir, 0755)
	writeFile(t, filepath.Join(dictDir, "devices.json"), `[{"id": 1, "name": "Apple iPhone", "device_type": {"id": 2}}]`)
	writeFile(t, filepath.Join(dictDir, "product_categories.json"), `[]`)
	writeFile(t, filepath.Join(dictDir, "content_categories.json"), `[]`)

	root := filepath.Join(dir, "raw_dataset")
	cfgPath := filepath.Join(dir, "etl.yaml")
	writeFile(t, cfgPath, fmt.Sprintf(`
store:
  driver: duckdb
  dsn: %s
dataset:
  type: local
  local:
    root: %s
dictionary:
  dir: %s
logging:
  format: json
`, dbPath, root, dictDir))

	var stderr bytes.Buffer
	code := run([]string{
		"--config", cfgPath,
		"--start_date", "2024-01-01 00:00:00",
		"--end_date", "2024-01-01 01:59:59",
		"--down_sampling_percentage", "0.1",
		"--max_workers", "2",
	}, &stderr)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	ds, err := dataset.NewLocal(root, parquet.DefaultOptions())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	keys, err := ds.List(ctx)
	if err != nil || len(keys) != 2 {
		t.Fatalf("List = %v, %v", keys, err)
	}
	rows, err := ds.Read(ctx, "2024-01-01_01")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 10 {
		t.Errorf("expected round(100*0.1) = 10 rows, got %d", len(rows))
	}
}

func TestRunUsageError(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"--storage_type", "local", "--max_workers", "-1"}, &stderr); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if stderr.Len() == 0 {
		t.Error("expected a message on stderr")
	}
}

func TestRunInvalidLogLevel(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "etl.yaml")
	writeFile(t, cfgPath, `
dataset:
  type: local
logging:
  level: trace
`)

	var stderr bytes.Buffer
	if code := run([]string{"--config", cfgPath}, &stderr); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("level")) {
		t.Errorf("stderr should name the log level: %s", stderr.String())
	}
}
