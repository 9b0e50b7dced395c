package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/eventstore"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "events.duckdb")

	args := []string{"--db", db, "--start", "2024-01-01 00:00:00", "--hours", "2", "--per-hour", "50"}
	var stderr bytes.Buffer
	if err := run(ctx, args, &stderr); err != nil {
		t.Fatalf("run: %v\n%s", err, stderr.String())
	}
	// A second run appends.
	if err := run(ctx, args, &stderr); err != nil {
		t.Fatalf("second run: %v", err)
	}

	store, err := eventstore.Open(ctx, config.StoreConfig{Driver: "duckdb", DSN: db, Table: "events"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 200 {
		t.Errorf("expected 200 events, got %d", n)
	}
}

func TestRunInvalid(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "events.duckdb")

	if err := run(ctx, []string{"--db", db, "--hours", "0"}, &bytes.Buffer{}); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := run(ctx, []string{"--db", db, "--start", "yesterday"}, &bytes.Buffer{}); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := run(ctx, []string{"--db", db, "--table", "events; drop"}, &bytes.Buffer{}); !errors.Is(err, errors.ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
}
