// Package testutil provides helpers shared by the pipeline tests.
//
// Using t.Fatal or t.FailNow in a goroutine only exits that goroutine, so
// concurrent tests report through GoroutineTest instead.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/eventstore"
	"github.com/xtxerr/smartbid/internal/storage/types"
)

// GoroutineTest collects errors from goroutines and reports them on Wait.
//
//	gt := testutil.NewGoroutineTest(t)
//	defer gt.Wait()
//
//	gt.Go(func() error {
//	    if got := work(); got != want {
//	        return fmt.Errorf("got %v, want %v", got, want)
//	    }
//	    return nil
//	})
type GoroutineTest struct {
	t      *testing.T
	wg     sync.WaitGroup
	errors chan error
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGoroutineTest creates a GoroutineTest whose context expires after timeout.
func NewGoroutineTest(t *testing.T, timeout time.Duration) *GoroutineTest {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return &GoroutineTest{
		t:      t,
		errors: make(chan error, 100),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go runs fn in a goroutine with the test context.
func (gt *GoroutineTest) Go(fn func(ctx context.Context) error) {
	gt.wg.Add(1)
	go func() {
		defer gt.wg.Done()
		if err := fn(gt.ctx); err != nil {
			select {
			case gt.errors <- err:
			default:
				gt.t.Logf("error channel full, dropping error: %v", err)
			}
		}
	}()
}

// Context returns the test context.
func (gt *GoroutineTest) Context() context.Context {
	return gt.ctx
}

// Wait waits for every goroutine and fails the test if any returned an error.
func (gt *GoroutineTest) Wait() {
	gt.t.Helper()
	gt.wg.Wait()
	gt.cancel()
	close(gt.errors)

	var errs []error
	for err := range gt.errors {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		gt.t.Errorf("goroutine test failed with %d error(s):", len(errs))
		for i, err := range errs {
			gt.t.Errorf("  [%d] %v", i+1, err)
		}
		gt.t.FailNow()
	}
}

// Gauge tracks how many callers are inside a section at once.
type Gauge struct {
	cur atomic.Int64
	max atomic.Int64
}

// Enter marks one more caller inside the section.
func (g *Gauge) Enter() {
	n := g.cur.Add(1)
	for {
		m := g.max.Load()
		if n <= m || g.max.CompareAndSwap(m, n) {
			return
		}
	}
}

// Leave marks a caller as having left the section.
func (g *Gauge) Leave() {
	g.cur.Add(-1)
}

// Max returns the highest number of concurrent callers seen.
func (g *Gauge) Max() int64 {
	return g.max.Load()
}

// Eventually polls condition until it holds or timeout elapses.
func Eventually(timeout, interval time.Duration, condition func() bool) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("condition not met within %v", timeout)
}

// DuckDBStore opens an in-memory DuckDB event store holding events.
func DuckDBStore(t *testing.T, events []types.Event) *eventstore.Store {
	t.Helper()
	ctx := context.Background()

	s, err := eventstore.Open(ctx, config.StoreConfig{Driver: "duckdb", Table: "events"})
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if err := s.Append(ctx, events); err != nil {
		t.Fatalf("append events: %v", err)
	}
	return s
}
