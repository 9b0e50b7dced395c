package aggregate

import (
	"math"
	"sync"
	"testing"
)

func TestStreamingAggregate_Basic(t *testing.T) {
	agg := New("rows", false)

	if !agg.IsEmpty() {
		t.Error("new aggregate should be empty")
	}

	agg.Add(10.0)
	agg.Add(20.0)
	agg.Add(30.0)

	if agg.Count() != 3 {
		t.Errorf("expected count=3, got %d", agg.Count())
	}

	result := agg.Result()

	if result.Name != "rows" {
		t.Errorf("expected name=rows, got %q", result.Name)
	}
	if result.Sum != 60.0 {
		t.Errorf("expected sum=60, got %f", result.Sum)
	}
	if result.Min != 10.0 {
		t.Errorf("expected min=10, got %f", result.Min)
	}
	if result.Max != 30.0 {
		t.Errorf("expected max=30, got %f", result.Max)
	}
	if math.Abs(result.Avg-20.0) > 0.001 {
		t.Errorf("expected avg=20, got %f", result.Avg)
	}
	if result.HasPercentiles() {
		t.Error("should not have percentiles")
	}
}

func TestStreamingAggregate_Empty(t *testing.T) {
	result := New("latency", true).Result()
	if result.Count != 0 || result.Min != 0 || result.Max != 0 {
		t.Errorf("empty result should be zero, got %+v", result)
	}
	if result.HasPercentiles() {
		t.Error("empty aggregate should not report percentiles")
	}
}

func TestStreamingAggregate_WithPercentiles(t *testing.T) {
	agg := New("latency", true)

	// Add 100 values: 1, 2, 3, ..., 100
	for i := 1; i <= 100; i++ {
		agg.Add(float64(i))
	}

	result := agg.Result()

	if !result.HasPercentiles() {
		t.Fatal("should have percentiles")
	}

	// P50 should be around 50
	if math.Abs(*result.P50-50.0) > 2.0 {
		t.Errorf("expected P50 near 50, got %f", *result.P50)
	}

	// P95 should be around 95
	if math.Abs(*result.P95-95.0) > 2.0 {
		t.Errorf("expected P95 near 95, got %f", *result.P95)
	}

	// P99 should be around 99
	if math.Abs(*result.P99-99.0) > 2.0 {
		t.Errorf("expected P99 near 99, got %f", *result.P99)
	}
}

func TestStreamingAggregate_Merge(t *testing.T) {
	a := New("latency", true)
	b := New("latency", true)

	for i := 1; i <= 50; i++ {
		a.Add(float64(i))
	}
	for i := 51; i <= 100; i++ {
		b.Add(float64(i))
	}

	a.Merge(b)
	a.Merge(nil)
	a.Merge(a)

	result := a.Result()
	if result.Count != 100 {
		t.Errorf("expected count=100, got %d", result.Count)
	}
	if result.Min != 1 || result.Max != 100 {
		t.Errorf("expected range [1, 100], got [%f, %f]", result.Min, result.Max)
	}
	if math.Abs(*result.P50-50.0) > 2.0 {
		t.Errorf("expected merged P50 near 50, got %f", *result.P50)
	}
}

func TestStreamingAggregate_Concurrent(t *testing.T) {
	agg := New("latency", true)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				agg.Add(float64(i))
			}
		}()
	}
	wg.Wait()

	if agg.Count() != 8000 {
		t.Errorf("expected count=8000, got %d", agg.Count())
	}
}

func TestManager(t *testing.T) {
	m := NewManager(true)

	m.Observe("extract_ms", 12)
	m.Observe("extract_ms", 18)
	m.Observe("rows", 100)

	if r := m.Result("extract_ms"); r.Count != 2 || r.Sum != 30 {
		t.Errorf("extract_ms = %+v", r)
	}
	if r := m.Result("unknown"); r.Count != 0 || r.Name != "unknown" {
		t.Errorf("unknown = %+v", r)
	}

	results := m.Results()
	if len(results) != 2 || results[0].Name != "extract_ms" || results[1].Name != "rows" {
		t.Errorf("Results = %+v", results)
	}
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(false)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Observe("windows", 1)
			}
		}()
	}
	wg.Wait()

	if r := m.Result("windows"); r.Count != 800 {
		t.Errorf("expected count=800, got %d", r.Count)
	}
}

func BenchmarkStreamingAggregate_Add(b *testing.B) {
	agg := New("bench", false)
	for i := 0; i < b.N; i++ {
		agg.Add(float64(i))
	}
}

func BenchmarkStreamingAggregate_AddWithPercentile(b *testing.B) {
	agg := New("bench", true)
	for i := 0; i < b.N; i++ {
		agg.Add(float64(i))
	}
}
