// Package aggregate keeps running statistics for run metrics such as
// extraction latency and rows per window, with DDSketch percentiles.
package aggregate

import (
	"math"
	"sort"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Result is a snapshot of a StreamingAggregate.
type Result struct {
	Name  string
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64

	// Percentiles, nil when disabled or empty
	P50 *float64
	P90 *float64
	P95 *float64
	P99 *float64
}

// HasPercentiles reports whether the percentile fields are set.
func (r Result) HasPercentiles() bool {
	return r.P50 != nil
}

// StreamingAggregate maintains running statistics for a single metric.
// It supports optional percentile calculation using DDSketch.
type StreamingAggregate struct {
	mu sync.Mutex

	name string

	// Running statistics
	count int64
	sum   float64
	min   float64
	max   float64

	// DDSketch for percentiles (nil if disabled)
	sketch *ddsketch.DDSketch
}

// New creates a new StreamingAggregate.
func New(name string, enablePercentile bool) *StreamingAggregate {
	if enablePercentile {
		return NewWithAccuracy(name, 0.01)
	}
	return &StreamingAggregate{
		name: name,
		min:  math.MaxFloat64,
		max:  -math.MaxFloat64,
	}
}

// NewWithAccuracy creates a new StreamingAggregate with custom percentile accuracy.
func NewWithAccuracy(name string, accuracy float64) *StreamingAggregate {
	agg := &StreamingAggregate{
		name: name,
		min:  math.MaxFloat64,
		max:  -math.MaxFloat64,
	}

	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err == nil {
		agg.sketch = sketch
	}

	return agg
}

// Add adds a value to the aggregate.
func (a *StreamingAggregate) Add(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count++
	a.sum += value

	if value < a.min {
		a.min = value
	}
	if value > a.max {
		a.max = value
	}

	if a.sketch != nil {
		a.sketch.Add(value)
	}
}

// Count returns the number of values added.
func (a *StreamingAggregate) Count() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// IsEmpty returns true if no values have been added.
func (a *StreamingAggregate) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count == 0
}

// Name returns the metric name.
func (a *StreamingAggregate) Name() string {
	return a.name
}

// Result returns the aggregation result.
func (a *StreamingAggregate) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := Result{
		Name:  a.name,
		Count: a.count,
		Sum:   a.sum,
	}

	if a.count > 0 {
		result.Avg = a.sum / float64(a.count)
		result.Min = a.min
		result.Max = a.max
	}

	// Calculate percentiles if enabled and we have data
	if a.sketch != nil && a.count > 0 {
		p50, _ := a.sketch.GetValueAtQuantile(0.50)
		p90, _ := a.sketch.GetValueAtQuantile(0.90)
		p95, _ := a.sketch.GetValueAtQuantile(0.95)
		p99, _ := a.sketch.GetValueAtQuantile(0.99)
		result.P50, result.P90, result.P95, result.P99 = &p50, &p90, &p95, &p99
	}

	return result
}

// Merge combines another aggregate into this one.
func (a *StreamingAggregate) Merge(other *StreamingAggregate) {
	if other == nil || other == a {
		return
	}

	other.mu.Lock()
	defer other.mu.Unlock()
	if other.count == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.count += other.count
	a.sum += other.sum

	if other.min < a.min {
		a.min = other.min
	}
	if other.max > a.max {
		a.max = other.max
	}

	// Merge sketches
	if a.sketch != nil && other.sketch != nil {
		a.sketch.MergeWith(other.sketch)
	}
}

// Manager holds one aggregate per metric name.
type Manager struct {
	mu sync.RWMutex

	percentileEnabled bool
	aggregates        map[string]*StreamingAggregate
}

// NewManager creates a new aggregate manager.
func NewManager(percentileEnabled bool) *Manager {
	return &Manager{
		percentileEnabled: percentileEnabled,
		aggregates:        make(map[string]*StreamingAggregate),
	}
}

// Observe adds value to the aggregate for name, creating it on first use.
func (m *Manager) Observe(name string, value float64) {
	m.get(name).Add(value)
}

func (m *Manager) get(name string) *StreamingAggregate {
	m.mu.RLock()
	agg, ok := m.aggregates[name]
	m.mu.RUnlock()
	if ok {
		return agg
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if agg, ok := m.aggregates[name]; ok {
		return agg
	}
	agg = New(name, m.percentileEnabled)
	m.aggregates[name] = agg
	return agg
}

// Result returns the snapshot for name. Unknown names yield an empty result.
func (m *Manager) Result(name string) Result {
	m.mu.RLock()
	agg, ok := m.aggregates[name]
	m.mu.RUnlock()
	if !ok {
		return Result{Name: name}
	}
	return agg.Result()
}

// Results returns a snapshot of every aggregate, sorted by name.
func (m *Manager) Results() []Result {
	m.mu.RLock()
	aggs := make([]*StreamingAggregate, 0, len(m.aggregates))
	for _, agg := range m.aggregates {
		aggs = append(aggs, agg)
	}
	m.mu.RUnlock()

	results := make([]Result, len(aggs))
	for i, agg := range aggs {
		results[i] = agg.Result()
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}
