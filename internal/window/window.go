// Package window partitions an extraction date range into disjoint hourly
// windows. Each window becomes one extractor call and one dataset partition.
package window

import (
	"fmt"
	"time"

	"github.com/xtxerr/smartbid/internal/errors"
)

// KeyLayout formats a window start as its dataset partition key.
const KeyLayout = "2006-01-02_15"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Key returns the partition key of the window, e.g. "2024-01-31_23".
func (w Window) Key() string {
	return w.Start.Format(KeyLayout)
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// String returns a human-readable representation of the window.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.DateTime), w.End.Format(time.DateTime))
}

// HourIntervals splits [start, end] into consecutive one-hour windows.
//
// The number of windows is ceil((end-start)/1h) and every window is a full
// hour, so the last one may reach past end. Windows never overlap and leave
// no gaps. The zero time is rejected for either bound, and start must be
// strictly before end.
func HourIntervals(start, end time.Time) ([]Window, error) {
	return Intervals(start, end, time.Hour)
}

// Intervals is HourIntervals with an arbitrary positive step.
func Intervals(start, end time.Time, step time.Duration) ([]Window, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("both start and end must be provided: %w", errors.ErrInvalidWindow)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s must be before end %s: %w",
			start.Format(time.DateTime), end.Format(time.DateTime), errors.ErrInvalidWindow)
	}
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive: %w", errors.ErrInvalidWindow)
	}

	span := end.Sub(start)
	n := int(span / step)
	if span%step > 0 {
		n++
	}

	windows := make([]Window, 0, n)
	cur := start
	for i := 0; i < n; i++ {
		next := cur.Add(step)
		windows = append(windows, Window{Start: cur, End: next})
		cur = next
	}

	return windows, nil
}

// PastDays returns the range covering the given number of whole days before
// now: from 00:00:00 days ago to 23:59:59 yesterday, in now's location.
func PastDays(days int, now time.Time) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}

	y, m, d := now.Date()
	loc := now.Location()

	end := time.Date(y, m, d-1, 23, 59, 59, 0, loc)
	start := time.Date(y, m, d-days, 0, 0, 0, 0, loc)

	return start, end
}
