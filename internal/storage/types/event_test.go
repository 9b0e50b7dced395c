package types

import (
	"testing"
	"time"
)

func TestEventColumnsMatchScanTargets(t *testing.T) {
	var e Event
	if got, want := len(e.ScanTargets()), len(EventColumns); got != want {
		t.Fatalf("ScanTargets has %d entries, EventColumns has %d", got, want)
	}
	if got, want := len(e.Values()), len(EventColumns); got != want {
		t.Fatalf("Values has %d entries, EventColumns has %d", got, want)
	}
	if EventColumns[0] != "date_time" || EventColumns[len(EventColumns)-1] != "goal" {
		t.Errorf("unexpected column order: %v", EventColumns)
	}
}

func TestScanTargetsPointAtFields(t *testing.T) {
	var e Event
	targets := e.ScanTargets()

	*(targets[0].(*time.Time)) = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	*(targets[1].(*string)) = "DE"
	*(targets[21].(*string)) = "sub-7"
	*(targets[24].(*int64)) = 1

	if e.Country != "DE" || e.Sub != "sub-7" || e.Goal != 1 || e.DateTime.Year() != 2024 {
		t.Errorf("scan targets do not alias event fields: %+v", e)
	}
}

func TestInWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		at   time.Time
		want bool
	}{
		{start, true},
		{start.Add(30 * time.Minute), true},
		{end.Add(-time.Nanosecond), true},
		{end, false},
		{start.Add(-time.Second), false},
	}

	for _, tt := range tests {
		e := Event{DateTime: tt.at}
		if got := e.InWindow(start, end); got != tt.want {
			t.Errorf("InWindow(%s) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestDayOfWeekMondayFirst(t *testing.T) {
	tests := map[time.Weekday]int32{
		time.Monday:    0,
		time.Tuesday:   1,
		time.Saturday:  5,
		time.Sunday:    6,
		time.Wednesday: 2,
	}
	for d, want := range tests {
		if got := DayOfWeekMondayFirst(d); got != want {
			t.Errorf("DayOfWeekMondayFirst(%s) = %d, want %d", d, got, want)
		}
	}
}

func TestValuesUseUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	e := Event{DateTime: time.Date(2024, 1, 1, 13, 0, 0, 0, cet)}

	got := e.Values()[0].(time.Time)
	if got.Location() != time.UTC {
		t.Errorf("location = %s, want UTC", got.Location())
	}
	if !got.Equal(e.DateTime) || got.Hour() != 12 {
		t.Errorf("date_time = %s, want 12:00 UTC", got)
	}

	dv := e.DriverValues()
	if len(dv) != len(EventColumns) {
		t.Fatalf("DriverValues has %d entries, want %d", len(dv), len(EventColumns))
	}
	if !dv[0].(time.Time).Equal(got) {
		t.Errorf("DriverValues[0] = %v, want %v", dv[0], got)
	}
}
