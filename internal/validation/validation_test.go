package validation

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xtxerr/smartbid/internal/errors"
)

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2023-11-01 12:34:56")
	if err != nil {
		t.Fatalf("ParseDateTime: %v", err)
	}
	want := time.Date(2023, 11, 1, 12, 34, 56, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseDateTimeInvalid(t *testing.T) {
	for _, in := range []string{"invalid-datetime-string", "2023-11-01", "2023-13-01 00:00:00", ""} {
		_, err := ParseDateTime(in)
		if !errors.Is(err, errors.ErrInvalidArgument) {
			t.Errorf("ParseDateTime(%q): expected ErrInvalidArgument, got %v", in, err)
			continue
		}
		if !strings.Contains(err.Error(), DateTimeLayout) {
			t.Errorf("error should name the expected format: %v", err)
		}
	}
}

func TestParsePercentage(t *testing.T) {
	for in, want := range map[string]float64{"0": 0, "0.5": 0.5, "1": 1, " 0.01 ": 0.01} {
		got, err := ParsePercentage(in)
		if err != nil {
			t.Fatalf("ParsePercentage(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePercentage(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParsePercentageInvalid(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"-0.1", errors.ErrInvalidPercentage},
		{"1.1", errors.ErrInvalidPercentage},
		{"NaN", errors.ErrInvalidPercentage},
		{"invalid", errors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		_, err := ParsePercentage(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("ParsePercentage(%q) = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestCheckPercentage(t *testing.T) {
	if err := CheckPercentage(math.Inf(1)); err == nil {
		t.Error("expected error for +Inf")
	}
	if err := CheckPercentage(0.25); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParsePositiveInt(t *testing.T) {
	for in, want := range map[string]int{"1": 1, "10": 10} {
		got, err := ParsePositiveInt(in)
		if err != nil {
			t.Fatalf("ParsePositiveInt(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePositiveInt(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"0", "-1", "invalid", "1.5"} {
		if _, err := ParsePositiveInt(in); !errors.Is(err, errors.ErrInvalidArgument) {
			t.Errorf("ParsePositiveInt(%q): expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestParseChoice(t *testing.T) {
	if got, err := ParseChoice("storage_type", "local", "local", "remote"); err != nil || got != "local" {
		t.Errorf("ParseChoice = %q, %v", got, err)
	}
	if _, err := ParseChoice("storage_type", "s3", "local", "remote"); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
