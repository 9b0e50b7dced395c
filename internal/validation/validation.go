// Package validation provides centralized input validation for smartbid.
//
// Every parser returns an error wrapping errors.ErrInvalidArgument whose
// message names the expected format, so it can be shown to the user as-is.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xtxerr/smartbid/internal/errors"
)

// DateTimeLayout is the accepted command-line datetime format.
const DateTimeLayout = time.DateTime // "2006-01-02 15:04:05"

// =============================================================================
// Date/Time Validation
// =============================================================================

// ParseDateTime parses a "YYYY-MM-DD HH:MM:SS" value in UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, errors.NewInvalidArgument("datetime", s,
			fmt.Sprintf("expected format '%s'", DateTimeLayout))
	}
	return t, nil
}

// =============================================================================
// Numeric Validation
// =============================================================================

// ParsePercentage parses a sampling fraction in [0, 1].
func ParsePercentage(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.NewInvalidArgument("percentage", s, "must be a valid number")
	}
	if err := CheckPercentage(v); err != nil {
		return 0, err
	}
	return v, nil
}

// CheckPercentage verifies v lies in [0, 1]. NaN is rejected.
func CheckPercentage(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("percentage '%v': %w", v, errors.ErrInvalidPercentage)
	}
	return nil
}

// ParsePositiveInt parses an integer greater than zero.
func ParsePositiveInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.NewInvalidArgument("integer", s, "must be a valid integer")
	}
	if v <= 0 {
		return 0, errors.NewInvalidArgument("integer", s, "must be a positive integer")
	}
	return v, nil
}

// =============================================================================
// Choice Validation
// =============================================================================

// ParseChoice returns s if it is one of the allowed values.
func ParseChoice(name, s string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", errors.NewInvalidArgument(name, s,
		fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}
