package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a parsed product duration in whole calendar units.
type Duration struct {
	Months int
	Years  int
}

// AddTo returns the end date for a purchase starting at t.
func (d Duration) AddTo(t time.Time) time.Time {
	return t.AddDate(d.Years, d.Months, 0)
}

// ParseDuration parses a catalog duration string such as "3 months" or
// "1 year". Only month and year units are supported; day and week
// durations are deliberately rejected until the product grammar settles.
func ParseDuration(s string) (Duration, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) != 2 {
		return Duration{}, errors.Join(ErrInvalidDuration, fmt.Errorf("want %q, got %q", "<n> <unit>", s))
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return Duration{}, errors.Join(ErrInvalidDuration, fmt.Errorf("invalid count %q", fields[0]))
	}

	switch fields[1] {
	case "month", "months":
		return Duration{Months: n}, nil
	case "year", "years":
		return Duration{Years: n}, nil
	default:
		return Duration{}, errors.Join(ErrInvalidDuration, fmt.Errorf("unsupported unit %q", fields[1]))
	}
}
