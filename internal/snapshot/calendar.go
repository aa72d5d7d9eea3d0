package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is a snapshot cadence in whole days.
type Frequency struct {
	Days int
}

// ParseFrequency parses a cadence string. Accepted forms: "30D", "30d",
// "4W" (weeks), or a bare day count "30".
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Frequency{}, fmt.Errorf("parse frequency: empty string")
	}

	unit := 1
	switch {
	case strings.HasSuffix(s, "D"), strings.HasSuffix(s, "d"):
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "W"), strings.HasSuffix(s, "w"):
		s = s[:len(s)-1]
		unit = 7
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Frequency{}, fmt.Errorf("parse frequency %q: %w", s, err)
	}
	if n <= 0 {
		return Frequency{}, fmt.Errorf("parse frequency: %d days is not positive", n*unit)
	}
	return Frequency{Days: n * unit}, nil
}

func (f Frequency) String() string {
	return fmt.Sprintf("%dD", f.Days)
}

// Dates generates the snapshot date sequence [start, end] at the cadence.
// Returns nil when start is after end.
func (f Frequency) Dates(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, f.Days) {
		dates = append(dates, d)
	}
	return dates
}
