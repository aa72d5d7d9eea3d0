// Package ingestion reads the raw transaction and donor CSV exports,
// normalizes the messy fields, and loads the survivors into storage. Rows
// that cannot be resolved to a valid (account, date, amount) are dropped and
// counted, never guessed at.
package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CleanMoney parses a currency string: "$1,234.56", "1234.56", "($50.00)"
// for negatives, with surrounding whitespace tolerated.
func CleanMoney(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if negative {
		v = -v
	}
	return v, nil
}

// dateLayouts are tried in order. Parsed dates are truncated to UTC midnight.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
}

// CleanDate parses a transaction date in any of the export formats.
func CleanDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Zip5 extracts the first run of five consecutive digits, so
// "MO 63122-4001" resolves to "63122". Returns "" when no such run exists.
func Zip5(s string) string {
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			run = 0
			continue
		}
		run++
		if run == 5 {
			return s[i-4 : i+1]
		}
	}
	return ""
}

// CleanBirthYear parses a birth year, tolerating float formatting like
// "1975.0". Years outside a plausible range are rejected.
func CleanBirthYear(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty birth year")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse birth year %q: %w", s, err)
	}
	if v < 1900 || v > 2100 {
		return 0, fmt.Errorf("birth year %v out of range", v)
	}
	return v, nil
}

// optionalString trims a raw cell and maps blanks to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
