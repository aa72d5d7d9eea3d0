package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		days int
	}{
		{"30D", 30},
		{"30d", 30},
		{"7D", 7},
		{"4W", 28},
		{"2w", 14},
		{"30", 30},
		{" 30D ", 30},
	}
	for _, tt := range tests {
		f, err := ParseFrequency(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.days, f.Days, tt.in)
	}
}

func TestParseFrequency_Invalid(t *testing.T) {
	for _, in := range []string{"", "D", "abc", "0D", "-5D", "1M"} {
		_, err := ParseFrequency(in)
		assert.Error(t, err, in)
	}
}

func TestFrequencyDates(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)

	dates := Frequency{Days: 30}.Dates(start, end)
	require.Len(t, dates, 3)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), dates[1])
	assert.Equal(t, time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC), dates[2])
}

func TestFrequencyDates_EndInclusive(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	dates := Frequency{Days: 30}.Dates(start, end)
	require.Len(t, dates, 2)
	assert.Equal(t, end, dates[1])
}

func TestFrequencyDates_InvertedRange(t *testing.T) {
	start := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, Frequency{Days: 30}.Dates(start, end))
}
