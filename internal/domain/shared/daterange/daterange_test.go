package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func mustRange(t *testing.T, checkIn, checkOut string) DateRange {
	t.Helper()
	dr, err := New(day(checkIn), day(checkOut))
	require.NoError(t, err)
	return dr
}

func TestNewRejectsInvalidRanges(t *testing.T) {
	cases := []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{"same day", "2024-01-01", "2024-01-01"},
		{"checkout before checkin", "2024-01-05", "2024-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(day(tc.checkIn), day(tc.checkOut))
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestNewNormalizesToMidnight(t *testing.T) {
	checkIn := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	checkOut := time.Date(2024, 3, 12, 11, 0, 0, 0, time.UTC)
	dr, err := New(checkIn, checkOut)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), dr.CheckIn)
	assert.Equal(t, 2, dr.Nights())
}

func TestOverlaps(t *testing.T) {
	base := mustRange(t, "2024-06-10", "2024-06-15")

	cases := []struct {
		name     string
		other    DateRange
		overlaps bool
	}{
		{"identical", mustRange(t, "2024-06-10", "2024-06-15"), true},
		{"partial head", mustRange(t, "2024-06-08", "2024-06-11"), true},
		{"partial tail", mustRange(t, "2024-06-14", "2024-06-20"), true},
		{"contained", mustRange(t, "2024-06-11", "2024-06-13"), true},
		{"containing", mustRange(t, "2024-06-01", "2024-06-30"), true},
		{"adjacent before", mustRange(t, "2024-06-05", "2024-06-10"), false},
		{"adjacent after", mustRange(t, "2024-06-15", "2024-06-18"), false},
		{"disjoint", mustRange(t, "2024-07-01", "2024-07-05"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, base.Overlaps(tc.other))
			assert.Equal(t, tc.overlaps, tc.other.Overlaps(base))
		})
	}
}

func TestAdjacent(t *testing.T) {
	a := mustRange(t, "2024-06-10", "2024-06-15")
	b := mustRange(t, "2024-06-15", "2024-06-18")
	assert.True(t, a.Adjacent(b))
	assert.True(t, b.Adjacent(a))
	assert.False(t, a.Overlaps(b))
}

func TestContainsDate(t *testing.T) {
	dr := mustRange(t, "2024-06-10", "2024-06-15")
	assert.True(t, dr.ContainsDate(day("2024-06-10")))
	assert.True(t, dr.ContainsDate(day("2024-06-14")))
	assert.False(t, dr.ContainsDate(day("2024-06-15")), "checkout day is outside the half-open interval")
	assert.False(t, dr.ContainsDate(day("2024-06-09")))
}

func TestEndedBefore(t *testing.T) {
	dr := mustRange(t, "2024-06-10", "2024-06-15")
	assert.False(t, dr.EndedBefore(day("2024-06-14")))
	assert.True(t, dr.EndedBefore(day("2024-06-15")))
	assert.True(t, dr.EndedBefore(day("2024-07-01")))
}
