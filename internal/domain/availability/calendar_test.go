package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
)

func block(t *testing.T, checkIn, checkOut string) daterange.DateRange {
	t.Helper()
	parse := func(v string) time.Time {
		ts, err := time.Parse("2006-01-02", v)
		require.NoError(t, err)
		return ts
	}
	dr, err := daterange.New(parse(checkIn), parse(checkOut))
	require.NoError(t, err)
	return dr
}

func TestReserveRejectsOverlap(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cal := NewCalendar("lst-1")

	require.NoError(t, cal.Reserve(block(t, "2024-06-10", "2024-06-15"), "bkg-1", now))
	err := cal.Reserve(block(t, "2024-06-12", "2024-06-18"), "bkg-2", now)
	assert.ErrorIs(t, err, ErrOverlappingRange)
	assert.Len(t, cal.Blocks, 1)

	// the failed attempt is recorded for observability
	events := cal.PendingEvents()
	require.NotEmpty(t, events)
	_, ok := events[len(events)-1].(CalendarOverbookingPrevented)
	assert.True(t, ok)
}

func TestReserveAllowsBackToBack(t *testing.T) {
	now := time.Now()
	cal := NewCalendar("lst-1")

	require.NoError(t, cal.Reserve(block(t, "2024-06-10", "2024-06-15"), "bkg-1", now))
	require.NoError(t, cal.Reserve(block(t, "2024-06-15", "2024-06-18"), "bkg-2", now))
	require.NoError(t, cal.Reserve(block(t, "2024-06-05", "2024-06-10"), "bkg-3", now))
	assert.Len(t, cal.Blocks, 3)
}

func TestReleaseFreesRange(t *testing.T) {
	now := time.Now()
	cal := NewCalendar("lst-1")
	dr := block(t, "2024-06-10", "2024-06-15")

	require.NoError(t, cal.Reserve(dr, "bkg-1", now))
	require.NoError(t, cal.Release("bkg-1", now))
	assert.Empty(t, cal.Blocks)
	assert.True(t, cal.CanReserve(dr))

	assert.ErrorIs(t, cal.Release("bkg-1", now), ErrRangeNotFound)
}

func TestHostBlock(t *testing.T) {
	now := time.Now()
	cal := NewCalendar("lst-1")

	require.NoError(t, cal.BlockRange(block(t, "2024-07-01", "2024-07-10"), "maintenance", now))
	assert.ErrorIs(t, cal.Reserve(block(t, "2024-07-05", "2024-07-08"), "bkg-1", now), ErrOverlappingRange)
	assert.Equal(t, ReasonHostBlock, cal.Blocks[0].Reason)
}
