package appointments

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketByDayGrid(t *testing.T) {
	april := func(d, h int) time.Time { return time.Date(2026, 4, d, h, 0, 0, 0, time.UTC) }
	list := []Appointment{
		apt("1", "Dr. Smith", april(1, 9), StatusConfirmed),
		apt("2", "Dr. Smith", april(1, 15), StatusPending),
		apt("3", "Dr. Johnson", april(18, 0), StatusCompleted),
		apt("4", "Dr. Johnson", april(30, 23), StatusCancelled),
	}
	grid := BucketByDay(list, april(20, 0))

	assert.Equal(t, "2026-04", grid.Month)
	assert.Zero(t, len(grid.Cells)%7)
	assert.Len(t, grid.Cells, 35)
	for i := 0; i < 3; i++ {
		assert.True(t, grid.Cells[i].Padding(), "April 2026 starts on a Wednesday")
	}
	assert.Equal(t, "2026-04-01", grid.Cells[3].Day)
	assert.Equal(t, []string{"1", "2"}, ids(grid.Cells[3].Appointments))
	assert.True(t, grid.Cells[34].Padding())

	var union []string
	for _, c := range grid.Cells {
		union = append(union, ids(c.Appointments)...)
	}
	assert.ElementsMatch(t, ids(list), union)
	assert.Len(t, grid.Days["2026-04-30"], 1)
}

func TestBucketByDayIgnoresOtherMonths(t *testing.T) {
	list := []Appointment{
		apt("mar", "Dr. Smith", time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC), StatusConfirmed),
		apt("may", "Dr. Smith", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), StatusConfirmed),
	}
	grid := BucketByDay(list, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, grid.Days)
}

func TestBucketByDayMonthStartingSunday(t *testing.T) {
	grid := BucketByDay(nil, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, grid.Cells)
	assert.Equal(t, "2026-03-01", grid.Cells[0].Day)
	assert.Len(t, grid.Cells, 35)

	feb := BucketByDay(nil, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, feb.Cells, 28, "February 2026 fills exactly four weeks")
}

func TestBucketByDayUsesCursorLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	// 20:00 UTC on March 31 is already April 1 in Kolkata.
	list := []Appointment{apt("late", "Dr. Smith", time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC), StatusConfirmed)}
	grid := BucketByDay(list, time.Date(2026, 4, 10, 0, 0, 0, 0, kolkata))
	assert.Len(t, grid.Days["2026-04-01"], 1)
}

func TestBucketByWeek(t *testing.T) {
	list := []Appointment{
		apt("sun", "Dr. Smith", time.Date(2026, 3, 29, 8, 0, 0, 0, time.UTC), StatusConfirmed),
		apt("sat", "Dr. Smith", time.Date(2026, 4, 4, 18, 0, 0, 0, time.UTC), StatusConfirmed),
		apt("next", "Dr. Smith", time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), StatusConfirmed),
		apt("before", "Dr. Smith", time.Date(2026, 3, 28, 23, 0, 0, 0, time.UTC), StatusConfirmed),
	}
	week := BucketByWeek(list, time.Date(2026, 4, 1, 13, 0, 0, 0, time.UTC))

	assert.Equal(t, "2026-03-29", week.Start)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "2026-04-04", week.Days[6].Day)
	assert.Equal(t, []string{"sun"}, ids(week.Days[0].Appointments))
	assert.Equal(t, []string{"sat"}, ids(week.Days[6].Appointments))
	assert.Len(t, week.ByDay, 2)
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sunday, WeekStart(time.Date(2026, 3, 15, 22, 10, 0, 0, time.UTC)))
	assert.Equal(t, sunday, WeekStart(time.Date(2026, 3, 21, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
