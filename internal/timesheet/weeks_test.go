package timesheet

import (
	"testing"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seg(y int, m time.Month, from, to int) domain.WeekSegment {
	return domain.WeekSegment{Start: date(y, m, from), End: date(y, m, to)}
}

func TestPartitionMonth_KnownMonths(t *testing.T) {
	testCases := map[string]struct {
		year  int
		month time.Month
		want  []domain.WeekSegment
	}{
		"december 2025 starts on monday": {
			year: 2025, month: time.December,
			want: []domain.WeekSegment{
				seg(2025, time.December, 1, 6),
				seg(2025, time.December, 7, 13),
				seg(2025, time.December, 14, 20),
				seg(2025, time.December, 21, 27),
				seg(2025, time.December, 28, 31),
			},
		},
		"november 2025 starts on saturday and needs six weeks": {
			year: 2025, month: time.November,
			want: []domain.WeekSegment{
				seg(2025, time.November, 1, 1),
				seg(2025, time.November, 2, 8),
				seg(2025, time.November, 9, 15),
				seg(2025, time.November, 16, 22),
				seg(2025, time.November, 23, 29),
				seg(2025, time.November, 30, 30),
			},
		},
		"february 2015 is exactly four full weeks": {
			year: 2015, month: time.February,
			want: []domain.WeekSegment{
				seg(2015, time.February, 1, 7),
				seg(2015, time.February, 8, 14),
				seg(2015, time.February, 15, 21),
				seg(2015, time.February, 22, 28),
			},
		},
		"leap february 2024": {
			year: 2024, month: time.February,
			want: []domain.WeekSegment{
				seg(2024, time.February, 1, 3),
				seg(2024, time.February, 4, 10),
				seg(2024, time.February, 11, 17),
				seg(2024, time.February, 18, 24),
				seg(2024, time.February, 25, 29),
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := PartitionMonth(tc.year, tc.month)
			require.Len(t, got, len(tc.want))
			for i := range tc.want {
				assert.True(t, tc.want[i].Start.Equal(got[i].Start), "week %d start: want %s got %s", i+1, tc.want[i].Start, got[i].Start)
				assert.True(t, tc.want[i].End.Equal(got[i].End), "week %d end: want %s got %s", i+1, tc.want[i].End, got[i].End)
			}
		})
	}
}

func TestPartitionMonth_Invariants(t *testing.T) {
	for year := 1990; year <= 2040; year++ {
		for month := time.January; month <= time.December; month++ {
			weeks := PartitionMonth(year, month)
			first := date(year, month, 1)
			last := first.AddDate(0, 1, -1)

			require.GreaterOrEqual(t, len(weeks), 4, "%d-%02d", year, month)
			require.LessOrEqual(t, len(weeks), 6, "%d-%02d", year, month)
			assert.True(t, weeks[0].Start.Equal(first), "%d-%02d first start", year, month)
			assert.True(t, weeks[len(weeks)-1].End.Equal(last), "%d-%02d last end", year, month)

			covered := 0
			for i, w := range weeks {
				assert.False(t, w.End.Before(w.Start), "%d-%02d week %d inverted", year, month, i+1)
				covered += w.Days()
				if i > 0 {
					assert.Equal(t, time.Sunday, w.Start.Weekday(), "%d-%02d week %d start", year, month, i+1)
					assert.True(t, weeks[i-1].End.AddDate(0, 0, 1).Equal(w.Start), "%d-%02d gap before week %d", year, month, i+1)
				}
				if i < len(weeks)-1 {
					assert.Equal(t, time.Saturday, w.End.Weekday(), "%d-%02d week %d end", year, month, i+1)
				}
			}
			assert.Equal(t, last.Day(), covered, "%d-%02d days covered", year, month)
		}
	}
}

func TestPartitionMonth_IsDeterministic(t *testing.T) {
	assert.Equal(t, PartitionMonth(2025, time.March), PartitionMonth(2025, time.March))
}

func TestPartitionMonth_PanicsOnInvalidMonth(t *testing.T) {
	assert.Panics(t, func() { PartitionMonth(2025, 0) })
	assert.Panics(t, func() { PartitionMonth(2025, 13) })
}

func TestWeekContaining(t *testing.T) {
	assert.Equal(t, 0, WeekContaining(2025, time.November, date(2025, time.November, 1)))
	assert.Equal(t, 1, WeekContaining(2025, time.November, date(2025, time.November, 8)))
	assert.Equal(t, 5, WeekContaining(2025, time.November, time.Date(2025, time.November, 30, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, -1, WeekContaining(2025, time.November, date(2025, time.December, 1)))
}

func TestIsMonthWeek(t *testing.T) {
	assert.True(t, IsMonthWeek(date(2025, time.December, 1), date(2025, time.December, 6)))
	assert.True(t, IsMonthWeek(date(2025, time.December, 28), date(2025, time.December, 31)))
	assert.True(t, IsMonthWeek(date(2025, time.November, 30), date(2025, time.November, 30)))

	assert.False(t, IsMonthWeek(date(2025, time.December, 1), date(2025, time.December, 7)))
	assert.False(t, IsMonthWeek(date(2025, time.November, 30), date(2025, time.December, 6)))
	assert.False(t, IsMonthWeek(date(2025, time.December, 6), date(2025, time.December, 1)))
}
