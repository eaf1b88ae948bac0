package leave

import (
	"sort"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/timesheet"
	"github.com/shopspring/decimal"
)

type calendarDay struct {
	month time.Month
	day   int
	name  string
}

func (c calendarDay) in(year int) domain.Holiday {
	return domain.Holiday{Date: time.Date(year, c.month, c.day, 0, 0, 0, 0, time.UTC), Name: c.name}
}

// fixedHolidays fall on the same date every year.
var fixedHolidays = []calendarDay{
	{time.January, 1, "New Year Day"},
	{time.January, 26, "Republic Day"},
	{time.August, 15, "Independence Day"},
	{time.October, 2, "Gandhi Jayanti"},
	{time.December, 25, "Christmas"},
}

// movableHolidays follow lunar or church calendars and are published per year.
var movableHolidays = map[int][]calendarDay{
	2025: {
		{time.March, 8, "Holi"},
		{time.April, 14, "Ambedkar Jayanti"},
		{time.April, 18, "Good Friday"},
		{time.May, 23, "Buddha Purnima"},
		{time.August, 29, "Janmashtami"},
		{time.September, 16, "Milad-un-Nabi"},
		{time.October, 12, "Dussehra"},
		{time.October, 13, "Diwali"},
		{time.October, 14, "Diwali (Day 2)"},
		{time.October, 29, "Govardhan Puja"},
		{time.November, 1, "Diwali (Day 5)"},
	},
}

// Holidays returns the company holidays of year in date order.
func Holidays(year int) []domain.Holiday {
	out := make([]domain.Holiday, 0, len(fixedHolidays)+len(movableHolidays[year]))
	for _, h := range fixedHolidays {
		out = append(out, h.in(year))
	}
	for _, h := range movableHolidays[year] {
		out = append(out, h.in(year))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// WorkingDays counts the weekdays from start to end inclusive that are not
// company holidays.
func WorkingDays(start, end time.Time) decimal.Decimal {
	start, end = timesheet.DateOf(start), timesheet.DateOf(end)

	off := make(map[time.Time]bool)
	for y := start.Year(); y <= end.Year(); y++ {
		for _, h := range Holidays(y) {
			off[h.Date] = true
		}
	}

	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday || off[d] {
			continue
		}
		n++
	}
	return decimal.NewFromInt(int64(n))
}
