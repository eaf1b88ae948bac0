package timesheet

import (
	"fmt"
	"time"

	"github.com/locvowork/hrms/internal/domain"
)

// PartitionMonth splits a calendar month into month-bounded weeks.
//
// Weeks run Sunday to Saturday but never cross the month boundary, so the
// first week starts on the 1st and the last week ends on the final day of
// the month. A month yields between 4 and 6 segments. month must be in
// January..December; anything else is a programming error and panics.
func PartitionMonth(year int, month time.Month) []domain.WeekSegment {
	if month < time.January || month > time.December {
		panic(fmt.Sprintf("timesheet: month %d out of range", month))
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	weeks := make([]domain.WeekSegment, 0, 6)
	cursor := first

	// Weeks 1-4.
	for i := 0; i < 4 && !cursor.After(last); i++ {
		end := saturdayOrMonthEnd(cursor, last)
		weeks = append(weeks, domain.WeekSegment{Start: cursor, End: end})
		cursor = end.AddDate(0, 0, 1)
	}

	// Week 5 follows the same rule.
	if !cursor.After(last) {
		end := saturdayOrMonthEnd(cursor, last)
		weeks = append(weeks, domain.WeekSegment{Start: cursor, End: end})
		cursor = end.AddDate(0, 0, 1)
	}

	// Week 6 always closes the month.
	if !cursor.After(last) {
		weeks = append(weeks, domain.WeekSegment{Start: cursor, End: last})
	}

	return weeks
}

// saturdayOrMonthEnd returns the first Saturday at or after d, capped at last.
// A Saturday cursor produces a single-day week.
func saturdayOrMonthEnd(d, last time.Time) time.Time {
	end := d.AddDate(0, 0, int(time.Saturday-d.Weekday()))
	if end.After(last) {
		return last
	}
	return end
}

// DateOf truncates t to its calendar date at UTC midnight, keeping the
// year/month/day as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekContaining returns the index of the segment of (year, month) that
// contains date, or -1 when date lies outside that month.
func WeekContaining(year int, month time.Month, date time.Time) int {
	d := DateOf(date)
	for i, w := range PartitionMonth(year, month) {
		if w.Contains(d) {
			return i
		}
	}
	return -1
}

// IsMonthWeek reports whether [start, end] is exactly one of the segments
// produced for start's month.
func IsMonthWeek(start, end time.Time) bool {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return false
	}
	for _, w := range PartitionMonth(s.Year(), s.Month()) {
		if w.Start.Equal(s) && w.End.Equal(e) {
			return true
		}
	}
	return false
}
