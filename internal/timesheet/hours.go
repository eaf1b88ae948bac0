package timesheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
)

// DailyHourCeiling is the most hours one timesheet may carry for a single day
// across all of its rows.
const DailyHourCeiling = 8

const (
	// hoursPlaces is the number of decimal places kept for hour quantities.
	hoursPlaces = 2
	// HoursInDay bounds a single cell and the sum of one day across all
	// rows, even on drafts. A week therefore never exceeds 168 hours.
	HoursInDay = 24
)

var (
	dailyCeiling = decimal.NewFromInt(DailyHourCeiling)
	dayLimit     = decimal.NewFromInt(HoursInDay)
)

// RowTotal sums the seven day cells of one row.
func RowTotal(row domain.TimesheetRow) decimal.Decimal {
	total := decimal.Zero
	for _, h := range row.Hours {
		total = total.Add(h)
	}
	return total
}

// DailyTotals sums each weekday across all rows.
func DailyTotals(rows []domain.TimesheetRow) domain.DayHours {
	var totals domain.DayHours
	for day := range totals {
		totals[day] = decimal.Zero
	}
	for _, row := range rows {
		for day, h := range row.Hours {
			totals[day] = totals[day].Add(h)
		}
	}
	return totals
}

// TotalHours is the sum of all daily totals.
func TotalHours(rows []domain.TimesheetRow) decimal.Decimal {
	total := decimal.Zero
	for _, h := range DailyTotals(rows) {
		total = total.Add(h)
	}
	return total
}

// Recompute refreshes the derived total of ts from its rows.
func Recompute(ts *domain.Timesheet) {
	ts.TotalHours = TotalHours(ts.Rows)
}

// OverCeiling lists the weekdays whose total exceeds DailyHourCeiling, in
// Sunday..Saturday order.
func OverCeiling(rows []domain.TimesheetRow) []time.Weekday {
	var days []time.Weekday
	totals := DailyTotals(rows)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if totals[day].GreaterThan(dailyCeiling) {
			days = append(days, day)
		}
	}
	return days
}

// ValidateDailyHours fails on the first weekday whose total exceeds the
// ceiling, naming the day and its total.
func ValidateDailyHours(rows []domain.TimesheetRow) error {
	totals := DailyTotals(rows)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if totals[day].GreaterThan(dailyCeiling) {
			return &domain.ValidationError{
				Field:   strings.ToLower(day.String()),
				Message: fmt.Sprintf("%s has %s hours. Maximum allowed is %d hours per day.",
					day, totals[day].StringFixed(hoursPlaces), DailyHourCeiling),
			}
		}
	}
	return nil
}

// checkCell validates a single day quantity.
func checkCell(field string, h decimal.Decimal) error {
	switch {
	case h.IsNegative():
		return &domain.ValidationError{Field: field, Message: "hours cannot be negative"}
	case !h.Equal(h.Round(hoursPlaces)):
		return &domain.ValidationError{Field: field, Message: "hours allow at most two decimal places"}
	case h.GreaterThan(dayLimit):
		return &domain.ValidationError{Field: field, Message: fmt.Sprintf("hours cannot exceed %d", HoursInDay)}
	}
	return nil
}

// checkDayLengths fails when the rows together book more hours on one day
// than the day has.
func checkDayLengths(rows []domain.TimesheetRow) error {
	totals := DailyTotals(rows)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if totals[day].GreaterThan(dayLimit) {
			return &domain.ValidationError{
				Field:   strings.ToLower(day.String()),
				Message: fmt.Sprintf("%s has %s hours across all rows, a day has only %d",
					day, totals[day].StringFixed(hoursPlaces), HoursInDay),
			}
		}
	}
	return nil
}
