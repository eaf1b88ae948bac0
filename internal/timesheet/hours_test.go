package timesheet

import (
	"strings"
	"testing"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row builds a row from Sunday..Saturday hour strings; missing days are zero.
func row(project, task string, hours ...string) domain.TimesheetRow {
	r := domain.TimesheetRow{ProjectID: project, TaskDescription: task}
	for i := range r.Hours {
		r.Hours[i] = decimal.Zero
	}
	for i, h := range hours {
		r.Hours[i] = decimal.RequireFromString(h)
	}
	return r
}

func TestDailyTotalsAndTotalHours(t *testing.T) {
	rows := []domain.TimesheetRow{
		row("p1", "build", "0", "4", "4.5", "8", "0", "2.25", "0"),
		row("p2", "review", "0", "3.5", "3.5", "0", "8", "1", "0"),
	}

	totals := DailyTotals(rows)
	assert.Equal(t, "0.00", totals[time.Sunday].StringFixed(2))
	assert.Equal(t, "7.50", totals[time.Monday].StringFixed(2))
	assert.Equal(t, "8.00", totals[time.Tuesday].StringFixed(2))
	assert.Equal(t, "8.00", totals[time.Wednesday].StringFixed(2))
	assert.Equal(t, "3.25", totals[time.Friday].StringFixed(2))

	sumOfDays := decimal.Zero
	for _, d := range totals {
		sumOfDays = sumOfDays.Add(d)
	}
	sumOfRows := RowTotal(rows[0]).Add(RowTotal(rows[1]))

	assert.Equal(t, "34.75", TotalHours(rows).StringFixed(2))
	assert.True(t, TotalHours(rows).Equal(sumOfDays))
	assert.True(t, TotalHours(rows).Equal(sumOfRows))
}

func TestValidateDailyHours(t *testing.T) {
	t.Run("exactly eight passes", func(t *testing.T) {
		rows := []domain.TimesheetRow{
			row("p1", "a", "0", "5"),
			row("p2", "b", "0", "3"),
		}
		assert.NoError(t, ValidateDailyHours(rows))
		assert.Empty(t, OverCeiling(rows))
	})

	t.Run("nine hours on monday names the day and total", func(t *testing.T) {
		rows := []domain.TimesheetRow{
			row("p1", "a", "0", "5"),
			row("p2", "b", "0", "4"),
		}
		err := ValidateDailyHours(rows)
		require.Error(t, err)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "monday", verr.Field)
		assert.Contains(t, verr.Message, "Monday")
		assert.Contains(t, verr.Message, "9.00")
		assert.Equal(t, []time.Weekday{time.Monday}, OverCeiling(rows))
	})

	t.Run("reports the first offending day of the week", func(t *testing.T) {
		rows := []domain.TimesheetRow{
			row("p1", "a", "0", "0", "0", "0", "0", "8.01", "10"),
		}
		var verr *domain.ValidationError
		require.ErrorAs(t, ValidateDailyHours(rows), &verr)
		assert.Equal(t, "friday", verr.Field)
		assert.Contains(t, verr.Message, "8.01")
		assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, OverCeiling(rows))
	})
}

func TestValidateRows(t *testing.T) {
	testCases := map[string]struct {
		rows  []domain.TimesheetRow
		field string
	}{
		"empty row set": {
			rows:  nil,
			field: "rows",
		},
		"missing project": {
			rows:  []domain.TimesheetRow{row("", "task", "1")},
			field: "rows[0].project_id",
		},
		"blank task": {
			rows:  []domain.TimesheetRow{row("p1", "   ", "1")},
			field: "rows[0].task_description",
		},
		"negative hours": {
			rows:  []domain.TimesheetRow{row("p1", "task", "0", "-1")},
			field: "rows[0].monday",
		},
		"three decimal places": {
			rows:  []domain.TimesheetRow{row("p1", "task", "0", "0", "1.125")},
			field: "rows[0].tuesday",
		},
		"cell longer than a day": {
			rows:  []domain.TimesheetRow{row("p1", "task", "24.01")},
			field: "rows[0].sunday",
		},
		"rows adding up to more than a day": {
			rows: []domain.TimesheetRow{
				row("p1", "build", "0", "20"),
				row("p2", "build", "0", "4.5"),
			},
			field: "monday",
		},
		"task longer than the column": {
			rows:  []domain.TimesheetRow{row("p1", strings.Repeat("é", 256), "1")},
			field: "rows[0].task_description",
		},
		"duplicate project and task": {
			rows: []domain.TimesheetRow{
				row("p1", "design", "1"),
				row("p2", "design", "1"),
				row("p1", " design ", "2"),
			},
			field: "rows[2]",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var verr *domain.ValidationError
			require.ErrorAs(t, ValidateRows(tc.rows), &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	t.Run("same task on different projects is fine", func(t *testing.T) {
		rows := []domain.TimesheetRow{
			row("p1", "standup", "0", "0.5"),
			row("p2", "standup", "0", "0.5"),
		}
		assert.NoError(t, ValidateRows(rows))
	})
}

func TestValidateRowsCountsTaskCharacters(t *testing.T) {
	task := strings.Repeat("é", 200)
	require.Greater(t, len(task), 255)
	assert.NoError(t, ValidateRows([]domain.TimesheetRow{row("p1", task, "1")}))
	assert.NoError(t, ValidateRows([]domain.TimesheetRow{row("p1", strings.Repeat("日", 255), "1")}))
}

func TestValidateRowsKeepsWeekTotalStorable(t *testing.T) {
	full := []string{"24", "24", "24", "24", "24", "24", "24"}

	t.Run("two rows booking whole days are rejected", func(t *testing.T) {
		rows := []domain.TimesheetRow{
			row("p1", "build", full...),
			row("p2", "build", full...),
		}
		var verr *domain.ValidationError
		require.ErrorAs(t, ValidateRows(rows), &verr)
		assert.Equal(t, "sunday", verr.Field)
		assert.Contains(t, verr.Message, "48.00")
	})

	t.Run("oversized cells never reach the sum", func(t *testing.T) {
		cells := []string{"99.99", "99.99", "99.99", "99.99", "99.99", "99.99", "99.99"}
		rows := []domain.TimesheetRow{row("p1", "a", cells...), row("p2", "b", cells...)}
		assert.True(t, domain.IsValidation(ValidateRows(rows)))
	})

	t.Run("the largest valid week fits the total column", func(t *testing.T) {
		rows := []domain.TimesheetRow{
			row("p1", "build", "16", "16", "16", "16", "16", "16", "16"),
			row("p2", "review", "8", "8", "8", "8", "8", "8", "8"),
		}
		require.NoError(t, ValidateRows(rows))
		assert.Equal(t, "168.00", TotalHours(rows).StringFixed(2))
		assert.True(t, TotalHours(rows).LessThan(decimal.NewFromInt(1000)), "total_hours is NUMERIC(5,2)")
	})
}
