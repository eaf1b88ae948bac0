package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func day(d int) time.Time {
	return time.Date(2025, time.December, d, 0, 0, 0, 0, time.UTC)
}

func hours(vals ...string) domain.DayHours {
	var h domain.DayHours
	for i := range h {
		h[i] = decimal.Zero
	}
	for i, v := range vals {
		h[i] = decimal.RequireFromString(v)
	}
	return h
}

func sampleInput() MonthlyInput {
	weeks := []domain.WeekSegment{
		{Start: day(1), End: day(6)},
		{Start: day(7), End: day(13)},
	}
	return MonthlyInput{
		Year:  2025,
		Month: time.December,
		Weeks: weeks,
		Employees: map[string]domain.Employee{
			"e2": {ID: "e2", EmployeeCode: "EMP002", FirstName: "Bob", LastName: "Tran", Department: "Ops"},
			"e1": {ID: "e1", EmployeeCode: "EMP001", FirstName: "Alice", LastName: "Nguyen", Department: "Eng"},
		},
		Projects: map[string]domain.Project{"p1": {ID: "p1", Name: "Atlas"}},
		Timesheets: []domain.Timesheet{
			{
				ID: "t3", EmployeeID: "e2", WeekStart: day(1), WeekEnd: day(6), Status: domain.TimesheetDraft,
				TotalHours: decimal.RequireFromString("4"),
				Rows:       []domain.TimesheetRow{{ProjectID: "p1", TaskDescription: "on-call", Hours: hours("0", "4")}},
			},
			{
				ID: "t2", EmployeeID: "e1", WeekStart: day(7), WeekEnd: day(13), Status: domain.TimesheetApproved,
				TotalHours: decimal.RequireFromString("7.5"),
				Rows:       []domain.TimesheetRow{{ProjectID: "p1", TaskDescription: "review", Hours: hours("0", "7.5")}},
			},
			{
				ID: "t1", EmployeeID: "e1", WeekStart: day(1), WeekEnd: day(6), Status: domain.TimesheetSubmitted,
				TotalHours: decimal.RequireFromString("16.25"),
				Rows: []domain.TimesheetRow{
					{ProjectID: "p1", TaskDescription: "build", Hours: hours("0", "8", "8")},
					{ProjectID: "gone", TaskDescription: "misc", Hours: hours("0.25")},
				},
			},
		},
	}
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestBuildMonthlyWorkbook(t *testing.T) {
	f, err := BuildMonthlyWorkbook(sampleInput())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, DetailSheet}, f.GetSheetList())

	t.Run("summary has one line per employee ordered by code", func(t *testing.T) {
		assert.Equal(t, "Employee Code", raw(t, f, SummarySheet, "A1"))
		assert.Equal(t, "Week 1\n01/12 - 06/12", raw(t, f, SummarySheet, "D1"))
		assert.Equal(t, "Total", raw(t, f, SummarySheet, "F1"))

		assert.Equal(t, "EMP001", raw(t, f, SummarySheet, "A2"))
		assert.Equal(t, "Alice Nguyen", raw(t, f, SummarySheet, "B2"))
		assert.Equal(t, "16.25", raw(t, f, SummarySheet, "D2"))
		assert.Equal(t, "7.5", raw(t, f, SummarySheet, "E2"))
		assert.Equal(t, "23.75", raw(t, f, SummarySheet, "F2"))

		assert.Equal(t, "EMP002", raw(t, f, SummarySheet, "A3"))
		assert.Equal(t, "0", raw(t, f, SummarySheet, "E3"))
	})

	t.Run("details list every row with its total", func(t *testing.T) {
		rows, err := f.GetRows(DetailSheet)
		require.NoError(t, err)
		require.Len(t, rows, 5)

		assert.Equal(t, "Row Total", rows[0][14])
		assert.Equal(t, "Atlas", rows[1][5])
		assert.Equal(t, "build", rows[1][6])
		assert.Equal(t, "gone", rows[2][5], "unknown projects fall back to their id")
		assert.Equal(t, "16", raw(t, f, DetailSheet, "O2"))
		assert.Equal(t, "on-call", rows[4][6])
	})
}

func TestWriteMonthly(t *testing.T) {
	var buf bytes.Buffer
	in := sampleInput()
	require.NoError(t, WriteMonthly(&buf, in))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "EMP001", raw(t, f, SummarySheet, "A2"))
	assert.Equal(t, "timesheets-2025-12.xlsx", in.Filename())
}

func TestBuildMonthlyWorkbookEmpty(t *testing.T) {
	in := sampleInput()
	in.Timesheets = nil
	f, err := BuildMonthlyWorkbook(in)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
