// Package report renders timesheet data as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	DetailSheet  = "Details"
)

var dayHeaders = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MonthlyInput is everything needed to render one month.
type MonthlyInput struct {
	Year       int
	Month      time.Month
	Weeks      []domain.WeekSegment
	Employees  map[string]domain.Employee
	Projects   map[string]domain.Project
	Timesheets []domain.Timesheet
}

// Filename is the suggested download name, e.g. timesheets-2025-12.xlsx.
func (in MonthlyInput) Filename() string {
	return fmt.Sprintf("timesheets-%04d-%02d.xlsx", in.Year, int(in.Month))
}

// WriteMonthly renders the workbook into w.
func WriteMonthly(w io.Writer, in MonthlyInput) error {
	f, err := BuildMonthlyWorkbook(in)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// BuildMonthlyWorkbook creates a Summary sheet (one line per employee, one
// column per month-bounded week) and a Details sheet (one line per row).
func BuildMonthlyWorkbook(in MonthlyInput) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	hoursStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("create number style: %w", err)
	}

	sheets := sortTimesheets(in)
	if err := writeSummary(f, in, sheets, headerStyle, hoursStyle); err != nil {
		return nil, err
	}
	if err := writeDetails(f, in, sheets, headerStyle, hoursStyle); err != nil {
		return nil, err
	}
	return f, nil
}

func sortTimesheets(in MonthlyInput) []domain.Timesheet {
	out := append([]domain.Timesheet(nil), in.Timesheets...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := in.Employees[out[i].EmployeeID].EmployeeCode, in.Employees[out[j].EmployeeID].EmployeeCode
		if ci != cj {
			return ci < cj
		}
		return out[i].WeekStart.Before(out[j].WeekStart)
	})
	return out
}

func writeSummary(f *excelize.File, in MonthlyInput, sheets []domain.Timesheet, headerStyle, hoursStyle int) error {
	header := []interface{}{"Employee Code", "Employee", "Department"}
	for i, w := range in.Weeks {
		header = append(header, fmt.Sprintf("Week %d\n%s - %s", i+1, w.Start.Format("02/01"), w.End.Format("02/01")))
	}
	header = append(header, "Total")
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	// employee -> week index -> hours
	type line struct {
		emp   domain.Employee
		weeks []decimal.Decimal
		total decimal.Decimal
	}
	var order []string
	lines := make(map[string]*line)
	for _, ts := range sheets {
		l, ok := lines[ts.EmployeeID]
		if !ok {
			emp := in.Employees[ts.EmployeeID]
			if emp.ID == "" {
				emp.ID = ts.EmployeeID
			}
			l = &line{emp: emp, weeks: make([]decimal.Decimal, len(in.Weeks))}
			lines[ts.EmployeeID] = l
			order = append(order, ts.EmployeeID)
		}
		for i, w := range in.Weeks {
			if w.Start.Equal(ts.WeekStart) {
				l.weeks[i] = l.weeks[i].Add(ts.TotalHours)
			}
		}
		l.total = l.total.Add(ts.TotalHours)
	}

	for r, id := range order {
		l := lines[id]
		row := []interface{}{l.emp.EmployeeCode, l.emp.FullName(), l.emp.Department}
		for _, h := range l.weeks {
			row = append(row, h.InexactFloat64())
		}
		row = append(row, l.total.InexactFloat64())
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(SummarySheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if len(order) > 0 {
		if err := f.SetCellStyle(SummarySheet, "D2", fmt.Sprintf("%s%d", lastCol, len(order)+1), hoursStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "C", 24); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "D", lastCol, 14)
}

func writeDetails(f *excelize.File, in MonthlyInput, sheets []domain.Timesheet, headerStyle, hoursStyle int) error {
	header := []interface{}{"Employee Code", "Employee", "Week Start", "Week End", "Status", "Project", "Task"}
	for _, d := range dayHeaders {
		header = append(header, d)
	}
	header = append(header, "Row Total")
	if err := f.SetSheetRow(DetailSheet, "A1", &header); err != nil {
		return fmt.Errorf("write detail header: %w", err)
	}

	r := 2
	for _, ts := range sheets {
		emp := in.Employees[ts.EmployeeID]
		for _, row := range ts.Rows {
			projectName := row.ProjectID
			if p, ok := in.Projects[row.ProjectID]; ok {
				projectName = p.Name
			}
			line := []interface{}{
				emp.EmployeeCode, emp.FullName(),
				ts.WeekStart.Format("2006-01-02"), ts.WeekEnd.Format("2006-01-02"),
				string(ts.Status), projectName, row.TaskDescription,
			}
			total := decimal.Zero
			for _, h := range row.Hours {
				line = append(line, h.InexactFloat64())
				total = total.Add(h)
			}
			line = append(line, total.InexactFloat64())

			cell, _ := excelize.CoordinatesToCellName(1, r)
			if err := f.SetSheetRow(DetailSheet, cell, &line); err != nil {
				return fmt.Errorf("write detail row: %w", err)
			}
			r++
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(DetailSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if r > 2 {
		if err := f.SetCellStyle(DetailSheet, "H2", fmt.Sprintf("%s%d", lastCol, r-1), hoursStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(DetailSheet, "A", "E", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(DetailSheet, "F", "G", 28); err != nil {
		return err
	}
	return f.AutoFilter(DetailSheet, "A1:"+lastCol+"1", nil)
}
