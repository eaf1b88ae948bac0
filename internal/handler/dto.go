package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/timesheet"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// DayHoursDTO is one quantity per weekday. Values are accepted as JSON
// numbers or strings and written as strings.
type DayHoursDTO struct {
	Sunday    decimal.Decimal `json:"sunday"`
	Monday    decimal.Decimal `json:"monday"`
	Tuesday   decimal.Decimal `json:"tuesday"`
	Wednesday decimal.Decimal `json:"wednesday"`
	Thursday  decimal.Decimal `json:"thursday"`
	Friday    decimal.Decimal `json:"friday"`
	Saturday  decimal.Decimal `json:"saturday"`
}

func (d DayHoursDTO) toDomain() domain.DayHours {
	return domain.DayHours{d.Sunday, d.Monday, d.Tuesday, d.Wednesday, d.Thursday, d.Friday, d.Saturday}
}

func dayHoursDTO(h domain.DayHours) DayHoursDTO {
	return DayHoursDTO{
		Sunday: h[time.Sunday], Monday: h[time.Monday], Tuesday: h[time.Tuesday], Wednesday: h[time.Wednesday],
		Thursday: h[time.Thursday], Friday: h[time.Friday], Saturday: h[time.Saturday],
	}
}

// RowRequest is one timesheet row in a create or update body.
type RowRequest struct {
	ProjectID       string `json:"project_id"`
	TaskDescription string `json:"task_description"`
	DayHoursDTO
}

// CreateTimesheetRequest is the body of POST /timesheets.
type CreateTimesheetRequest struct {
	WeekStart string       `json:"week_start"`
	WeekEnd   string       `json:"week_end"`
	Rows      []RowRequest `json:"rows"`
}

// UpdateTimesheetRequest is the body of PUT /timesheets/:id.
type UpdateTimesheetRequest struct {
	Rows []RowRequest `json:"rows"`
}

// RejectRequest is the body of POST /timesheets/:id/reject.
type RejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

func rowsToDomain(rows []RowRequest) []domain.TimesheetRow {
	out := make([]domain.TimesheetRow, len(rows))
	for i, r := range rows {
		out[i] = domain.TimesheetRow{
			ProjectID:       r.ProjectID,
			TaskDescription: r.TaskDescription,
			Hours:           r.toDomain(),
		}
	}
	return out
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Message: fmt.Sprintf("expected a date as YYYY-MM-DD, got %q", value)}
	}
	return d, nil
}

// RowResponse is a stored row with its total.
type RowResponse struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	TaskDescription string          `json:"task_description"`
	Total           decimal.Decimal `json:"total"`
	DayHoursDTO
}

// TimesheetResponse is a timesheet as returned by the API.
type TimesheetResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	WeekStart       string          `json:"week_start"`
	WeekEnd         string          `json:"week_end"`
	Status          string          `json:"status"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	DailyTotals     DayHoursDTO     `json:"daily_totals"`
	OverCeiling     []string        `json:"over_ceiling,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Rows            []RowResponse   `json:"rows"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func timesheetResponse(ts *domain.Timesheet) TimesheetResponse {
	resp := TimesheetResponse{
		ID:              ts.ID,
		EmployeeID:      ts.EmployeeID,
		WeekStart:       ts.WeekStart.Format(dateLayout),
		WeekEnd:         ts.WeekEnd.Format(dateLayout),
		Status:          string(ts.Status),
		TotalHours:      ts.TotalHours,
		DailyTotals:     dayHoursDTO(timesheet.DailyTotals(ts.Rows)),
		SubmittedAt:     ts.SubmittedAt,
		ApprovedAt:      ts.ApprovedAt,
		ApprovedBy:      ts.ApprovedBy,
		RejectedAt:      ts.RejectedAt,
		RejectionReason: ts.RejectionReason,
		Rows:            make([]RowResponse, len(ts.Rows)),
		CreatedAt:       ts.CreatedAt,
		UpdatedAt:       ts.UpdatedAt,
	}
	for _, day := range timesheet.OverCeiling(ts.Rows) {
		resp.OverCeiling = append(resp.OverCeiling, strings.ToLower(day.String()))
	}
	for i, r := range ts.Rows {
		resp.Rows[i] = RowResponse{
			ID:              r.ID,
			ProjectID:       r.ProjectID,
			TaskDescription: r.TaskDescription,
			Total:           timesheet.RowTotal(r),
			DayHoursDTO:     dayHoursDTO(r.Hours),
		}
	}
	return resp
}

func timesheetResponses(list []domain.Timesheet) []TimesheetResponse {
	out := make([]TimesheetResponse, len(list))
	for i := range list {
		out[i] = timesheetResponse(&list[i])
	}
	return out
}

// WeekResponse is one month-bounded week.
type WeekResponse struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// MonthWeeksResponse is the body of GET /timesheets/weeks.
type MonthWeeksResponse struct {
	Year    int            `json:"year"`
	Month   int            `json:"month"`
	Current int            `json:"current"`
	Weeks   []WeekResponse `json:"weeks"`
}

func monthWeeksResponse(mw *service.MonthWeeks) MonthWeeksResponse {
	resp := MonthWeeksResponse{Year: mw.Year, Month: mw.Month, Current: mw.Current}
	for i, w := range mw.Weeks {
		resp.Weeks = append(resp.Weeks, WeekResponse{
			Index: i,
			Start: w.Start.Format(dateLayout),
			End:   w.End.Format(dateLayout),
			Days:  w.Days(),
		})
	}
	return resp
}
