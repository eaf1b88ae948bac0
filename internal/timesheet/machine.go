package timesheet

import (
	"strings"
	"time"

	"github.com/locvowork/hrms/internal/domain"
)

// Action names used in errors and audit records.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
	ActionView    = "view"
)

// Feedback is returned by row mutations. Saves are not blocked by the daily
// ceiling; OverCeiling tells the caller which days would fail on submit.
type Feedback struct {
	DailyTotals domain.DayHours
	OverCeiling []time.Weekday
}

func feedbackFor(rows []domain.TimesheetRow) Feedback {
	return Feedback{DailyTotals: DailyTotals(rows), OverCeiling: OverCeiling(rows)}
}

// Machine drives the timesheet lifecycle:
//
//	draft --submit--> submitted --approve--> approved
//	                            --reject---> rejected --edit/submit--> submitted
//
// It works on an already loaded timesheet and never touches storage.
type Machine struct {
	now func() time.Time
}

// NewMachine creates a Machine stamping transitions with now. A nil now uses
// the wall clock in UTC.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Machine{now: now}
}

// Create builds a draft timesheet for employeeID over week. The week must be
// one of the segments PartitionMonth yields for its month.
func (m *Machine) Create(employeeID string, week domain.WeekSegment, rows []domain.TimesheetRow) (*domain.Timesheet, Feedback, error) {
	start, end := DateOf(week.Start), DateOf(week.End)
	if end.Before(start) {
		return nil, Feedback{}, &domain.ValidationError{Field: "week_end", Message: "week_end is before week_start"}
	}
	if !IsMonthWeek(start, end) {
		return nil, Feedback{}, &domain.ValidationError{
			Field:   "week_start",
			Message: "week must be a month-bounded week (" + start.Format("2006-01-02") + " to " + end.Format("2006-01-02") + " is not)",
		}
	}
	if err := ValidateRows(rows); err != nil {
		return nil, Feedback{}, err
	}

	now := m.now()
	ts := &domain.Timesheet{
		EmployeeID: employeeID,
		WeekStart:  start,
		WeekEnd:    end,
		Status:     domain.TimesheetDraft,
		Rows:       stampRows(normalizeRows(rows), now),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	Recompute(ts)
	return ts, feedbackFor(ts.Rows), nil
}

// ReplaceRows swaps the whole row set of ts. Only the owner may do it, and
// only while the timesheet is draft or rejected.
func (m *Machine) ReplaceRows(ts *domain.Timesheet, actor Actor, rows []domain.TimesheetRow) (Feedback, error) {
	if !actor.CanEdit(ts) {
		return Feedback{}, &domain.AuthorizationError{Action: ActionUpdate, Reason: "only the owner may edit a timesheet"}
	}
	if !ts.Status.Editable() {
		return Feedback{}, stateError(ActionUpdate, ts)
	}
	if err := ValidateRows(rows); err != nil {
		return Feedback{}, err
	}

	now := m.now()
	ts.Rows = stampRows(normalizeRows(rows), now)
	ts.UpdatedAt = now
	Recompute(ts)
	return feedbackFor(ts.Rows), nil
}

// Submit moves a draft or rejected timesheet to submitted once every day is
// within the ceiling. A previous rejection reason is kept as history.
func (m *Machine) Submit(ts *domain.Timesheet, actor Actor) error {
	if !actor.CanEdit(ts) {
		return &domain.AuthorizationError{Action: ActionSubmit, Reason: "only the owner may submit a timesheet"}
	}
	if !ts.Status.Editable() {
		return stateError(ActionSubmit, ts)
	}
	if len(ts.Rows) == 0 {
		return &domain.ValidationError{Field: "rows", Message: "cannot submit a timesheet without rows"}
	}
	if err := ValidateDailyHours(ts.Rows); err != nil {
		return err
	}

	now := m.now()
	Recompute(ts)
	ts.Status = domain.TimesheetSubmitted
	ts.SubmittedAt = &now
	ts.UpdatedAt = now
	return nil
}

// Approve finalises a submitted timesheet. Approved timesheets are immutable.
func (m *Machine) Approve(ts *domain.Timesheet, actor Actor) error {
	if !actor.CanReview(ts) {
		return &domain.AuthorizationError{Action: ActionApprove, Reason: "only the reporting manager may approve"}
	}
	if ts.Status != domain.TimesheetSubmitted {
		return stateError(ActionApprove, ts)
	}

	now := m.now()
	approver := actor.ID()
	ts.Status = domain.TimesheetApproved
	ts.ApprovedAt = &now
	ts.ApprovedBy = &approver
	ts.UpdatedAt = now
	return nil
}

// Reject sends a submitted timesheet back to its owner with a reason.
func (m *Machine) Reject(ts *domain.Timesheet, actor Actor, reason string) error {
	if !actor.CanReview(ts) {
		return &domain.AuthorizationError{Action: ActionReject, Reason: "only the reporting manager may reject"}
	}
	if ts.Status != domain.TimesheetSubmitted {
		return stateError(ActionReject, ts)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return &domain.ValidationError{Field: "rejection_reason", Message: "rejection reason is required"}
	}

	now := m.now()
	ts.Status = domain.TimesheetRejected
	ts.RejectionReason = reason
	ts.RejectedAt = &now
	ts.UpdatedAt = now
	return nil
}

// CheckDelete allows the owner to discard a timesheet that was never
// approved or handed to a reviewer.
func (m *Machine) CheckDelete(ts *domain.Timesheet, actor Actor) error {
	if !actor.CanEdit(ts) {
		return &domain.AuthorizationError{Action: ActionDelete, Reason: "only the owner may delete a timesheet"}
	}
	if !ts.Status.Editable() {
		return stateError(ActionDelete, ts)
	}
	return nil
}

// CheckView fails unless actor may read ts.
func (m *Machine) CheckView(ts *domain.Timesheet, actor Actor) error {
	if !actor.CanView(ts) {
		return &domain.AuthorizationError{Action: ActionView}
	}
	return nil
}

func stateError(action string, ts *domain.Timesheet) error {
	return &domain.StateError{Action: action, Entity: "timesheet", Current: string(ts.Status)}
}

func stampRows(rows []domain.TimesheetRow, now time.Time) []domain.TimesheetRow {
	for i := range rows {
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		rows[i].UpdatedAt = now
	}
	return rows
}
