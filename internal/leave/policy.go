package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/timesheet"
	"github.com/shopspring/decimal"
)

// Action names used in errors and audit records.
const (
	ActionApply   = "apply"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
	ActionView    = "view"
)

// MaxSpanDays bounds the calendar days one request may cover.
const MaxSpanDays = 365

// Opening balance granted the first time an employee's balance is read.
var (
	defaultPaid   = decimal.NewFromInt(5)
	defaultSick   = decimal.NewFromInt(5)
	defaultCasual = decimal.NewFromInt(5)
)

// Access is what a caller may do with one employee's leaves. Leaves follow
// the reporting line used for timesheets.
type Access struct {
	ActorID string
	View    bool
	Edit    bool
	Review  bool
}

// ResolveAccess derives the caller's rights over leaves owned by owner.
func ResolveAccess(caller domain.Identity, owner domain.Employee) Access {
	actor := timesheet.ResolveActor(caller, owner)
	owned := &domain.Timesheet{EmployeeID: owner.ID}
	return Access{
		ActorID: actor.ID(),
		View:    actor.CanView(owned),
		Edit:    actor.CanEdit(owned),
		Review:  actor.CanReview(owned),
	}
}

// ApplyInput is a new leave request.
type ApplyInput struct {
	LeaveType string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Policy drives the leave lifecycle:
//
//	pending --approve--> approved
//	        --reject---> rejected
//
// Like timesheet.Machine it works on loaded values and never touches storage.
type Policy struct {
	now func() time.Time
}

// NewPolicy creates a Policy. A nil now uses the wall clock in UTC.
func NewPolicy(now func() time.Time) *Policy {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Policy{now: now}
}

// Apply builds a pending leave for employeeID.
func (p *Policy) Apply(employeeID string, in ApplyInput) (*domain.Leave, error) {
	lt := domain.LeaveType(strings.TrimSpace(in.LeaveType))
	if !lt.Valid() {
		return nil, &domain.ValidationError{Field: "leave_type", Message: fmt.Sprintf("unknown leave type %q", in.LeaveType)}
	}
	start, end := timesheet.DateOf(in.StartDate), timesheet.DateOf(in.EndDate)
	if end.Before(start) {
		return nil, &domain.ValidationError{Field: "end_date", Message: "end_date is before start_date"}
	}
	if end.Sub(start) >= MaxSpanDays*24*time.Hour {
		return nil, &domain.ValidationError{Field: "end_date", Message: fmt.Sprintf("a leave may span at most %d days", MaxSpanDays)}
	}
	days := WorkingDays(start, end)
	if days.IsZero() {
		return nil, &domain.ValidationError{Field: "start_date", Message: "leave covers no working days"}
	}

	now := p.now()
	return &domain.Leave{
		EmployeeID:   employeeID,
		LeaveType:    lt,
		StartDate:    start,
		EndDate:      end,
		NumberOfDays: days,
		Reason:       strings.TrimSpace(in.Reason),
		Status:       domain.LeavePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Approve grants a pending leave and debits balance. The reporting manager
// of the owner is the only reviewer.
func (p *Policy) Approve(l *domain.Leave, access Access, balance *domain.LeaveBalance) error {
	if !access.Review {
		return &domain.AuthorizationError{Action: ActionApprove, Reason: "only the reporting manager may approve a leave"}
	}
	if l.Status != domain.LeavePending {
		return stateError(ActionApprove, l)
	}
	if days := balance.Days(l.LeaveType); days != nil {
		if days.LessThan(l.NumberOfDays) {
			return &domain.ValidationError{
				Field:   "number_of_days",
				Message: fmt.Sprintf("insufficient %s balance: %s days left, %s requested",
					l.LeaveType, days.StringFixed(1), l.NumberOfDays.StringFixed(1)),
			}
		}
		*days = days.Sub(l.NumberOfDays)
	}

	now := p.now()
	approver := access.ActorID
	l.Status = domain.LeaveApproved
	l.ApprovedBy = &approver
	l.ApprovedAt = &now
	l.UpdatedAt = now
	balance.UpdatedAt = now
	return nil
}

// Reject declines a pending leave. The reason is optional.
func (p *Policy) Reject(l *domain.Leave, access Access, reason string) error {
	if !access.Review {
		return &domain.AuthorizationError{Action: ActionReject, Reason: "only the reporting manager may reject a leave"}
	}
	if l.Status != domain.LeavePending {
		return stateError(ActionReject, l)
	}

	now := p.now()
	l.Status = domain.LeaveRejected
	l.RejectionReason = strings.TrimSpace(reason)
	l.RejectedAt = &now
	l.UpdatedAt = now
	return nil
}

// CheckDelete allows the owner to withdraw a leave that has not started yet.
func (p *Policy) CheckDelete(l *domain.Leave, access Access) error {
	if !access.Edit {
		return &domain.AuthorizationError{Action: ActionDelete, Reason: "only the owner may delete a leave"}
	}
	if !l.StartDate.After(timesheet.DateOf(p.now())) {
		return &domain.ValidationError{Field: "start_date", Message: "cannot delete leaves that have already started or are in the past"}
	}
	return nil
}

// Refund credits the days of a withdrawn approved leave back to balance.
func (p *Policy) Refund(l *domain.Leave, balance *domain.LeaveBalance) {
	if l.Status != domain.LeaveApproved {
		return
	}
	if days := balance.Days(l.LeaveType); days != nil {
		*days = days.Add(l.NumberOfDays)
		balance.UpdatedAt = p.now()
	}
}

// CheckView fails unless access allows reading.
func (p *Policy) CheckView(access Access) error {
	if !access.View {
		return &domain.AuthorizationError{Action: ActionView}
	}
	return nil
}

// DefaultBalance is the opening balance of an employee.
func (p *Policy) DefaultBalance(employeeID string) *domain.LeaveBalance {
	return &domain.LeaveBalance{
		EmployeeID:  employeeID,
		PaidLeave:   defaultPaid,
		SickLeave:   defaultSick,
		CasualLeave: defaultCasual,
		EarnedLeave: decimal.Zero,
		UpdatedAt:   p.now(),
	}
}

// Overlaps reports whether l shares a day with other. Rejected leaves never
// overlap anything.
func Overlaps(l, other domain.Leave) bool {
	if l.Status == domain.LeaveRejected || other.Status == domain.LeaveRejected {
		return false
	}
	return !l.StartDate.After(other.EndDate) && !other.StartDate.After(l.EndDate)
}

func stateError(action string, l *domain.Leave) error {
	return &domain.StateError{Action: action, Entity: "leave", Current: string(l.Status)}
}
