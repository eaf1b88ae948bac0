package timesheet

import "github.com/locvowork/hrms/internal/domain"

// Actor is the capability a caller holds over timesheets. It is resolved once
// per request from the caller's identity and the timesheet owner, then
// handed to every transition.
type Actor interface {
	// ID is the employee acting.
	ID() string
	CanView(ts *domain.Timesheet) bool
	CanEdit(ts *domain.Timesheet) bool
	CanReview(ts *domain.Timesheet) bool
}

// Owner is the employee a timesheet belongs to.
type Owner struct {
	EmployeeID string
}

func (o Owner) ID() string { return o.EmployeeID }

func (o Owner) CanView(ts *domain.Timesheet) bool { return ts.EmployeeID == o.EmployeeID }

func (o Owner) CanEdit(ts *domain.Timesheet) bool { return ts.EmployeeID == o.EmployeeID }

func (o Owner) CanReview(*domain.Timesheet) bool { return false }

// ReportingManager approves or rejects the timesheets of one direct report.
type ReportingManager struct {
	EmployeeID string
	ReportID   string
}

func (m ReportingManager) ID() string { return m.EmployeeID }

func (m ReportingManager) CanView(ts *domain.Timesheet) bool { return ts.EmployeeID == m.ReportID }

func (m ReportingManager) CanEdit(*domain.Timesheet) bool { return false }

func (m ReportingManager) CanReview(ts *domain.Timesheet) bool {
	return ts.EmployeeID == m.ReportID && m.ReportID != m.EmployeeID
}

// HRAdmin may read every timesheet but takes no part in the approval flow.
type HRAdmin struct {
	EmployeeID string
}

func (h HRAdmin) ID() string { return h.EmployeeID }

func (h HRAdmin) CanView(*domain.Timesheet) bool { return true }

func (h HRAdmin) CanEdit(*domain.Timesheet) bool { return false }

func (h HRAdmin) CanReview(*domain.Timesheet) bool { return false }

// SystemAdmin has the same read-only reach as HRAdmin.
type SystemAdmin struct {
	EmployeeID string
}

func (s SystemAdmin) ID() string { return s.EmployeeID }

func (s SystemAdmin) CanView(*domain.Timesheet) bool { return true }

func (s SystemAdmin) CanEdit(*domain.Timesheet) bool { return false }

func (s SystemAdmin) CanReview(*domain.Timesheet) bool { return false }

// Outsider holds no capability at all.
type Outsider struct {
	EmployeeID string
}

func (o Outsider) ID() string { return o.EmployeeID }

func (o Outsider) CanView(*domain.Timesheet) bool { return false }

func (o Outsider) CanEdit(*domain.Timesheet) bool { return false }

func (o Outsider) CanReview(*domain.Timesheet) bool { return false }

// ResolveActor picks the strongest capability caller holds over timesheets
// owned by owner. Ownership wins over everything, then the reporting line,
// then the administrative roles.
func ResolveActor(caller domain.Identity, owner domain.Employee) Actor {
	switch {
	case caller.EmployeeID == owner.ID:
		return Owner{EmployeeID: caller.EmployeeID}
	case owner.ReportingManagerID != nil && *owner.ReportingManagerID == caller.EmployeeID:
		return ReportingManager{EmployeeID: caller.EmployeeID, ReportID: owner.ID}
	case caller.HasRole(domain.RoleHRUser):
		return HRAdmin{EmployeeID: caller.EmployeeID}
	case caller.HasRole(domain.RoleSystemAdmin):
		return SystemAdmin{EmployeeID: caller.EmployeeID}
	}
	return Outsider{EmployeeID: caller.EmployeeID}
}
