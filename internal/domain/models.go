package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== PEOPLE ====================

// Role is a named permission bundle granted to an employee.
type Role string

const (
	RoleEmployee         Role = "employee"
	RoleReportingManager Role = "reporting_manager"
	RoleProjectLead      Role = "project_lead"
	RoleProjectManager   Role = "project_manager"
	RoleHRUser           Role = "hr_user"
	RoleFinanceUser      Role = "finance_user"
	RoleSystemAdmin      Role = "system_admin"
)

// ValidRoles is the canonical set of accepted role strings.
var ValidRoles = map[Role]bool{
	RoleEmployee: true, RoleReportingManager: true, RoleProjectLead: true,
	RoleProjectManager: true, RoleHRUser: true, RoleFinanceUser: true, RoleSystemAdmin: true,
}

// Employee represents the employees table
type Employee struct {
	ID                 string    `json:"id" db:"id"`
	EmployeeCode       string    `json:"employee_code" db:"employee_code"`
	FirstName          string    `json:"first_name" db:"first_name"`
	LastName           string    `json:"last_name" db:"last_name"`
	Email              string    `json:"email" db:"email"`
	Department         string    `json:"department" db:"department"`
	JobRole            string    `json:"job_role" db:"job_role"`
	EmploymentType     string    `json:"employment_type" db:"employment_type"`
	DateOfJoining      time.Time `json:"date_of_joining" db:"date_of_joining"`
	ReportingManagerID *string   `json:"reporting_manager_id,omitempty" db:"reporting_manager_id"`
	Roles              []Role    `json:"roles" db:"roles"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// HasRole reports whether the employee holds r.
func (e Employee) HasRole(r Role) bool {
	for _, role := range e.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// Identity is the resolved caller of a request: who they are, what roles
// they hold, and who they report to.
type Identity struct {
	EmployeeID         string
	Roles              []Role
	ReportingManagerID *string
}

// HasRole reports whether the caller holds r.
func (i Identity) HasRole(r Role) bool {
	for _, role := range i.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// ==================== PROJECTS ====================

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// Project represents the projects table
type Project struct {
	ID          string        `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Client      string        `json:"client" db:"client"`
	BillingType string        `json:"billing_type" db:"billing_type"`
	Status      ProjectStatus `json:"status" db:"status"`
	StartDate   time.Time     `json:"start_date" db:"start_date"`
	EndDate     *time.Time    `json:"end_date,omitempty" db:"end_date"`
	Description string        `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// ==================== TIMESHEETS ====================

type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetApproved  TimesheetStatus = "approved"
	TimesheetRejected  TimesheetStatus = "rejected"
)

// Editable reports whether rows may still be changed in this state.
func (s TimesheetStatus) Editable() bool {
	return s == TimesheetDraft || s == TimesheetRejected
}

// Valid reports whether s is a known status.
func (s TimesheetStatus) Valid() bool {
	switch s {
	case TimesheetDraft, TimesheetSubmitted, TimesheetApproved, TimesheetRejected:
		return true
	}
	return false
}

// WeekSegment is one month-bounded week. Start and End are dates at UTC
// midnight and both are inclusive.
type WeekSegment struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days in the segment.
func (w WeekSegment) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether the date falls inside the segment.
func (w WeekSegment) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// DayHours holds one quantity per weekday, indexed by time.Weekday
// (Sunday = 0 ... Saturday = 6).
type DayHours [7]decimal.Decimal

// TimesheetRow is one project/task line of a timesheet.
type TimesheetRow struct {
	ID              string    `json:"id" db:"id"`
	TimesheetID     string    `json:"timesheet_id" db:"timesheet_id"`
	ProjectID       string    `json:"project_id" db:"project_id"`
	TaskDescription string    `json:"task_description" db:"task_description"`
	Hours           DayHours  `json:"hours"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Timesheet represents one employee's hours for one month-bounded week.
type Timesheet struct {
	ID              string          `json:"id" db:"id"`
	EmployeeID      string          `json:"employee_id" db:"employee_id"`
	WeekStart       time.Time       `json:"week_start" db:"week_start"`
	WeekEnd         time.Time       `json:"week_end" db:"week_end"`
	Status          TimesheetStatus `json:"status" db:"status"`
	TotalHours      decimal.Decimal `json:"total_hours" db:"total_hours"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy      *string         `json:"approved_by,omitempty" db:"approved_by"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason string          `json:"rejection_reason" db:"rejection_reason"`
	Rows            []TimesheetRow  `json:"rows"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Week returns the segment the timesheet was created against.
func (t Timesheet) Week() WeekSegment {
	return WeekSegment{Start: t.WeekStart, End: t.WeekEnd}
}

// ==================== AUDIT ====================

// AuditEntry records who did what to which entity.
type AuditEntry struct {
	ID        string                 `json:"id" db:"id"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	Action    string                 `json:"action" db:"action"`
	Entity    string                 `json:"entity" db:"entity"`
	EntityID  string                 `json:"entity_id" db:"entity_id"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	IPAddress string                 `json:"ip_address" db:"ip_address"`
	UserAgent string                 `json:"user_agent" db:"user_agent"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}

// ==================== LEAVES ====================

type LeaveType string

const (
	LeavePaid   LeaveType = "paid_leave"
	LeaveSick   LeaveType = "sick_leave"
	LeaveCasual LeaveType = "casual_leave"
	LeaveEarned LeaveType = "earned_leave"
	LeaveUnpaid LeaveType = "unpaid_leave"
)

// Valid reports whether t is a known leave type.
func (t LeaveType) Valid() bool {
	switch t {
	case LeavePaid, LeaveSick, LeaveCasual, LeaveEarned, LeaveUnpaid:
		return true
	}
	return false
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	}
	return false
}

// Leave is one absence request. StartDate and EndDate are inclusive dates at
// UTC midnight; NumberOfDays counts the working days between them.
type Leave struct {
	ID              string          `json:"id" db:"id"`
	EmployeeID      string          `json:"employee_id" db:"employee_id"`
	LeaveType       LeaveType       `json:"leave_type" db:"leave_type"`
	StartDate       time.Time       `json:"start_date" db:"start_date"`
	EndDate         time.Time       `json:"end_date" db:"end_date"`
	NumberOfDays    decimal.Decimal `json:"number_of_days" db:"number_of_days"`
	Reason          string          `json:"reason" db:"reason"`
	Status          LeaveStatus     `json:"status" db:"status"`
	ApprovedBy      *string         `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason string          `json:"rejection_reason" db:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// LeaveBalance is the number of days an employee may still take per type.
// Unpaid leave is not tracked.
type LeaveBalance struct {
	EmployeeID  string          `json:"employee_id" db:"employee_id"`
	PaidLeave   decimal.Decimal `json:"paid_leave" db:"paid_leave"`
	SickLeave   decimal.Decimal `json:"sick_leave" db:"sick_leave"`
	CasualLeave decimal.Decimal `json:"casual_leave" db:"casual_leave"`
	EarnedLeave decimal.Decimal `json:"earned_leave" db:"earned_leave"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Days returns a pointer to the counter for t, or nil when t is untracked.
func (b *LeaveBalance) Days(t LeaveType) *decimal.Decimal {
	switch t {
	case LeavePaid:
		return &b.PaidLeave
	case LeaveSick:
		return &b.SickLeave
	case LeaveCasual:
		return &b.CasualLeave
	case LeaveEarned:
		return &b.EarnedLeave
	}
	return nil
}

// Holiday is a public holiday on the company calendar.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}
