package domain

import (
	"context"
	"time"
)

// EmployeeFilter defines criteria for listing employees
type EmployeeFilter struct {
	Department string
	Limit      int
	Offset     int
}

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	ListSubordinates(ctx context.Context, managerID string) ([]Employee, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Project, error)
}

// TimesheetFilter narrows timesheet listings. Zero values mean "any".
type TimesheetFilter struct {
	EmployeeIDs   []string
	Status        TimesheetStatus
	WeekStartFrom *time.Time
	WeekStartTo   *time.Time
	Limit         int
	Offset        int
}

// TimesheetRepository persists timesheets together with their rows. The store
// enforces uniqueness of (employee, week_start) and of
// (timesheet, project, task_description), reporting violations as
// *ConflictError.
type TimesheetRepository interface {
	Create(ctx context.Context, ts *Timesheet) error
	GetByID(ctx context.Context, id string) (*Timesheet, error)
	// GetForUpdate loads the timesheet and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Timesheet, error)
	Update(ctx context.Context, ts *Timesheet) error
	ReplaceRows(ctx context.Context, ts *Timesheet) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter TimesheetFilter) ([]Timesheet, error)
}

// LeaveFilter narrows leave listings. Zero values mean "any".
type LeaveFilter struct {
	EmployeeIDs []string
	Status      LeaveStatus
	Limit       int
	Offset      int
}

// LeaveRepository persists leave requests and balances.
type LeaveRepository interface {
	Create(ctx context.Context, l *Leave) error
	GetByID(ctx context.Context, id string) (*Leave, error)
	GetForUpdate(ctx context.Context, id string) (*Leave, error)
	Update(ctx context.Context, l *Leave) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter LeaveFilter) ([]Leave, error)
	// GetBalance returns ErrNotFound when no balance row exists yet.
	GetBalance(ctx context.Context, employeeID string) (*LeaveBalance, error)
	SaveBalance(ctx context.Context, b *LeaveBalance) error
}

// AuditRepository stores audit entries next to the data they describe.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	ListByEntity(ctx context.Context, entity, entityID string) ([]AuditEntry, error)
}

// Store groups the repositories. WithinTx runs fn against a Store whose
// repositories share one transaction.
type Store interface {
	Employees() EmployeeRepository
	Projects() ProjectRepository
	Timesheets() TimesheetRepository
	Leaves() LeaveRepository
	Audit() AuditRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// AuditSink receives audit entries after the change they describe committed.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// TimesheetIndexer keeps a search index of timesheets.
type TimesheetIndexer interface {
	IndexTimesheet(ctx context.Context, ts Timesheet) error
	DeleteTimesheet(ctx context.Context, id string) error
	SearchTimesheets(ctx context.Context, query string, employeeIDs []string) ([]string, error)
}
