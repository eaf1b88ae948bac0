package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var employeeCounter atomic.Int64

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Employee options
type EmployeeOption func(*domain.Employee)

func WithManager(id string) EmployeeOption {
	return func(e *domain.Employee) {
		e.ReportingManagerID = &id
	}
}

func WithRoles(roles ...domain.Role) EmployeeOption {
	return func(e *domain.Employee) {
		e.Roles = roles
	}
}

func WithDepartment(d string) EmployeeOption {
	return func(e *domain.Employee) {
		e.Department = d
	}
}

func WithID(id string) EmployeeOption {
	return func(e *domain.Employee) {
		e.ID = id
	}
}

func NewTestEmployee(firstName string, opts ...EmployeeOption) *domain.Employee {
	n := employeeCounter.Add(1)
	e := &domain.Employee{
		ID:             uuid.New().String(),
		EmployeeCode:   fmt.Sprintf("EMP%04d", n),
		FirstName:      firstName,
		LastName:       "Tester",
		Email:          fmt.Sprintf("%s.%d@example.com", firstName, n),
		Department:     "Engineering",
		JobRole:        "Engineer",
		EmploymentType: "full_time",
		DateOfJoining:  time.Date(2023, time.January, 9, 0, 0, 0, 0, time.UTC),
		Roles:          []domain.Role{domain.RoleEmployee},
		IsActive:       true,
		CreatedAt:      time.Date(2023, time.January, 9, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2023, time.January, 9, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewTestProject(name string) *domain.Project {
	return &domain.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Client:      "Acme",
		BillingType: "billable",
		Status:      domain.ProjectActive,
		StartDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Row builds a timesheet row. hours are given Sunday first; missing days are zero.
func Row(projectID, task string, hours ...string) domain.TimesheetRow {
	r := domain.TimesheetRow{ProjectID: projectID, TaskDescription: task}
	for i := range r.Hours {
		r.Hours[i] = decimal.Zero
	}
	for i, h := range hours {
		r.Hours[i] = decimal.RequireFromString(h)
	}
	return r
}

// Org is a small reporting line: a manager with two reports, an HR user
// and one project.
type Org struct {
	Manager *domain.Employee
	Alice   *domain.Employee
	Bob     *domain.Employee
	HR      *domain.Employee
	Project *domain.Project
	Support *domain.Project
}

// SeedOrg stores an Org in s.
func SeedOrg(t *testing.T, s domain.Store) Org {
	t.Helper()
	ctx := context.Background()

	mgr := NewTestEmployee("Maya", WithRoles(domain.RoleEmployee, domain.RoleReportingManager))
	org := Org{
		Manager: mgr,
		Alice:   NewTestEmployee("Alice", WithManager(mgr.ID)),
		Bob:     NewTestEmployee("Bob", WithManager(mgr.ID)),
		HR:      NewTestEmployee("Hana", WithRoles(domain.RoleEmployee, domain.RoleHRUser), WithDepartment("People")),
		Project: NewTestProject("Atlas"),
		Support: NewTestProject("Support"),
	}
	for _, e := range []*domain.Employee{org.Manager, org.Alice, org.Bob, org.HR} {
		require.NoError(t, s.Employees().Create(ctx, e))
	}
	require.NoError(t, s.Projects().Create(ctx, org.Project))
	require.NoError(t, s.Projects().Create(ctx, org.Support))
	return org
}

// IdentityOf builds the request identity of e.
func IdentityOf(e *domain.Employee) domain.Identity {
	return domain.Identity{EmployeeID: e.ID, Roles: e.Roles, ReportingManagerID: e.ReportingManagerID}
}
