package service

import (
	"context"
	"errors"
	"testing"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeServiceCreate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	org := testutil.SeedOrg(t, store)
	svc := NewEmployeeService(store, testutil.FixedClock(clockNow))

	e := &domain.Employee{
		EmployeeCode:       " EMP9001 ",
		FirstName:          "Linh",
		Email:              "linh@example.com",
		ReportingManagerID: &org.Manager.ID,
	}
	require.NoError(t, svc.Create(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "EMP9001", e.EmployeeCode)
	assert.Equal(t, []domain.Role{domain.RoleEmployee}, e.Roles)
	assert.True(t, e.IsActive)
	assert.Equal(t, clockNow, e.CreatedAt)

	reports, err := svc.Subordinates(ctx, org.Manager.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 3)

	missing := "nobody"
	tests := []struct {
		name  string
		e     domain.Employee
		field string
	}{
		{"missing code", domain.Employee{FirstName: "A", Email: "a@example.com"}, "employee_code"},
		{"missing name", domain.Employee{EmployeeCode: "X1", Email: "a@example.com"}, "first_name"},
		{"bad email", domain.Employee{EmployeeCode: "X1", FirstName: "A", Email: "not-an-email"}, "email"},
		{"unknown role", domain.Employee{EmployeeCode: "X1", FirstName: "A", Email: "a@example.com", Roles: []domain.Role{"ceo"}}, "roles"},
		{"unknown manager", domain.Employee{EmployeeCode: "X1", FirstName: "A", Email: "a@example.com", ReportingManagerID: &missing}, "reporting_manager_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.e
			err := svc.Create(ctx, &e)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "unexpected error %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		dup := &domain.Employee{EmployeeCode: "EMP9002", FirstName: "Dup", Email: "linh@example.com"}
		assert.True(t, domain.IsConflict(svc.Create(ctx, dup)))
	})
}

func TestEmployeeServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	org := testutil.SeedOrg(t, store)
	svc := NewEmployeeService(store, testutil.FixedClock(clockNow))

	t.Run("keeps code and creation time", func(t *testing.T) {
		upd := *org.Bob
		upd.EmployeeCode = "HACKED"
		upd.Department = "Ops"
		upd.CreatedAt = clockNow
		require.NoError(t, svc.Update(ctx, &upd))

		got, err := svc.Get(ctx, org.Bob.ID)
		require.NoError(t, err)
		assert.Equal(t, org.Bob.EmployeeCode, got.EmployeeCode)
		assert.Equal(t, org.Bob.CreatedAt, got.CreatedAt)
		assert.Equal(t, "Ops", got.Department)
		assert.Equal(t, clockNow, got.UpdatedAt)
	})

	t.Run("rejects reporting loops", func(t *testing.T) {
		upd := *org.Manager
		upd.ReportingManagerID = &org.Alice.ID
		err := svc.Update(ctx, &upd)
		assert.True(t, domain.IsValidation(err))

		self := *org.Alice
		self.ReportingManagerID = &org.Alice.ID
		assert.True(t, domain.IsValidation(svc.Update(ctx, &self)))
	})

	t.Run("unknown employee", func(t *testing.T) {
		ghost := domain.Employee{ID: "ghost", EmployeeCode: "G", FirstName: "G", Email: "g@example.com"}
		assert.ErrorIs(t, svc.Update(ctx, &ghost), domain.ErrNotFound)
	})
}

func TestResolveIdentity(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	org := testutil.SeedOrg(t, store)
	svc := NewEmployeeService(store, nil)

	id, err := svc.ResolveIdentity(ctx, org.Alice.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.IdentityOf(org.Alice), *id)

	_, err = svc.ResolveIdentity(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inactive := *org.Bob
	inactive.IsActive = false
	require.NoError(t, store.Employees().Update(ctx, &inactive))
	_, err = svc.ResolveIdentity(ctx, org.Bob.ID)
	assert.True(t, domain.IsAuthorization(err))
}

func TestProjectService(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewProjectService(store, testutil.FixedClock(clockNow))

	p := &domain.Project{Name: "  Billing  ", Client: "Acme"}
	require.NoError(t, svc.CreateProject(ctx, p))
	assert.Equal(t, "Billing", p.Name)
	assert.Equal(t, "billable", p.BillingType)
	assert.Equal(t, domain.ProjectActive, p.Status)
	assert.Equal(t, date(2025, 12, 3), p.StartDate)

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billing", got.Name)

	assert.True(t, domain.IsValidation(svc.CreateProject(ctx, &domain.Project{})))
	assert.True(t, domain.IsValidation(svc.CreateProject(ctx, &domain.Project{Name: "x", BillingType: "barter"})))
	assert.True(t, domain.IsValidation(svc.CreateProject(ctx, &domain.Project{Name: "x", Status: "zombie"})))

	all, err := svc.GetAllProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
