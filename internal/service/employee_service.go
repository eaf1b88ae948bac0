package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/logger"
)

// maxManagerDepth bounds the walk up the reporting line when looking for
// cycles.
const maxManagerDepth = 64

// EmployeeService handles business logic for employees
type EmployeeService interface {
	Create(ctx context.Context, e *domain.Employee) error
	Get(ctx context.Context, id string) (*domain.Employee, error)
	Update(ctx context.Context, e *domain.Employee) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error)
	Subordinates(ctx context.Context, managerID string) ([]domain.Employee, error)
	ResolveIdentity(ctx context.Context, employeeID string) (*domain.Identity, error)
}

type employeeService struct {
	store domain.Store
	now   func() time.Time
}

// NewEmployeeService creates a new EmployeeService instance
func NewEmployeeService(store domain.Store, now func() time.Time) EmployeeService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &employeeService{store: store, now: now}
}

func (s *employeeService) Create(ctx context.Context, e *domain.Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if len(e.Roles) == 0 {
		e.Roles = []domain.Role{domain.RoleEmployee}
	}
	e.IsActive = true
	if err := validateEmployee(e); err != nil {
		return err
	}
	if err := s.checkManager(ctx, s.store, e); err != nil {
		return err
	}

	now := s.now()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.store.Employees().Create(ctx, e); err != nil {
		return err
	}
	logger.InfoLog(ctx, "employee %s (%s) created", e.ID, e.EmployeeCode)
	return nil
}

func (s *employeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	return s.store.Employees().GetByID(ctx, id)
}

// Update overwrites the mutable fields of an existing employee. The employee
// code and creation time are kept from the stored record.
func (s *employeeService) Update(ctx context.Context, e *domain.Employee) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.Employees().GetByID(ctx, e.ID)
		if err != nil {
			return err
		}
		e.EmployeeCode = current.EmployeeCode
		e.CreatedAt = current.CreatedAt
		if e.DateOfJoining.IsZero() {
			e.DateOfJoining = current.DateOfJoining
		}
		if len(e.Roles) == 0 {
			e.Roles = current.Roles
		}
		if err := validateEmployee(e); err != nil {
			return err
		}
		if err := s.checkManager(ctx, tx, e); err != nil {
			return err
		}
		e.UpdatedAt = s.now()
		return tx.Employees().Update(ctx, e)
	})
}

// Delete removes an employee. Employees that still own timesheets or manage
// others cannot be removed; deactivate them instead.
func (s *employeeService) Delete(ctx context.Context, id string) error {
	if err := s.store.Employees().Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoLog(ctx, "employee %s deleted", id)
	return nil
}

func (s *employeeService) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, &domain.ValidationError{Field: "limit", Message: "limit and offset must not be negative"}
	}
	return s.store.Employees().List(ctx, filter)
}

func (s *employeeService) Subordinates(ctx context.Context, managerID string) ([]domain.Employee, error) {
	if _, err := s.store.Employees().GetByID(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.Employees().ListSubordinates(ctx, managerID)
}

// ResolveIdentity turns the employee id supplied by the auth gateway into the
// caller identity. Inactive employees are refused.
func (s *employeeService) ResolveIdentity(ctx context.Context, employeeID string) (*domain.Identity, error) {
	e, err := s.store.Employees().GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, &domain.AuthorizationError{Action: "sign in", Reason: "employee is inactive"}
	}
	return &domain.Identity{
		EmployeeID:         e.ID,
		Roles:              e.Roles,
		ReportingManagerID: e.ReportingManagerID,
	}, nil
}

// checkManager verifies the reporting manager exists, is active and does not
// put e in its own reporting line.
func (s *employeeService) checkManager(ctx context.Context, st domain.Store, e *domain.Employee) error {
	if e.ReportingManagerID == nil {
		return nil
	}
	if *e.ReportingManagerID == "" {
		e.ReportingManagerID = nil
		return nil
	}

	field := "reporting_manager_id"
	id := *e.ReportingManagerID
	for depth := 0; depth < maxManagerDepth; depth++ {
		if id == e.ID {
			return &domain.ValidationError{Field: field, Message: "reporting line must not loop back to the employee"}
		}
		m, err := st.Employees().GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{Field: field, Message: fmt.Sprintf("manager %s does not exist", id)}
		}
		if err != nil {
			return err
		}
		if depth == 0 && !m.IsActive {
			return &domain.ValidationError{Field: field, Message: fmt.Sprintf("manager %s is inactive", id)}
		}
		if m.ReportingManagerID == nil {
			return nil
		}
		id = *m.ReportingManagerID
	}
	return &domain.ValidationError{Field: field, Message: "reporting line is too deep"}
}

func validateEmployee(e *domain.Employee) error {
	e.EmployeeCode = strings.TrimSpace(e.EmployeeCode)
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.Email = strings.TrimSpace(e.Email)

	switch {
	case e.EmployeeCode == "":
		return &domain.ValidationError{Field: "employee_code", Message: "employee code is required"}
	case e.FirstName == "":
		return &domain.ValidationError{Field: "first_name", Message: "first name is required"}
	case e.Email == "":
		return &domain.ValidationError{Field: "email", Message: "email is required"}
	}
	if _, err := mail.ParseAddress(e.Email); err != nil {
		return &domain.ValidationError{Field: "email", Message: "email is not a valid address"}
	}
	for _, r := range e.Roles {
		if !domain.ValidRoles[r] {
			return &domain.ValidationError{Field: "roles", Message: fmt.Sprintf("unknown role %q", r)}
		}
	}
	return nil
}
