package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/repository/builder"
)

var employeeColumns = []string{
	"id", "employee_code", "first_name", "last_name", "email", "department", "job_role",
	"employment_type", "date_of_joining", "reporting_manager_id", "roles", "is_active",
	"created_at", "updated_at",
}

type employeeRepository struct {
	db database.DBTX
}

// NewEmployeeRepository creates a new instance of EmployeeRepository
func NewEmployeeRepository(db database.DBTX) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmployee(s rowScanner) (*domain.Employee, error) {
	var (
		e       domain.Employee
		manager sql.NullString
		roles   []string
	)
	err := s.Scan(&e.ID, &e.EmployeeCode, &e.FirstName, &e.LastName, &e.Email, &e.Department,
		&e.JobRole, &e.EmploymentType, &e.DateOfJoining, &manager, pq.Array(&roles), &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if manager.Valid {
		e.ReportingManagerID = &manager.String
	}
	e.Roles = make([]domain.Role, len(roles))
	for i, r := range roles {
		e.Roles[i] = domain.Role(r)
	}
	return &e, nil
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query, args := builder.NewSQLBuilder().
		Insert("employees", employeeColumns...).
		Values(e.ID, e.EmployeeCode, e.FirstName, e.LastName, e.Email, e.Department, e.JobRole,
			e.EmploymentType, e.DateOfJoining, e.ReportingManagerID, pq.Array(roleStrings(e.Roles)),
			e.IsActive, e.CreatedAt, e.UpdatedAt).
		Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	return mapError(err, "creating employee")
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query, args := builder.NewSQLBuilder().
		Select(employeeColumns...).
		From("employees").
		Where("id = ?", id).
		Build()

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("employee %s", id))
	}
	return e, nil
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	query, args := builder.NewSQLBuilder().
		Update("employees").
		Set("first_name", e.FirstName).
		Set("last_name", e.LastName).
		Set("email", e.Email).
		Set("department", e.Department).
		Set("job_role", e.JobRole).
		Set("employment_type", e.EmploymentType).
		Set("reporting_manager_id", e.ReportingManagerID).
		Set("roles", pq.Array(roleStrings(e.Roles))).
		Set("is_active", e.IsActive).
		Set("updated_at", e.UpdatedAt).
		Where("id = ?", e.ID).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "updating employee")
	}
	return requireAffected(res, fmt.Sprintf("employee %s", e.ID))
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	query, args := builder.NewSQLBuilder().
		Delete("employees").
		Where("id = ?", id).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "deleting employee")
	}
	return requireAffected(res, fmt.Sprintf("employee %s", id))
}

func (r *employeeRepository) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	b := builder.NewSQLBuilder().
		Select(employeeColumns...).
		From("employees").
		OrderBy("employee_code ASC")

	if filter.Department != "" {
		b.Where("department = ?", filter.Department)
	}
	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b.Offset(filter.Offset)
	}

	query, args := b.Build()
	return r.query(ctx, query, args)
}

func (r *employeeRepository) ListSubordinates(ctx context.Context, managerID string) ([]domain.Employee, error) {
	query, args := builder.NewSQLBuilder().
		Select(employeeColumns...).
		From("employees").
		Where("reporting_manager_id = ?", managerID).
		Where("is_active = ?", true).
		OrderBy("employee_code ASC").
		Build()
	return r.query(ctx, query, args)
}

func (r *employeeRepository) query(ctx context.Context, query string, args []interface{}) ([]domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return employees, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
