package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/locvowork/hrms/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqNumericOutOfRange   = "22003"
)

// conflictMessages maps constraint names to caller-facing messages.
var conflictMessages = map[string]string{
	"uq_timesheets_employee_week": "a timesheet for this week already exists",
	"timesheet_rows_timesheet_id_project_id_task_description_key": "duplicate project and task in timesheet",
	"employees_email_key":         "an employee with this email already exists",
	"employees_employee_code_key": "an employee with this code already exists",
	"projects_pkey":               "a project with this id already exists",
}

// mapError translates driver errors into domain errors. what names the
// operation for wrapping.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			msg, ok := conflictMessages[pqErr.Constraint]
			if !ok {
				msg = "record already exists"
			}
			return &domain.ConflictError{Message: msg}
		case pqForeignKeyViolation:
			return &domain.ValidationError{Field: pqErr.Column, Message: "referenced record does not exist"}
		case pqNumericOutOfRange:
			return &domain.ValidationError{Field: pqErr.Column, Message: "value is too large to store"}
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
