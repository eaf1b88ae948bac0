package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are idempotent and run in order on every start when
// DB_AUTO_MIGRATE is set.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id                   TEXT PRIMARY KEY,
		employee_code        TEXT NOT NULL UNIQUE,
		first_name           TEXT NOT NULL,
		last_name            TEXT NOT NULL DEFAULT '',
		email                TEXT NOT NULL UNIQUE,
		department           TEXT NOT NULL DEFAULT '',
		job_role             TEXT NOT NULL DEFAULT '',
		employment_type      TEXT NOT NULL DEFAULT 'full_time',
		date_of_joining      DATE NOT NULL,
		reporting_manager_id TEXT REFERENCES employees(id) ON DELETE SET NULL,
		roles                TEXT[] NOT NULL DEFAULT '{employee}',
		is_active            BOOLEAN NOT NULL DEFAULT TRUE,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees (reporting_manager_id)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		client       TEXT NOT NULL DEFAULT '',
		billing_type TEXT NOT NULL DEFAULT 'billable',
		status       TEXT NOT NULL DEFAULT 'active',
		start_date   DATE NOT NULL,
		end_date     DATE,
		description  TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS timesheets (
		id               TEXT PRIMARY KEY,
		employee_id      TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		week_start       DATE NOT NULL,
		week_end         DATE NOT NULL,
		status           TEXT NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'submitted', 'approved', 'rejected')),
		total_hours      NUMERIC(5,2) NOT NULL DEFAULT 0,
		submitted_at     TIMESTAMPTZ,
		approved_at      TIMESTAMPTZ,
		approved_by      TEXT REFERENCES employees(id) ON DELETE SET NULL,
		rejected_at      TIMESTAMPTZ,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at       TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_timesheets_employee_week
		ON timesheets (employee_id, week_start) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_timesheets_status ON timesheets (status)`,

	`CREATE TABLE IF NOT EXISTS timesheet_rows (
		id               TEXT PRIMARY KEY,
		timesheet_id     TEXT NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_description VARCHAR(255) NOT NULL,
		sun_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		mon_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		tue_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		wed_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		thu_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		fri_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		sat_hours        NUMERIC(4,2) NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (timesheet_id, project_id, task_description)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheet_rows_project ON timesheet_rows (project_id)`,

	`CREATE TABLE IF NOT EXISTS leaves (
		id               TEXT PRIMARY KEY,
		employee_id      TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		leave_type       TEXT NOT NULL
			CHECK (leave_type IN ('paid_leave', 'sick_leave', 'casual_leave', 'earned_leave', 'unpaid_leave')),
		start_date       DATE NOT NULL,
		end_date         DATE NOT NULL,
		number_of_days   NUMERIC(4,1) NOT NULL,
		reason           TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		approved_by      TEXT REFERENCES employees(id) ON DELETE SET NULL,
		approved_at      TIMESTAMPTZ,
		rejected_at      TIMESTAMPTZ,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leaves_employee_start ON leaves (employee_id, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_leaves_status ON leaves (status)`,

	`CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id  TEXT PRIMARY KEY REFERENCES employees(id) ON DELETE CASCADE,
		paid_leave   NUMERIC(4,1) NOT NULL DEFAULT 5,
		sick_leave   NUMERIC(4,1) NOT NULL DEFAULT 5,
		casual_leave NUMERIC(4,1) NOT NULL DEFAULT 5,
		earned_leave NUMERIC(4,1) NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id         TEXT PRIMARY KEY,
		actor_id   TEXT NOT NULL,
		action     TEXT NOT NULL,
		entity     TEXT NOT NULL,
		entity_id  TEXT NOT NULL,
		metadata   JSONB NOT NULL DEFAULT '{}',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity, entity_id)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Reset empties every table the schema owns. It is only used by the seeder.
func Reset(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx,
		`TRUNCATE audit_logs, leave_balances, leaves, timesheet_rows, timesheets, projects, employees RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("reset tables: %w", err)
	}
	return nil
}
