package repository

import (
	"context"
	"database/sql"

	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/domain"
)

// Store is the Postgres implementation of domain.Store. Repositories built
// by WithinTx share the transaction.
type Store struct {
	conn database.DBTX
	uow  *database.UnitOfWork
}

var _ domain.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{conn: db, uow: database.NewUnitOfWork(db)}
}

func (s *Store) Employees() domain.EmployeeRepository   { return NewEmployeeRepository(s.conn) }
func (s *Store) Projects() domain.ProjectRepository     { return NewProjectRepository(s.conn) }
func (s *Store) Timesheets() domain.TimesheetRepository { return NewTimesheetRepository(s.conn) }
func (s *Store) Leaves() domain.LeaveRepository         { return NewLeaveRepository(s.conn) }
func (s *Store) Audit() domain.AuditRepository          { return NewAuditRepository(s.conn) }

// WithinTx runs fn with a Store bound to one transaction. Nested calls reuse
// the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if s.uow == nil {
		return fn(ctx, s)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, &Store{conn: tx})
	})
}
