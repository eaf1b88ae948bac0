package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/repository/builder"
)

var leaveColumns = []string{
	"id", "employee_id", "leave_type", "start_date", "end_date", "number_of_days", "reason", "status",
	"approved_by", "approved_at", "rejected_at", "rejection_reason", "created_at", "updated_at",
}

var balanceColumns = []string{
	"employee_id", "paid_leave", "sick_leave", "casual_leave", "earned_leave", "updated_at",
}

// LeaveRepository stores leave requests and balances in Postgres.
type LeaveRepository struct {
	db database.DBTX
}

var _ domain.LeaveRepository = (*LeaveRepository)(nil)

func NewLeaveRepository(db database.DBTX) *LeaveRepository {
	return &LeaveRepository{db: db}
}

func scanLeave(s rowScanner) (*domain.Leave, error) {
	var (
		l                      domain.Leave
		approvedBy             sql.NullString
		approvedAt, rejectedAt sql.NullTime
	)
	err := s.Scan(&l.ID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate, &l.NumberOfDays, &l.Reason, &l.Status,
		&approvedBy, &approvedAt, &rejectedAt, &l.RejectionReason, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.StartDate = l.StartDate.UTC()
	l.EndDate = l.EndDate.UTC()
	l.ApprovedAt = nullTime(approvedAt)
	l.RejectedAt = nullTime(rejectedAt)
	if approvedBy.Valid {
		l.ApprovedBy = &approvedBy.String
	}
	return &l, nil
}

func (r *LeaveRepository) Create(ctx context.Context, l *domain.Leave) error {
	query, args := builder.NewSQLBuilder().
		Insert("leaves", leaveColumns...).
		Values(l.ID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.NumberOfDays, l.Reason, l.Status,
			l.ApprovedBy, l.ApprovedAt, l.RejectedAt, l.RejectionReason, l.CreatedAt, l.UpdatedAt).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "creating leave")
	}
	return nil
}

func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*domain.Leave, error) {
	return r.get(ctx, id, false)
}

func (r *LeaveRepository) GetForUpdate(ctx context.Context, id string) (*domain.Leave, error) {
	return r.get(ctx, id, true)
}

func (r *LeaveRepository) get(ctx context.Context, id string, lock bool) (*domain.Leave, error) {
	b := builder.NewSQLBuilder().
		Select(leaveColumns...).
		From("leaves").
		Where("id = ?", id).
		Where("deleted_at IS NULL")
	if lock {
		b.ForUpdate()
	}
	query, args := b.Build()

	l, err := scanLeave(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("leave %s", id))
	}
	return l, nil
}

// Update writes the review fields of l.
func (r *LeaveRepository) Update(ctx context.Context, l *domain.Leave) error {
	query, args := builder.NewSQLBuilder().
		Update("leaves").
		Set("status", l.Status).
		Set("approved_by", l.ApprovedBy).
		Set("approved_at", l.ApprovedAt).
		Set("rejected_at", l.RejectedAt).
		Set("rejection_reason", l.RejectionReason).
		Set("updated_at", l.UpdatedAt).
		Where("id = ?", l.ID).
		Where("deleted_at IS NULL").
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "updating leave")
	}
	return requireAffected(res, fmt.Sprintf("leave %s", l.ID))
}

func (r *LeaveRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query, args := builder.NewSQLBuilder().
		Update("leaves").
		Set("deleted_at", at).
		Set("updated_at", at).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "deleting leave")
	}
	return requireAffected(res, fmt.Sprintf("leave %s", id))
}

// List returns leaves matching filter, latest start first.
func (r *LeaveRepository) List(ctx context.Context, filter domain.LeaveFilter) ([]domain.Leave, error) {
	b := builder.NewSQLBuilder().
		Select(leaveColumns...).
		From("leaves").
		Where("deleted_at IS NULL")

	if filter.EmployeeIDs != nil {
		ids := make([]interface{}, len(filter.EmployeeIDs))
		for i, id := range filter.EmployeeIDs {
			ids[i] = id
		}
		b.WhereIn("employee_id", ids...)
	}
	if filter.Status != "" {
		b.Where("status = ?", filter.Status)
	}
	b.OrderBy("start_date DESC").OrderBy("id")
	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b.Offset(filter.Offset)
	}
	query, args := b.Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	defer rows.Close()

	var out []domain.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *LeaveRepository) GetBalance(ctx context.Context, employeeID string) (*domain.LeaveBalance, error) {
	query, args := builder.NewSQLBuilder().
		Select(balanceColumns...).
		From("leave_balances").
		Where("employee_id = ?", employeeID).
		Build()

	var b domain.LeaveBalance
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&b.EmployeeID, &b.PaidLeave, &b.SickLeave, &b.CasualLeave, &b.EarnedLeave, &b.UpdatedAt)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("leave balance of %s", employeeID))
	}
	return &b, nil
}

// SaveBalance inserts or overwrites the balance row of b.EmployeeID.
func (r *LeaveRepository) SaveBalance(ctx context.Context, b *domain.LeaveBalance) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leave_balances (employee_id, paid_leave, sick_leave, casual_leave, earned_leave, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id) DO UPDATE SET
			paid_leave = EXCLUDED.paid_leave,
			sick_leave = EXCLUDED.sick_leave,
			casual_leave = EXCLUDED.casual_leave,
			earned_leave = EXCLUDED.earned_leave,
			updated_at = EXCLUDED.updated_at`,
		b.EmployeeID, b.PaidLeave, b.SickLeave, b.CasualLeave, b.EarnedLeave, b.UpdatedAt)
	if err != nil {
		return mapError(err, "saving leave balance")
	}
	return nil
}
