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

var timesheetColumns = []string{
	"id", "employee_id", "week_start", "week_end", "status", "total_hours", "submitted_at",
	"approved_at", "approved_by", "rejected_at", "rejection_reason", "created_at", "updated_at",
}

// dayColumns are indexed by time.Weekday.
var dayColumns = [7]string{"sun_hours", "mon_hours", "tue_hours", "wed_hours", "thu_hours", "fri_hours", "sat_hours"}

var rowColumns = append([]string{"id", "timesheet_id", "project_id", "task_description"},
	append(dayColumns[:], "created_at", "updated_at")...)

// TimesheetRepository stores timesheets and their rows in Postgres.
type TimesheetRepository struct {
	db database.DBTX
}

var _ domain.TimesheetRepository = (*TimesheetRepository)(nil)

func NewTimesheetRepository(db database.DBTX) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

func scanTimesheet(s rowScanner) (*domain.Timesheet, error) {
	var (
		ts                             domain.Timesheet
		submittedAt, approvedAt, rejAt sql.NullTime
		approvedBy                     sql.NullString
	)
	err := s.Scan(&ts.ID, &ts.EmployeeID, &ts.WeekStart, &ts.WeekEnd, &ts.Status, &ts.TotalHours,
		&submittedAt, &approvedAt, &approvedBy, &rejAt, &ts.RejectionReason, &ts.CreatedAt, &ts.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ts.WeekStart = ts.WeekStart.UTC()
	ts.WeekEnd = ts.WeekEnd.UTC()
	ts.SubmittedAt = nullTime(submittedAt)
	ts.ApprovedAt = nullTime(approvedAt)
	ts.RejectedAt = nullTime(rejAt)
	if approvedBy.Valid {
		ts.ApprovedBy = &approvedBy.String
	}
	return &ts, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func scanRow(s rowScanner) (*domain.TimesheetRow, error) {
	var r domain.TimesheetRow
	dest := []interface{}{&r.ID, &r.TimesheetID, &r.ProjectID, &r.TaskDescription}
	for i := range r.Hours {
		dest = append(dest, &r.Hours[i])
	}
	dest = append(dest, &r.CreatedAt, &r.UpdatedAt)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts the timesheet and its rows. Call it inside a transaction.
func (r *TimesheetRepository) Create(ctx context.Context, ts *domain.Timesheet) error {
	query, args := builder.NewSQLBuilder().
		Insert("timesheets", timesheetColumns...).
		Values(ts.ID, ts.EmployeeID, ts.WeekStart, ts.WeekEnd, ts.Status, ts.TotalHours, ts.SubmittedAt,
			ts.ApprovedAt, ts.ApprovedBy, ts.RejectedAt, ts.RejectionReason, ts.CreatedAt, ts.UpdatedAt).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "creating timesheet")
	}
	return r.insertRows(ctx, ts)
}

func (r *TimesheetRepository) GetByID(ctx context.Context, id string) (*domain.Timesheet, error) {
	return r.get(ctx, id, false)
}

func (r *TimesheetRepository) GetForUpdate(ctx context.Context, id string) (*domain.Timesheet, error) {
	return r.get(ctx, id, true)
}

func (r *TimesheetRepository) get(ctx context.Context, id string, lock bool) (*domain.Timesheet, error) {
	b := builder.NewSQLBuilder().
		Select(timesheetColumns...).
		From("timesheets").
		Where("id = ?", id).
		Where("deleted_at IS NULL")
	if lock {
		b.ForUpdate()
	}
	query, args := b.Build()

	ts, err := scanTimesheet(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("timesheet %s", id))
	}

	rows, err := r.loadRows(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	ts.Rows = rows[id]
	return ts, nil
}

// Update writes the header fields. Rows are written by ReplaceRows.
func (r *TimesheetRepository) Update(ctx context.Context, ts *domain.Timesheet) error {
	query, args := builder.NewSQLBuilder().
		Update("timesheets").
		Set("status", ts.Status).
		Set("total_hours", ts.TotalHours).
		Set("submitted_at", ts.SubmittedAt).
		Set("approved_at", ts.ApprovedAt).
		Set("approved_by", ts.ApprovedBy).
		Set("rejected_at", ts.RejectedAt).
		Set("rejection_reason", ts.RejectionReason).
		Set("updated_at", ts.UpdatedAt).
		Where("id = ?", ts.ID).
		Where("deleted_at IS NULL").
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "updating timesheet")
	}
	return requireAffected(res, fmt.Sprintf("timesheet %s", ts.ID))
}

// ReplaceRows deletes the stored rows of ts and inserts ts.Rows.
func (r *TimesheetRepository) ReplaceRows(ctx context.Context, ts *domain.Timesheet) error {
	query, args := builder.NewSQLBuilder().
		Delete("timesheet_rows").
		Where("timesheet_id = ?", ts.ID).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clearing rows of timesheet %s: %w", ts.ID, err)
	}
	return r.insertRows(ctx, ts)
}

func (r *TimesheetRepository) insertRows(ctx context.Context, ts *domain.Timesheet) error {
	if len(ts.Rows) == 0 {
		return nil
	}
	b := builder.NewSQLBuilder().Insert("timesheet_rows", rowColumns...)
	for i := range ts.Rows {
		row := &ts.Rows[i]
		row.TimesheetID = ts.ID
		vals := []interface{}{row.ID, row.TimesheetID, row.ProjectID, row.TaskDescription}
		for _, h := range row.Hours {
			vals = append(vals, h)
		}
		vals = append(vals, row.CreatedAt, row.UpdatedAt)
		b.Values(vals...)
	}
	query, args := b.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, fmt.Sprintf("inserting rows of timesheet %s", ts.ID))
	}
	return nil
}

func (r *TimesheetRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query, args := builder.NewSQLBuilder().
		Update("timesheets").
		Set("deleted_at", at).
		Set("updated_at", at).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "deleting timesheet")
	}
	return requireAffected(res, fmt.Sprintf("timesheet %s", id))
}

// List returns timesheets matching filter, newest week first, rows included.
func (r *TimesheetRepository) List(ctx context.Context, filter domain.TimesheetFilter) ([]domain.Timesheet, error) {
	b := builder.NewSQLBuilder().
		Select(timesheetColumns...).
		From("timesheets").
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
	if filter.WeekStartFrom != nil {
		b.Where("week_start >= ?", *filter.WeekStartFrom)
	}
	if filter.WeekStartTo != nil {
		b.Where("week_start <= ?", *filter.WeekStartTo)
	}
	b.OrderBy("week_start DESC").OrderBy("employee_id")
	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b.Offset(filter.Offset)
	}
	query, args := b.Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}
	defer rows.Close()

	var (
		out []domain.Timesheet
		ids []string
	)
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		out = append(out, *ts)
		ids = append(ids, ts.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	byID, err := r.loadRows(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Rows = byID[out[i].ID]
	}
	return out, nil
}

func (r *TimesheetRepository) loadRows(ctx context.Context, timesheetIDs []string) (map[string][]domain.TimesheetRow, error) {
	ids := make([]interface{}, len(timesheetIDs))
	for i, id := range timesheetIDs {
		ids[i] = id
	}
	query, args := builder.NewSQLBuilder().
		Select(rowColumns...).
		From("timesheet_rows").
		WhereIn("timesheet_id", ids...).
		OrderBy("created_at").
		OrderBy("id").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheet rows: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.TimesheetRow, len(timesheetIDs))
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet row: %w", err)
		}
		out[row.TimesheetID] = append(out[row.TimesheetID], *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
