package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/logger"
	"github.com/locvowork/hrms/internal/report"
	"github.com/locvowork/hrms/internal/timesheet"
	"github.com/locvowork/hrms/pkg/dataflow"
)

const auditEntityTimesheet = "timesheet"

// TimesheetService runs timesheet use cases: it resolves the caller's
// capability, drives the state machine, persists inside a transaction and
// fans out audit and search side effects after commit.
type TimesheetService struct {
	store   domain.Store
	machine *timesheet.Machine
	mirror  domain.AuditSink
	indexer domain.TimesheetIndexer
	now     func() time.Time
	newID   func() string
}

// TimesheetOption configures a TimesheetService.
type TimesheetOption func(*TimesheetService)

// WithAuditMirror sends committed audit entries to sink as well.
func WithAuditMirror(sink domain.AuditSink) TimesheetOption {
	return func(s *TimesheetService) { s.mirror = sink }
}

// WithIndexer keeps idx in sync and enables Search.
func WithIndexer(idx domain.TimesheetIndexer) TimesheetOption {
	return func(s *TimesheetService) { s.indexer = idx }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) TimesheetOption {
	return func(s *TimesheetService) { s.now = now }
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(fn func() string) TimesheetOption {
	return func(s *TimesheetService) { s.newID = fn }
}

func NewTimesheetService(store domain.Store, opts ...TimesheetOption) *TimesheetService {
	s := &TimesheetService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = timesheet.NewMachine(s.now)
	return s
}

// MonthWeeks is the partition of a month plus the index of the week that
// contains today (-1 when today is in another month).
type MonthWeeks struct {
	Year    int                  `json:"year"`
	Month   int                  `json:"month"`
	Weeks   []domain.WeekSegment `json:"weeks"`
	Current int                  `json:"current"`
}

// Result is a timesheet together with the feedback of the last row change.
type Result struct {
	Timesheet *domain.Timesheet
	Feedback  timesheet.Feedback
}

// CreateInput is the payload of Create.
type CreateInput struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Rows      []domain.TimesheetRow
}

// Weeks partitions a month into month-bounded weeks.
func (s *TimesheetService) Weeks(year, month int) (*MonthWeeks, error) {
	if month < 1 || month > 12 {
		return nil, &domain.ValidationError{Field: "month", Message: "month must be between 1 and 12"}
	}
	if year < 1 || year > 9999 {
		return nil, &domain.ValidationError{Field: "year", Message: "year must be between 1 and 9999"}
	}
	m := time.Month(month)
	return &MonthWeeks{
		Year:    year,
		Month:   month,
		Weeks:   timesheet.PartitionMonth(year, m),
		Current: timesheet.WeekContaining(year, m, s.now()),
	}, nil
}

// Create stores a new draft timesheet owned by the caller.
func (s *TimesheetService) Create(ctx context.Context, caller domain.Identity, in CreateInput) (*Result, error) {
	ts, fb, err := s.machine.Create(caller.EmployeeID, domain.WeekSegment{Start: in.WeekStart, End: in.WeekEnd}, in.Rows)
	if err != nil {
		return nil, err
	}
	ts.ID = s.newID()
	s.assignRowIDs(ts)

	var entry domain.AuditEntry
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := checkProjects(ctx, tx, ts.Rows); err != nil {
			return err
		}
		if err := tx.Timesheets().Create(ctx, ts); err != nil {
			return err
		}
		entry = s.auditEntry(ctx, caller, timesheet.ActionCreate, ts, nil)
		return tx.Audit().Insert(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, entry, ts)
	logger.InfoLog(ctx, "timesheet %s created for week %s", ts.ID, ts.WeekStart.Format("2006-01-02"))
	return &Result{Timesheet: ts, Feedback: fb}, nil
}

// Update replaces the rows of a draft or rejected timesheet.
func (s *TimesheetService) Update(ctx context.Context, caller domain.Identity, id string, rows []domain.TimesheetRow) (*Result, error) {
	var fb timesheet.Feedback
	ts, err := s.transition(ctx, caller, id, timesheet.ActionUpdate, func(ctx context.Context, tx domain.Store, ts *domain.Timesheet, actor timesheet.Actor) error {
		var err error
		if fb, err = s.machine.ReplaceRows(ts, actor, rows); err != nil {
			return err
		}
		if err := checkProjects(ctx, tx, ts.Rows); err != nil {
			return err
		}
		s.assignRowIDs(ts)
		return tx.Timesheets().ReplaceRows(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Timesheet: ts, Feedback: fb}, nil
}

// Submit hands a timesheet to the owner's reporting manager.
func (s *TimesheetService) Submit(ctx context.Context, caller domain.Identity, id string) (*domain.Timesheet, error) {
	return s.transition(ctx, caller, id, timesheet.ActionSubmit, func(_ context.Context, _ domain.Store, ts *domain.Timesheet, actor timesheet.Actor) error {
		return s.machine.Submit(ts, actor)
	})
}

// Approve finalises a submitted timesheet.
func (s *TimesheetService) Approve(ctx context.Context, caller domain.Identity, id string) (*domain.Timesheet, error) {
	return s.transition(ctx, caller, id, timesheet.ActionApprove, func(_ context.Context, _ domain.Store, ts *domain.Timesheet, actor timesheet.Actor) error {
		return s.machine.Approve(ts, actor)
	})
}

// Reject returns a submitted timesheet to its owner.
func (s *TimesheetService) Reject(ctx context.Context, caller domain.Identity, id, reason string) (*domain.Timesheet, error) {
	return s.transition(ctx, caller, id, timesheet.ActionReject, func(_ context.Context, _ domain.Store, ts *domain.Timesheet, actor timesheet.Actor) error {
		return s.machine.Reject(ts, actor, reason)
	})
}

type mutation func(ctx context.Context, tx domain.Store, ts *domain.Timesheet, actor timesheet.Actor) error

// transition locks the timesheet, applies fn and writes the header plus an
// audit entry in one transaction.
func (s *TimesheetService) transition(ctx context.Context, caller domain.Identity, id, action string, fn mutation) (*domain.Timesheet, error) {
	var (
		ts    *domain.Timesheet
		entry domain.AuditEntry
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		if ts, err = tx.Timesheets().GetForUpdate(ctx, id); err != nil {
			return err
		}
		actor, err := resolveActor(ctx, tx, caller, ts)
		if err != nil {
			return err
		}
		from := ts.Status
		if err := fn(ctx, tx, ts, actor); err != nil {
			return err
		}
		if err := tx.Timesheets().Update(ctx, ts); err != nil {
			return err
		}
		entry = s.auditEntry(ctx, caller, action, ts, map[string]interface{}{"from": string(from)})
		return tx.Audit().Insert(ctx, &entry)
	})
	if err != nil {
		if domain.IsAuthorization(err) || domain.IsState(err) {
			logger.WarnLog(ctx, "timesheet %s %s refused: %v", id, action, err)
		}
		return nil, err
	}

	s.afterCommit(ctx, entry, ts)
	logger.InfoLog(ctx, "timesheet %s %s by %s, now %s", ts.ID, action, caller.EmployeeID, ts.Status)
	return ts, nil
}

// Delete soft-deletes a draft or rejected timesheet of the caller.
func (s *TimesheetService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	var entry domain.AuditEntry
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		ts, err := tx.Timesheets().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		actor, err := resolveActor(ctx, tx, caller, ts)
		if err != nil {
			return err
		}
		if err := s.machine.CheckDelete(ts, actor); err != nil {
			return err
		}
		if err := tx.Timesheets().SoftDelete(ctx, id, s.now()); err != nil {
			return err
		}
		entry = s.auditEntry(ctx, caller, timesheet.ActionDelete, ts, nil)
		return tx.Audit().Insert(ctx, &entry)
	})
	if err != nil {
		return err
	}

	s.mirrorAudit(ctx, entry)
	if s.indexer != nil {
		if err := s.indexer.DeleteTimesheet(ctx, id); err != nil {
			logger.WarnLog(ctx, "removing timesheet %s from index: %v", id, err)
		}
	}
	return nil
}

// Get returns a timesheet the caller may view.
func (s *TimesheetService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Timesheet, error) {
	ts, err := s.store.Timesheets().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := resolveActor(ctx, s.store, caller, ts)
	if err != nil {
		return nil, err
	}
	if err := s.machine.CheckView(ts, actor); err != nil {
		return nil, err
	}
	return ts, nil
}

// History lists the audit trail of a timesheet the caller may view.
func (s *TimesheetService) History(ctx context.Context, caller domain.Identity, id string) ([]domain.AuditEntry, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.store.Audit().ListByEntity(ctx, auditEntityTimesheet, id)
}

// ListMine lists the caller's own timesheets.
func (s *TimesheetService) ListMine(ctx context.Context, caller domain.Identity, filter domain.TimesheetFilter) ([]domain.Timesheet, error) {
	filter.EmployeeIDs = []string{caller.EmployeeID}
	return s.store.Timesheets().List(ctx, filter)
}

// ListTeam lists timesheets of the caller's active direct reports. With an
// empty status filter only submitted timesheets are returned.
func (s *TimesheetService) ListTeam(ctx context.Context, caller domain.Identity, filter domain.TimesheetFilter) ([]domain.Timesheet, error) {
	reports, err := s.store.Employees().ListSubordinates(ctx, caller.EmployeeID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return []domain.Timesheet{}, nil
	}
	filter.EmployeeIDs = make([]string, 0, len(reports))
	for _, r := range reports {
		if r.ID != caller.EmployeeID {
			filter.EmployeeIDs = append(filter.EmployeeIDs, r.ID)
		}
	}
	if filter.Status == "" {
		filter.Status = domain.TimesheetSubmitted
	}
	return s.store.Timesheets().List(ctx, filter)
}

// Search finds timesheets visible to the caller whose tasks match query.
func (s *TimesheetService) Search(ctx context.Context, caller domain.Identity, query string) ([]domain.Timesheet, error) {
	if s.indexer == nil {
		return nil, fmt.Errorf("timesheet search: %w", domain.ErrUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "q", Message: "search query is required"}
	}

	scope, err := s.visibleEmployees(ctx, caller)
	if err != nil {
		return nil, err
	}
	ids, err := s.indexer.SearchTimesheets(ctx, query, scope)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Timesheet, 0, len(ids))
	for _, id := range ids {
		ts, err := s.Get(ctx, caller, id)
		if errors.Is(err, domain.ErrNotFound) || domain.IsAuthorization(err) {
			// stale index entry
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	return out, nil
}

// Export renders every timesheet of the month the caller may view as an
// Excel workbook.
func (s *TimesheetService) Export(ctx context.Context, caller domain.Identity, year, month int) ([]byte, string, error) {
	weeks, err := s.Weeks(year, month)
	if err != nil {
		return nil, "", err
	}
	scope, err := s.visibleEmployees(ctx, caller)
	if err != nil {
		return nil, "", err
	}

	from := weeks.Weeks[0].Start
	to := weeks.Weeks[len(weeks.Weeks)-1].Start
	sheets, err := s.store.Timesheets().List(ctx, domain.TimesheetFilter{
		EmployeeIDs:   scope,
		WeekStartFrom: &from,
		WeekStartTo:   &to,
	})
	if err != nil {
		return nil, "", err
	}

	in := report.MonthlyInput{
		Year:       year,
		Month:      time.Month(month),
		Weeks:      weeks.Weeks,
		Employees:  make(map[string]domain.Employee),
		Projects:   make(map[string]domain.Project),
		Timesheets: sheets,
	}
	for _, ts := range sheets {
		if _, ok := in.Employees[ts.EmployeeID]; !ok {
			emp, err := s.store.Employees().GetByID(ctx, ts.EmployeeID)
			if err != nil {
				return nil, "", err
			}
			in.Employees[emp.ID] = *emp
		}
	}
	projects, err := s.store.Projects().List(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, p := range projects {
		in.Projects[p.ID] = p
	}

	var buf bytes.Buffer
	if err := report.WriteMonthly(&buf, in); err != nil {
		return nil, "", err
	}
	logger.InfoLog(ctx, "exported %d timesheets for %04d-%02d", len(sheets), year, month)
	return buf.Bytes(), in.Filename(), nil
}

// BulkIndexer accepts timesheets in batches.
type BulkIndexer interface {
	BulkIndexTimesheets(ctx context.Context, sheets []domain.Timesheet) error
}

// Reindex pushes every live timesheet to idx in batches of batchSize, using
// workers concurrent requests. It returns the number of timesheets indexed.
func (s *TimesheetService) Reindex(ctx context.Context, idx BulkIndexer, batchSize, workers int) (int, error) {
	sheets, err := s.store.Timesheets().List(ctx, domain.TimesheetFilter{})
	if err != nil {
		return 0, err
	}

	var indexed int64
	batches := dataflow.Batch(ctx, dataflow.From(ctx, sheets...), batchSize)
	err = dataflow.ForEach(ctx, batches, func(batch []domain.Timesheet) error {
		if err := idx.BulkIndexTimesheets(ctx, batch); err != nil {
			return err
		}
		atomic.AddInt64(&indexed, int64(len(batch)))
		return nil
	}, dataflow.WithWorkers(workers), dataflow.WithRetry(2, func(attempt int) time.Duration {
		return time.Duration(attempt) * 500 * time.Millisecond
	}))
	n := int(atomic.LoadInt64(&indexed))
	if err != nil {
		return n, fmt.Errorf("reindex timesheets: %w", err)
	}
	logger.InfoLog(ctx, "reindexed %d of %d timesheets", n, len(sheets))
	return n, nil
}

// IndexPruner lists and removes indexed documents.
type IndexPruner interface {
	ScrollTimesheetIDs(ctx context.Context) ([]string, error)
	DeleteTimesheet(ctx context.Context, id string) error
}

// PruneIndex removes documents whose timesheet is gone or soft-deleted.
// It returns the number of documents removed.
func (s *TimesheetService) PruneIndex(ctx context.Context, idx IndexPruner) (int, error) {
	indexed, err := idx.ScrollTimesheetIDs(ctx)
	if err != nil {
		return 0, err
	}
	sheets, err := s.store.Timesheets().List(ctx, domain.TimesheetFilter{})
	if err != nil {
		return 0, err
	}
	live := make(map[string]bool, len(sheets))
	for _, ts := range sheets {
		live[ts.ID] = true
	}

	removed := 0
	for _, id := range indexed {
		if live[id] {
			continue
		}
		if err := idx.DeleteTimesheet(ctx, id); err != nil {
			return removed, fmt.Errorf("prune %s: %w", id, err)
		}
		removed++
	}
	logger.InfoLog(ctx, "pruned %d stale documents out of %d", removed, len(indexed))
	return removed, nil
}

// AuditBatcher stores audit entries in bulk.
type AuditBatcher interface {
	BatchRecord(ctx context.Context, entries []domain.AuditEntry) error
}

// ResyncAuditMirror copies the stored history of timesheet id to sink,
// repairing entries the mirror missed. Entries keep their IDs so repeated
// runs overwrite rather than duplicate.
func (s *TimesheetService) ResyncAuditMirror(ctx context.Context, sink AuditBatcher, id string) (int, error) {
	entries, err := s.store.Audit().ListByEntity(ctx, auditEntityTimesheet, id)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("timesheet %s has no history: %w", id, domain.ErrNotFound)
	}
	if err := sink.BatchRecord(ctx, entries); err != nil {
		return 0, fmt.Errorf("mirror history of %s: %w", id, err)
	}
	return len(entries), nil
}

// visibleEmployees returns the employee IDs the caller may read, or nil
// for everyone.
func (s *TimesheetService) visibleEmployees(ctx context.Context, caller domain.Identity) ([]string, error) {
	if caller.HasRole(domain.RoleHRUser) || caller.HasRole(domain.RoleSystemAdmin) {
		return nil, nil
	}
	ids := []string{caller.EmployeeID}
	reports, err := s.store.Employees().ListSubordinates(ctx, caller.EmployeeID)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.ID != caller.EmployeeID {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (s *TimesheetService) assignRowIDs(ts *domain.Timesheet) {
	for i := range ts.Rows {
		if ts.Rows[i].ID == "" {
			ts.Rows[i].ID = s.newID()
		}
		ts.Rows[i].TimesheetID = ts.ID
	}
}

func (s *TimesheetService) auditEntry(ctx context.Context, caller domain.Identity, action string, ts *domain.Timesheet, meta map[string]interface{}) domain.AuditEntry {
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["status"] = string(ts.Status)
	meta["total_hours"] = ts.TotalHours.StringFixed(2)
	meta["week_start"] = ts.WeekStart.Format("2006-01-02")
	if action == timesheet.ActionReject {
		meta["rejection_reason"] = ts.RejectionReason
	}

	rm := requestMetaFrom(ctx)
	return domain.AuditEntry{
		ID:        s.newID(),
		ActorID:   caller.EmployeeID,
		Action:    action,
		Entity:    auditEntityTimesheet,
		EntityID:  ts.ID,
		Metadata:  meta,
		IPAddress: rm.IPAddress,
		UserAgent: rm.UserAgent,
		Timestamp: s.now(),
	}
}

func (s *TimesheetService) afterCommit(ctx context.Context, entry domain.AuditEntry, ts *domain.Timesheet) {
	s.mirrorAudit(ctx, entry)
	if s.indexer != nil {
		if err := s.indexer.IndexTimesheet(ctx, *ts); err != nil {
			logger.WarnLog(ctx, "indexing timesheet %s: %v", ts.ID, err)
		}
	}
}

func (s *TimesheetService) mirrorAudit(ctx context.Context, entry domain.AuditEntry) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Record(ctx, entry); err != nil {
		logger.WarnLog(ctx, "mirroring audit entry %s: %v", entry.ID, err)
	}
}

func resolveActor(ctx context.Context, st domain.Store, caller domain.Identity, ts *domain.Timesheet) (timesheet.Actor, error) {
	if caller.EmployeeID == ts.EmployeeID {
		return timesheet.Owner{EmployeeID: caller.EmployeeID}, nil
	}
	owner, err := st.Employees().GetByID(ctx, ts.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("loading timesheet owner: %w", err)
	}
	return timesheet.ResolveActor(caller, *owner), nil
}

// checkProjects fails when a row references a project that does not exist.
func checkProjects(ctx context.Context, tx domain.Store, rows []domain.TimesheetRow) error {
	known := make(map[string]bool)
	for i, r := range rows {
		exists, seen := known[r.ProjectID]
		if !seen {
			var err error
			if exists, err = tx.Projects().Exists(ctx, r.ProjectID); err != nil {
				return err
			}
			known[r.ProjectID] = exists
		}
		if !exists {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("rows[%d].project_id", i),
				Message: fmt.Sprintf("project %s does not exist", r.ProjectID),
			}
		}
	}
	return nil
}
