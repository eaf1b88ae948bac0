package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/locvowork/hrms/internal/domain"
)

// MemStore is an in-memory domain.Store for service and handler tests. It
// enforces the same uniqueness rules as the Postgres schema. Transactions
// are serialized and rolled back by restoring a snapshot.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	employees  map[string]domain.Employee
	projects   map[string]domain.Project
	timesheets map[string]domain.Timesheet
	deleted    map[string]time.Time
	leaves     map[string]domain.Leave
	balances   map[string]domain.LeaveBalance
	audit      []domain.AuditEntry

	// FailTimesheetUpdate, when set, is returned by the next timesheet
	// Update call.
	FailTimesheetUpdate error
}

var _ domain.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		employees:  make(map[string]domain.Employee),
		projects:   make(map[string]domain.Project),
		timesheets: make(map[string]domain.Timesheet),
		deleted:    make(map[string]time.Time),
		leaves:     make(map[string]domain.Leave),
		balances:   make(map[string]domain.LeaveBalance),
	}
}

func (s *MemStore) Employees() domain.EmployeeRepository   { return memEmployees{s} }
func (s *MemStore) Projects() domain.ProjectRepository     { return memProjects{s} }
func (s *MemStore) Timesheets() domain.TimesheetRepository { return memTimesheets{s} }
func (s *MemStore) Leaves() domain.LeaveRepository         { return memLeaves{s} }
func (s *MemStore) Audit() domain.AuditRepository          { return memAudit{s} }

type snapshot struct {
	employees  map[string]domain.Employee
	projects   map[string]domain.Project
	timesheets map[string]domain.Timesheet
	deleted    map[string]time.Time
	leaves     map[string]domain.Leave
	balances   map[string]domain.LeaveBalance
	audit      []domain.AuditEntry
}

func (s *MemStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		employees:  make(map[string]domain.Employee, len(s.employees)),
		projects:   make(map[string]domain.Project, len(s.projects)),
		timesheets: make(map[string]domain.Timesheet, len(s.timesheets)),
		deleted:    make(map[string]time.Time, len(s.deleted)),
		leaves:     make(map[string]domain.Leave, len(s.leaves)),
		balances:   make(map[string]domain.LeaveBalance, len(s.balances)),
		audit:      append([]domain.AuditEntry(nil), s.audit...),
	}
	for k, v := range s.employees {
		snap.employees[k] = v
	}
	for k, v := range s.projects {
		snap.projects[k] = v
	}
	for k, v := range s.timesheets {
		snap.timesheets[k] = cloneTimesheet(v)
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	for k, v := range s.leaves {
		snap.leaves[k] = v
	}
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	return snap
}

func (s *MemStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.projects = snap.projects
	s.timesheets = snap.timesheets
	s.deleted = snap.deleted
	s.leaves = snap.leaves
	s.balances = snap.balances
	s.audit = snap.audit
}

// WithinTx runs fn exclusively and undoes its writes when it fails.
func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// AuditEntries returns a copy of everything written to the audit table.
func (s *MemStore) AuditEntries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

// TimesheetCount returns the number of live timesheets.
func (s *MemStore) TimesheetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timesheets)
}

func cloneTimesheet(ts domain.Timesheet) domain.Timesheet {
	ts.Rows = append([]domain.TimesheetRow(nil), ts.Rows...)
	return ts
}

// ==================== EMPLOYEES ====================

type memEmployees struct{ s *MemStore }

func (r memEmployees) Create(_ context.Context, e *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[e.ID]; ok {
		return &domain.ConflictError{Message: "record already exists"}
	}
	for _, other := range r.s.employees {
		if strings.EqualFold(other.Email, e.Email) {
			return &domain.ConflictError{Message: "an employee with this email already exists"}
		}
		if other.EmployeeCode == e.EmployeeCode {
			return &domain.ConflictError{Message: "an employee with this code already exists"}
		}
	}
	r.s.employees[e.ID] = *e
	return nil
}

func (r memEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, domain.ErrNotFound)
	}
	return &e, nil
}

func (r memEmployees) Update(_ context.Context, e *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[e.ID]; !ok {
		return fmt.Errorf("employee %s: %w", e.ID, domain.ErrNotFound)
	}
	r.s.employees[e.ID] = *e
	return nil
}

func (r memEmployees) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[id]; !ok {
		return fmt.Errorf("employee %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.employees, id)
	return nil
}

func (r memEmployees) List(_ context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Employee
	for _, e := range r.s.employees {
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r memEmployees) ListSubordinates(_ context.Context, managerID string) ([]domain.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Employee
	for _, e := range r.s.employees {
		if e.IsActive && e.ReportingManagerID != nil && *e.ReportingManagerID == managerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

// ==================== PROJECTS ====================

type memProjects struct{ s *MemStore }

func (r memProjects) Create(_ context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; ok {
		return &domain.ConflictError{Message: "a project with this id already exists"}
	}
	r.s.projects[p.ID] = *p
	return nil
}

func (r memProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (r memProjects) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.projects[id]
	return ok, nil
}

func (r memProjects) List(_ context.Context) ([]domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ==================== TIMESHEETS ====================

type memTimesheets struct{ s *MemStore }

func (r memTimesheets) checkRows(ts *domain.Timesheet) error {
	seen := make(map[string]bool, len(ts.Rows))
	for _, row := range ts.Rows {
		key := row.ProjectID + "\x00" + row.TaskDescription
		if seen[key] {
			return &domain.ConflictError{Message: "duplicate project and task in timesheet"}
		}
		seen[key] = true
		if _, ok := r.s.projects[row.ProjectID]; !ok {
			return &domain.ValidationError{Message: "referenced record does not exist"}
		}
	}
	return nil
}

func (r memTimesheets) Create(_ context.Context, ts *domain.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.timesheets {
		if other.EmployeeID == ts.EmployeeID && other.WeekStart.Equal(ts.WeekStart) {
			return &domain.ConflictError{Message: "a timesheet for this week already exists"}
		}
	}
	if err := r.checkRows(ts); err != nil {
		return err
	}
	for i := range ts.Rows {
		ts.Rows[i].TimesheetID = ts.ID
	}
	r.s.timesheets[ts.ID] = cloneTimesheet(*ts)
	return nil
}

func (r memTimesheets) GetByID(_ context.Context, id string) (*domain.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts, ok := r.s.timesheets[id]
	if !ok {
		return nil, fmt.Errorf("timesheet %s: %w", id, domain.ErrNotFound)
	}
	out := cloneTimesheet(ts)
	return &out, nil
}

func (r memTimesheets) GetForUpdate(ctx context.Context, id string) (*domain.Timesheet, error) {
	return r.GetByID(ctx, id)
}

func (r memTimesheets) Update(_ context.Context, ts *domain.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailTimesheetUpdate; err != nil {
		r.s.FailTimesheetUpdate = nil
		return err
	}
	stored, ok := r.s.timesheets[ts.ID]
	if !ok {
		return fmt.Errorf("timesheet %s: %w", ts.ID, domain.ErrNotFound)
	}
	rows := stored.Rows
	stored = cloneTimesheet(*ts)
	stored.Rows = rows
	r.s.timesheets[ts.ID] = stored
	return nil
}

func (r memTimesheets) ReplaceRows(_ context.Context, ts *domain.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.timesheets[ts.ID]
	if !ok {
		return fmt.Errorf("timesheet %s: %w", ts.ID, domain.ErrNotFound)
	}
	if err := r.checkRows(ts); err != nil {
		return err
	}
	for i := range ts.Rows {
		ts.Rows[i].TimesheetID = ts.ID
	}
	stored.Rows = append([]domain.TimesheetRow(nil), ts.Rows...)
	r.s.timesheets[ts.ID] = stored
	return nil
}

func (r memTimesheets) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.timesheets[id]; !ok {
		return fmt.Errorf("timesheet %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.timesheets, id)
	r.s.deleted[id] = at
	return nil
}

func (r memTimesheets) List(_ context.Context, filter domain.TimesheetFilter) ([]domain.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var allowed map[string]bool
	if filter.EmployeeIDs != nil {
		allowed = make(map[string]bool, len(filter.EmployeeIDs))
		for _, id := range filter.EmployeeIDs {
			allowed[id] = true
		}
	}

	var out []domain.Timesheet
	for _, ts := range r.s.timesheets {
		if allowed != nil && !allowed[ts.EmployeeID] {
			continue
		}
		if filter.Status != "" && ts.Status != filter.Status {
			continue
		}
		if filter.WeekStartFrom != nil && ts.WeekStart.Before(*filter.WeekStartFrom) {
			continue
		}
		if filter.WeekStartTo != nil && ts.WeekStart.After(*filter.WeekStartTo) {
			continue
		}
		out = append(out, cloneTimesheet(ts))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WeekStart.Equal(out[j].WeekStart) {
			return out[i].WeekStart.After(out[j].WeekStart)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// ==================== LEAVES ====================

type memLeaves struct{ s *MemStore }

func (r memLeaves) Create(_ context.Context, l *domain.Leave) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leaves[l.ID]; ok {
		return &domain.ConflictError{Message: "record already exists"}
	}
	if _, ok := r.s.employees[l.EmployeeID]; !ok {
		return &domain.ValidationError{Message: "referenced record does not exist"}
	}
	r.s.leaves[l.ID] = *l
	return nil
}

func (r memLeaves) GetByID(_ context.Context, id string) (*domain.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leaves[id]
	if !ok {
		return nil, fmt.Errorf("leave %s: %w", id, domain.ErrNotFound)
	}
	return &l, nil
}

func (r memLeaves) GetForUpdate(ctx context.Context, id string) (*domain.Leave, error) {
	return r.GetByID(ctx, id)
}

func (r memLeaves) Update(_ context.Context, l *domain.Leave) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leaves[l.ID]; !ok {
		return fmt.Errorf("leave %s: %w", l.ID, domain.ErrNotFound)
	}
	r.s.leaves[l.ID] = *l
	return nil
}

func (r memLeaves) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leaves[id]; !ok {
		return fmt.Errorf("leave %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.leaves, id)
	r.s.deleted[id] = at
	return nil
}

func (r memLeaves) List(_ context.Context, filter domain.LeaveFilter) ([]domain.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Leave
	for _, l := range r.s.leaves {
		if filter.EmployeeIDs != nil && !contains(filter.EmployeeIDs, l.EmployeeID) {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r memLeaves) GetBalance(_ context.Context, employeeID string) (*domain.LeaveBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.balances[employeeID]
	if !ok {
		return nil, fmt.Errorf("leave balance of %s: %w", employeeID, domain.ErrNotFound)
	}
	return &b, nil
}

func (r memLeaves) SaveBalance(_ context.Context, b *domain.LeaveBalance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.balances[b.EmployeeID] = *b
	return nil
}

// ==================== AUDIT ====================

type memAudit struct{ s *MemStore }

func (r memAudit) Insert(_ context.Context, e *domain.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *e)
	return nil
}

func (r memAudit) ListByEntity(_ context.Context, entity, entityID string) ([]domain.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range r.s.audit {
		if e.Entity == entity && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
