package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/locvowork/hrms/internal/domain"
)

// RecordingSink is an AuditSink that keeps what it receives. Err, when set,
// is returned from every Record call after the entry is kept.
type RecordingSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	Err     error
}

var _ domain.AuditSink = (*RecordingSink)(nil)

func (s *RecordingSink) Record(_ context.Context, e domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.Err
}

func (s *RecordingSink) BatchRecord(_ context.Context, entries []domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *RecordingSink) Entries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.entries...)
}

// MemIndexer is a TimesheetIndexer matching queries as case-insensitive
// substrings of task descriptions.
type MemIndexer struct {
	mu   sync.Mutex
	docs map[string]domain.Timesheet
	Err  error
}

var _ domain.TimesheetIndexer = (*MemIndexer)(nil)

func NewMemIndexer() *MemIndexer {
	return &MemIndexer{docs: make(map[string]domain.Timesheet)}
}

func (m *MemIndexer) IndexTimesheet(_ context.Context, ts domain.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.docs[ts.ID] = cloneTimesheet(ts)
	return nil
}

func (m *MemIndexer) DeleteTimesheet(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.docs, id)
	return nil
}

func (m *MemIndexer) SearchTimesheets(_ context.Context, query string, employeeIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	q := strings.ToLower(query)
	var ids []string
	for id, ts := range m.docs {
		if len(employeeIDs) > 0 && !contains(employeeIDs, ts.EmployeeID) {
			continue
		}
		for _, row := range ts.Rows {
			if strings.Contains(strings.ToLower(row.TaskDescription), q) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

// Indexed reports whether id is in the index.
// ScrollTimesheetIDs returns every indexed ID in sorted order.
func (m *MemIndexer) ScrollTimesheetIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemIndexer) Indexed(id string) (domain.Timesheet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.docs[id]
	return ts, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
