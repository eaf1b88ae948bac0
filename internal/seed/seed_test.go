package seed

import (
	"context"
	"testing"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
tasks: [Development, Review]
projects:
  - name: Atlas
  - name: Beacon
    billing_type: internal
  - name: Sunset
    status: completed
employees:
  - code: E2
    first_name: Alice
    email: alice@example.com
    manager: E1
  - code: E1
    first_name: Maria
    email: maria@example.com
    joined_on: "2020-03-02"
    roles: [employee, reporting_manager]
  - code: E3
    first_name: Hana
    email: hana@example.com
    roles: [hr_user]
`

func TestParseFixture(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	assert.Len(t, f.Employees, 3)
	assert.Len(t, f.Projects, 3)
	assert.Equal(t, []string{"Development", "Review"}, f.Tasks)

	t.Run("default tasks", func(t *testing.T) {
		f, err := ParseFixture([]byte("employees: []\n"))
		require.NoError(t, err)
		assert.NotEmpty(t, f.Tasks)
	})

	t.Run("unknown manager", func(t *testing.T) {
		_, err := ParseFixture([]byte("employees:\n  - code: A\n    manager: Z\n"))
		assert.ErrorContains(t, err, "unknown code Z")
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := ParseFixture([]byte("employees:\n  - code: A\n  - code: A\n"))
		assert.ErrorContains(t, err, "used twice")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseFixture([]byte("employees:\n  - code: A\n    salary: 10\n"))
		assert.Error(t, err)
	})
}

func TestStableIDs(t *testing.T) {
	assert.Equal(t, EmployeeID("E1"), EmployeeID("E1"))
	assert.NotEqual(t, EmployeeID("E1"), EmployeeID("E2"))
	assert.Equal(t, ProjectID("Atlas"), ProjectID("atlas"))
}

func newSeeder(t *testing.T, store *testutil.MemStore) *Seeder {
	t.Helper()
	clock := testutil.FixedClock(time.Date(2025, time.December, 15, 9, 0, 0, 0, time.UTC))
	svc := service.NewTimesheetService(store, service.WithClock(clock))
	return NewSeeder(store, svc, WithClock(clock), WithRandSeed(42), WithWorkers(3))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	f, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	store := testutil.NewMemStore()
	stats, err := newSeeder(t, store).Seed(ctx, f, 2025, time.December)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Employees)
	assert.Equal(t, 3, stats.Projects)
	// December 2025 has five weeks, each with at least one weekday.
	assert.Equal(t, 15, stats.Timesheets)
	assert.Equal(t, 15, store.TimesheetCount())

	alice, err := store.Employees().GetByID(ctx, EmployeeID("E2"))
	require.NoError(t, err)
	require.NotNil(t, alice.ReportingManagerID)
	assert.Equal(t, EmployeeID("E1"), *alice.ReportingManagerID)
	assert.True(t, alice.IsActive)
	assert.Equal(t, []domain.Role{domain.RoleEmployee}, alice.Roles)

	sheets, err := store.Timesheets().List(ctx, domain.TimesheetFilter{})
	require.NoError(t, err)
	for _, ts := range sheets {
		assert.NotEqual(t, ProjectID("Sunset"), ts.Rows[0].ProjectID, "completed projects get no hours")
		for _, day := range ts.Rows[0].Hours {
			assert.True(t, day.IsPositive() || day.IsZero())
		}
		if ts.EmployeeID != EmployeeID("E2") {
			assert.Contains(t, []domain.TimesheetStatus{domain.TimesheetDraft, domain.TimesheetSubmitted}, ts.Status,
				"only employees with a manager get reviewed")
		}
		if ts.Status == domain.TimesheetRejected {
			assert.NotEmpty(t, ts.RejectionReason)
		}
	}
	assert.Equal(t, stats.Submitted+stats.Approved+stats.Rejected,
		countStatus(sheets, domain.TimesheetSubmitted, domain.TimesheetApproved, domain.TimesheetRejected))
}

func TestSeedTwiceIsHarmless(t *testing.T) {
	ctx := context.Background()
	f, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	store := testutil.NewMemStore()
	s := newSeeder(t, store)
	_, err = s.Seed(ctx, f, 2025, time.December)
	require.NoError(t, err)
	audits := len(store.AuditEntries())

	stats, err := s.Seed(ctx, f, 2025, time.December)
	require.NoError(t, err)
	assert.Zero(t, stats.Employees)
	assert.Zero(t, stats.Projects)
	assert.Zero(t, stats.Timesheets)
	assert.Equal(t, 15, store.TimesheetCount())
	assert.Len(t, store.AuditEntries(), audits)
}

type batchRecorder struct {
	calls    int
	projects []domain.Project
}

func (b *batchRecorder) BatchCreate(_ context.Context, projects []domain.Project) error {
	b.calls++
	b.projects = append(b.projects, projects...)
	return nil
}

func TestSeedProjectsInBatch(t *testing.T) {
	f, err := ParseFixture([]byte("projects:\n  - name: Atlas\n  - name: Beacon\n"))
	require.NoError(t, err)

	store := testutil.NewMemStore()
	rec := &batchRecorder{}
	clock := testutil.FixedClock(time.Date(2025, time.December, 15, 9, 0, 0, 0, time.UTC))
	s := NewSeeder(store, service.NewTimesheetService(store), WithProjectBatcher(rec), WithClock(clock))

	stats, err := s.Seed(context.Background(), f, 2025, time.December)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 2, stats.Projects)
	assert.Equal(t, "billable", rec.projects[0].BillingType)
	assert.Equal(t, domain.ProjectActive, rec.projects[1].Status)
}

func TestRandomRowsStayUnderCeiling(t *testing.T) {
	s := newSeeder(t, testutil.NewMemStore())
	projects := []domain.Project{{ID: "p1"}, {ID: "p2"}}
	week := domain.WeekSegment{
		Start: time.Date(2025, time.December, 7, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.December, 13, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 50; i++ {
		rows := s.randomRows(week, projects, []string{"Dev"})
		require.NotEmpty(t, rows)
		var totals [7]float64
		for _, r := range rows {
			for d, h := range r.Hours {
				f, _ := h.Float64()
				totals[d] += f
			}
		}
		assert.Zero(t, totals[time.Sunday])
		assert.Zero(t, totals[time.Saturday])
		for d := time.Monday; d <= time.Friday; d++ {
			assert.GreaterOrEqual(t, totals[d], 6.0)
			assert.LessOrEqual(t, totals[d], 8.0)
		}
	}

	weekend := domain.WeekSegment{Start: week.End, End: week.End}
	assert.Nil(t, s.randomRows(weekend, projects, []string{"Dev"}))
}

func countStatus(sheets []domain.Timesheet, statuses ...domain.TimesheetStatus) int {
	n := 0
	for _, ts := range sheets {
		for _, st := range statuses {
			if ts.Status == st {
				n++
			}
		}
	}
	return n
}
