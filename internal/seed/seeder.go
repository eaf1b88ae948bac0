package seed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/logger"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/timesheet"
	"github.com/locvowork/hrms/pkg/dataflow"
	"github.com/shopspring/decimal"
)

const rejectionReason = "Please split meeting time across the projects it belongs to."

// ProjectBatcher inserts many projects at once, skipping ones that exist.
type ProjectBatcher interface {
	BatchCreate(ctx context.Context, projects []domain.Project) error
}

// Stats counts what a Seed run wrote.
type Stats struct {
	Employees  int
	Projects   int
	Timesheets int
	Submitted  int
	Approved   int
	Rejected   int
}

type Seeder struct {
	store      domain.Store
	timesheets *service.TimesheetService
	projects   ProjectBatcher
	now        func() time.Time
	rng        *rand.Rand
	workers    int
}

type Option func(*Seeder)

// WithProjectBatcher inserts projects through b instead of one by one.
func WithProjectBatcher(b ProjectBatcher) Option {
	return func(s *Seeder) { s.projects = b }
}

// WithRandSeed makes the generated hours reproducible.
func WithRandSeed(seed int64) Option {
	return func(s *Seeder) { s.rng = rand.New(rand.NewSource(seed)) }
}

func WithWorkers(n int) Option {
	return func(s *Seeder) { s.workers = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

func NewSeeder(store domain.Store, timesheets *service.TimesheetService, opts ...Option) *Seeder {
	s := &Seeder{
		store:      store,
		timesheets: timesheets,
		now:        func() time.Time { return time.Now().UTC() },
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		workers:    4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed writes the fixture's employees and projects, then one timesheet per
// employee for every week of the given month. Records that already exist
// are left alone, so running it twice is harmless.
func (s *Seeder) Seed(ctx context.Context, f *Fixture, year int, month time.Month) (*Stats, error) {
	start := s.now()
	stats := &Stats{}

	employees, err := s.seedEmployees(ctx, f, stats)
	if err != nil {
		return stats, err
	}
	projects, err := s.seedProjects(ctx, f, stats)
	if err != nil {
		return stats, err
	}

	plans := s.planTimesheets(employees, projects, f.Tasks, timesheet.PartitionMonth(year, month))

	var (
		errOnce  sync.Once
		firstErr error
	)
	applied := dataflow.Map(ctx, dataflow.From(ctx, plans...), func(p plan) (domain.TimesheetStatus, error) {
		return s.apply(ctx, p)
	}, dataflow.WithWorkers(s.workers), dataflow.WithErrorHandler(func(err error) bool {
		errOnce.Do(func() { firstErr = err })
		return true
	}))
	created := dataflow.Filter(ctx, applied, func(st domain.TimesheetStatus) bool { return st != "" })
	err = dataflow.ForEach(ctx, created, func(st domain.TimesheetStatus) error {
		stats.Timesheets++
		switch st {
		case domain.TimesheetSubmitted:
			stats.Submitted++
		case domain.TimesheetApproved:
			stats.Approved++
		case domain.TimesheetRejected:
			stats.Rejected++
		}
		return nil
	})
	if err == nil {
		err = firstErr
	}
	if err != nil {
		return stats, fmt.Errorf("seed timesheets: %w", err)
	}

	logger.InfoLog(ctx, "seeded %d employees, %d projects, %d timesheets in %v",
		stats.Employees, stats.Projects, stats.Timesheets, s.now().Sub(start))
	return stats, nil
}

// seedEmployees inserts managers before their reports.
func (s *Seeder) seedEmployees(ctx context.Context, f *Fixture, stats *Stats) ([]domain.Employee, error) {
	now := s.now()
	byCode := make(map[string]EmployeeSeed, len(f.Employees))
	for _, e := range f.Employees {
		byCode[e.Code] = e
	}

	done := make(map[string]bool, len(f.Employees))
	var out []domain.Employee
	var insert func(code string, depth int) error
	insert = func(code string, depth int) error {
		if done[code] {
			return nil
		}
		if depth > len(f.Employees) {
			return fmt.Errorf("seed employee %s: reporting line loops", code)
		}
		seed := byCode[code]
		if seed.Manager != "" {
			if err := insert(seed.Manager, depth+1); err != nil {
				return err
			}
		}
		emp, err := seed.toDomain(now)
		if err != nil {
			return err
		}
		if len(emp.Roles) == 0 {
			emp.Roles = []domain.Role{domain.RoleEmployee}
		}
		emp.IsActive = true
		emp.CreatedAt, emp.UpdatedAt = now, now

		err = s.store.Employees().Create(ctx, &emp)
		switch {
		case domain.IsConflict(err):
			logger.DebugLog(ctx, "employee %s already seeded", code)
		case err != nil:
			return fmt.Errorf("seed employee %s: %w", code, err)
		default:
			stats.Employees++
		}
		done[code] = true
		out = append(out, emp)
		return nil
	}

	for _, e := range f.Employees {
		if err := insert(e.Code, 0); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Seeder) seedProjects(ctx context.Context, f *Fixture, stats *Stats) ([]domain.Project, error) {
	now := s.now()
	projects := make([]domain.Project, 0, len(f.Projects))
	for _, p := range f.Projects {
		projects = append(projects, p.toDomain(now))
	}

	if s.projects != nil {
		if err := s.projects.BatchCreate(ctx, projects); err != nil {
			return nil, fmt.Errorf("seed projects: %w", err)
		}
		stats.Projects = len(projects)
		return projects, nil
	}

	for i := range projects {
		err := s.store.Projects().Create(ctx, &projects[i])
		if domain.IsConflict(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed project %s: %w", projects[i].Name, err)
		}
		stats.Projects++
	}
	return projects, nil
}

// plan is one timesheet to create and the state it should end in.
type plan struct {
	owner   domain.Employee
	week    domain.WeekSegment
	rows    []domain.TimesheetRow
	outcome domain.TimesheetStatus
}

// planTimesheets draws all random choices up front so the concurrent
// writers never touch the generator.
func (s *Seeder) planTimesheets(employees []domain.Employee, projects []domain.Project, tasks []string, weeks []domain.WeekSegment) []plan {
	var active []domain.Project
	for _, p := range projects {
		if p.Status == domain.ProjectActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 || len(tasks) == 0 {
		return nil
	}

	outcomes := []domain.TimesheetStatus{
		domain.TimesheetDraft, domain.TimesheetSubmitted, domain.TimesheetApproved, domain.TimesheetRejected,
	}
	var plans []plan
	for _, emp := range employees {
		for _, w := range weeks {
			rows := s.randomRows(w, active, tasks)
			if len(rows) == 0 {
				continue
			}
			outcome := outcomes[s.rng.Intn(len(outcomes))]
			if emp.ReportingManagerID == nil && outcome != domain.TimesheetDraft {
				outcome = domain.TimesheetSubmitted
			}
			plans = append(plans, plan{owner: emp, week: w, rows: rows, outcome: outcome})
		}
	}
	return plans
}

// randomRows books six to eight hours on each weekday of the week, split
// over one or two projects.
func (s *Seeder) randomRows(w domain.WeekSegment, projects []domain.Project, tasks []string) []domain.TimesheetRow {
	n := 1
	if len(projects) > 1 && s.rng.Intn(2) == 0 {
		n = 2
	}
	rows := make([]domain.TimesheetRow, n)
	for i, idx := range s.rng.Perm(len(projects))[:n] {
		rows[i] = domain.TimesheetRow{
			ProjectID:       projects[idx].ID,
			TaskDescription: tasks[s.rng.Intn(len(tasks))],
		}
		for d := range rows[i].Hours {
			rows[i].Hours[d] = decimal.Zero
		}
	}

	booked := false
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		day := d.Weekday()
		if day == time.Saturday || day == time.Sunday {
			continue
		}
		// half-hour steps between 6 and 8
		total := decimal.New(int64(12+s.rng.Intn(5)), 0).Div(decimal.NewFromInt(2))
		if n == 1 {
			rows[0].Hours[day] = total
		} else {
			first := decimal.NewFromInt(int64(1 + s.rng.Intn(5)))
			rows[0].Hours[day] = first
			rows[1].Hours[day] = total.Sub(first)
		}
		booked = true
	}
	if !booked {
		return nil
	}
	return rows
}

// apply creates the timesheet and walks it to its planned state. It
// returns "" when the week was already seeded.
func (s *Seeder) apply(ctx context.Context, p plan) (domain.TimesheetStatus, error) {
	owner := identityOf(p.owner)
	res, err := s.timesheets.Create(ctx, owner, service.CreateInput{WeekStart: p.week.Start, WeekEnd: p.week.End, Rows: p.rows})
	if domain.IsConflict(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("timesheet for %s week %s: %w", p.owner.EmployeeCode, p.week.Start.Format("2006-01-02"), err)
	}
	id := res.Timesheet.ID
	if p.outcome == domain.TimesheetDraft {
		return domain.TimesheetDraft, nil
	}

	if _, err := s.timesheets.Submit(ctx, owner, id); err != nil {
		return "", err
	}
	if p.outcome == domain.TimesheetSubmitted {
		return domain.TimesheetSubmitted, nil
	}

	manager := domain.Identity{EmployeeID: *p.owner.ReportingManagerID, Roles: []domain.Role{domain.RoleReportingManager}}
	if p.outcome == domain.TimesheetApproved {
		_, err = s.timesheets.Approve(ctx, manager, id)
	} else {
		_, err = s.timesheets.Reject(ctx, manager, id, rejectionReason)
	}
	if err != nil {
		return "", err
	}
	return p.outcome, nil
}

func identityOf(e domain.Employee) domain.Identity {
	return domain.Identity{EmployeeID: e.ID, Roles: e.Roles, ReportingManagerID: e.ReportingManagerID}
}
