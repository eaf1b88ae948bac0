package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/leave"
	"github.com/locvowork/hrms/internal/logger"
)

const auditEntityLeave = "leave"

// LeaveService runs leave use cases on top of leave.Policy. Writes happen in
// one transaction together with their audit entry.
type LeaveService struct {
	store  domain.Store
	policy *leave.Policy
	mirror domain.AuditSink
	now    func() time.Time
	newID  func() string
}

// LeaveOption configures a LeaveService.
type LeaveOption func(*LeaveService)

// WithLeaveClock replaces the wall clock.
func WithLeaveClock(now func() time.Time) LeaveOption {
	return func(s *LeaveService) { s.now = now }
}

// WithLeaveIDGenerator replaces uuid generation.
func WithLeaveIDGenerator(fn func() string) LeaveOption {
	return func(s *LeaveService) { s.newID = fn }
}

// WithLeaveAuditMirror sends committed audit entries to sink as well.
func WithLeaveAuditMirror(sink domain.AuditSink) LeaveOption {
	return func(s *LeaveService) { s.mirror = sink }
}

func NewLeaveService(store domain.Store, opts ...LeaveOption) *LeaveService {
	s := &LeaveService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy = leave.NewPolicy(s.now)
	return s
}

// Apply files a pending leave for the caller. It fails with a conflict when
// the dates overlap another pending or approved leave of the caller.
func (s *LeaveService) Apply(ctx context.Context, caller domain.Identity, in leave.ApplyInput) (*domain.Leave, error) {
	l, err := s.policy.Apply(caller.EmployeeID, in)
	if err != nil {
		return nil, err
	}
	l.ID = s.newID()

	var entry domain.AuditEntry
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		existing, err := tx.Leaves().List(ctx, domain.LeaveFilter{EmployeeIDs: []string{caller.EmployeeID}})
		if err != nil {
			return err
		}
		for _, other := range existing {
			if leave.Overlaps(*l, other) {
				return &domain.ConflictError{Message: fmt.Sprintf("leave overlaps an existing %s request from %s to %s",
					other.Status, other.StartDate.Format("2006-01-02"), other.EndDate.Format("2006-01-02"))}
			}
		}
		if err := tx.Leaves().Create(ctx, l); err != nil {
			return err
		}
		entry = s.auditEntry(ctx, caller, leave.ActionApply, l)
		return tx.Audit().Insert(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}

	s.mirrorAudit(ctx, entry)
	logger.InfoLog(ctx, "leave %s applied for %s days from %s", l.ID, l.NumberOfDays.StringFixed(1), l.StartDate.Format("2006-01-02"))
	return l, nil
}

// Approve grants a pending leave and debits the owner's balance.
func (s *LeaveService) Approve(ctx context.Context, caller domain.Identity, id string) (*domain.Leave, error) {
	return s.review(ctx, caller, id, leave.ActionApprove, func(ctx context.Context, tx domain.Store, l *domain.Leave, access leave.Access) error {
		balance, err := s.loadBalance(ctx, tx, l.EmployeeID)
		if err != nil {
			return err
		}
		if err := s.policy.Approve(l, access, balance); err != nil {
			return err
		}
		return tx.Leaves().SaveBalance(ctx, balance)
	})
}

// Reject declines a pending leave.
func (s *LeaveService) Reject(ctx context.Context, caller domain.Identity, id, reason string) (*domain.Leave, error) {
	return s.review(ctx, caller, id, leave.ActionReject, func(_ context.Context, _ domain.Store, l *domain.Leave, access leave.Access) error {
		return s.policy.Reject(l, access, reason)
	})
}

type leaveMutation func(ctx context.Context, tx domain.Store, l *domain.Leave, access leave.Access) error

func (s *LeaveService) review(ctx context.Context, caller domain.Identity, id, action string, fn leaveMutation) (*domain.Leave, error) {
	var (
		l     *domain.Leave
		entry domain.AuditEntry
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		if l, err = tx.Leaves().GetForUpdate(ctx, id); err != nil {
			return err
		}
		access, err := leaveAccess(ctx, tx, caller, l.EmployeeID)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, l, access); err != nil {
			return err
		}
		if err := tx.Leaves().Update(ctx, l); err != nil {
			return err
		}
		entry = s.auditEntry(ctx, caller, action, l)
		return tx.Audit().Insert(ctx, &entry)
	})
	if err != nil {
		if domain.IsAuthorization(err) || domain.IsState(err) {
			logger.WarnLog(ctx, "leave %s %s refused: %v", id, action, err)
		}
		return nil, err
	}

	s.mirrorAudit(ctx, entry)
	logger.InfoLog(ctx, "leave %s %s by %s, now %s", l.ID, action, caller.EmployeeID, l.Status)
	return l, nil
}

// Delete withdraws a leave of the caller that starts after today. Days of
// an approved leave go back to the balance.
func (s *LeaveService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	var entry domain.AuditEntry
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		l, err := tx.Leaves().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		access, err := leaveAccess(ctx, tx, caller, l.EmployeeID)
		if err != nil {
			return err
		}
		if err := s.policy.CheckDelete(l, access); err != nil {
			return err
		}
		if l.Status == domain.LeaveApproved {
			balance, err := s.loadBalance(ctx, tx, l.EmployeeID)
			if err != nil {
				return err
			}
			s.policy.Refund(l, balance)
			if err := tx.Leaves().SaveBalance(ctx, balance); err != nil {
				return err
			}
		}
		if err := tx.Leaves().SoftDelete(ctx, id, s.now()); err != nil {
			return err
		}
		entry = s.auditEntry(ctx, caller, leave.ActionDelete, l)
		return tx.Audit().Insert(ctx, &entry)
	})
	if err != nil {
		return err
	}
	s.mirrorAudit(ctx, entry)
	return nil
}

// Get returns a leave the caller may view.
func (s *LeaveService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Leave, error) {
	l, err := s.store.Leaves().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	access, err := leaveAccess(ctx, s.store, caller, l.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CheckView(access); err != nil {
		return nil, err
	}
	return l, nil
}

// ListMine lists the caller's own leaves.
func (s *LeaveService) ListMine(ctx context.Context, caller domain.Identity, filter domain.LeaveFilter) ([]domain.Leave, error) {
	filter.EmployeeIDs = []string{caller.EmployeeID}
	return s.store.Leaves().List(ctx, filter)
}

// ListTeam lists leaves of the caller's active direct reports. With an empty
// status filter only pending leaves are returned.
func (s *LeaveService) ListTeam(ctx context.Context, caller domain.Identity, filter domain.LeaveFilter) ([]domain.Leave, error) {
	reports, err := s.store.Employees().ListSubordinates(ctx, caller.EmployeeID)
	if err != nil {
		return nil, err
	}
	filter.EmployeeIDs = make([]string, 0, len(reports))
	for _, r := range reports {
		if r.ID != caller.EmployeeID {
			filter.EmployeeIDs = append(filter.EmployeeIDs, r.ID)
		}
	}
	if len(filter.EmployeeIDs) == 0 {
		return []domain.Leave{}, nil
	}
	if filter.Status == "" {
		filter.Status = domain.LeavePending
	}
	return s.store.Leaves().List(ctx, filter)
}

// Balance returns the caller's balance, opening it with the default grant on
// first use.
func (s *LeaveService) Balance(ctx context.Context, caller domain.Identity) (*domain.LeaveBalance, error) {
	var b *domain.LeaveBalance
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		b, err = s.loadBalance(ctx, tx, caller.EmployeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Holidays lists the company holidays of year.
func (s *LeaveService) Holidays(year int) ([]domain.Holiday, error) {
	if year < 1 || year > 9999 {
		return nil, &domain.ValidationError{Field: "year", Message: "year must be between 1 and 9999"}
	}
	return leave.Holidays(year), nil
}

// loadBalance reads the balance of employeeID, storing the default one when
// none exists yet.
func (s *LeaveService) loadBalance(ctx context.Context, tx domain.Store, employeeID string) (*domain.LeaveBalance, error) {
	b, err := tx.Leaves().GetBalance(ctx, employeeID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	b = s.policy.DefaultBalance(employeeID)
	if err := tx.Leaves().SaveBalance(ctx, b); err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "opened leave balance for %s", employeeID)
	return b, nil
}

func (s *LeaveService) auditEntry(ctx context.Context, caller domain.Identity, action string, l *domain.Leave) domain.AuditEntry {
	meta := map[string]interface{}{
		"status":         string(l.Status),
		"leave_type":     string(l.LeaveType),
		"start_date":     l.StartDate.Format("2006-01-02"),
		"end_date":       l.EndDate.Format("2006-01-02"),
		"number_of_days": l.NumberOfDays.StringFixed(1),
	}
	if action == leave.ActionReject && l.RejectionReason != "" {
		meta["rejection_reason"] = l.RejectionReason
	}

	rm := requestMetaFrom(ctx)
	return domain.AuditEntry{
		ID:        s.newID(),
		ActorID:   caller.EmployeeID,
		Action:    action,
		Entity:    auditEntityLeave,
		EntityID:  l.ID,
		Metadata:  meta,
		IPAddress: rm.IPAddress,
		UserAgent: rm.UserAgent,
		Timestamp: s.now(),
	}
}

func (s *LeaveService) mirrorAudit(ctx context.Context, entry domain.AuditEntry) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Record(ctx, entry); err != nil {
		logger.WarnLog(ctx, "mirroring audit entry %s: %v", entry.ID, err)
	}
}

func leaveAccess(ctx context.Context, st domain.Store, caller domain.Identity, ownerID string) (leave.Access, error) {
	if caller.EmployeeID == ownerID {
		return leave.Access{ActorID: caller.EmployeeID, View: true, Edit: true}, nil
	}
	owner, err := st.Employees().GetByID(ctx, ownerID)
	if err != nil {
		return leave.Access{}, fmt.Errorf("loading leave owner: %w", err)
	}
	return leave.ResolveAccess(caller, *owner), nil
}
