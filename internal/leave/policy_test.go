package leave

import (
	"testing"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.December, 3, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPolicy() *Policy {
	return NewPolicy(func() time.Time { return now })
}

var (
	managerID = "mgr"
	ownerID   = "emp"

	ownerAccess   = Access{ActorID: ownerID, View: true, Edit: true}
	managerAccess = Access{ActorID: managerID, View: true, Review: true}
	peerAccess    = Access{ActorID: "peer"}
)

func pending(t *testing.T, lt domain.LeaveType, start, end time.Time) *domain.Leave {
	t.Helper()
	l, err := newPolicy().Apply(ownerID, ApplyInput{LeaveType: string(lt), StartDate: start, EndDate: end})
	require.NoError(t, err)
	return l
}

func TestHolidays(t *testing.T) {
	h := Holidays(2025)
	require.Len(t, h, 16)
	assert.Equal(t, "New Year Day", h[0].Name)
	assert.Equal(t, day(2025, time.December, 25), h[len(h)-1].Date)
	for i := 1; i < len(h); i++ {
		assert.False(t, h[i].Date.Before(h[i-1].Date), "holidays out of order at %d", i)
	}

	assert.Len(t, Holidays(2026), len(fixedHolidays))
}

func TestWorkingDays(t *testing.T) {
	testCases := map[string]struct {
		start, end time.Time
		want       int64
	}{
		"full week":             {day(2025, 12, 1), day(2025, 12, 5), 5},
		"weekend only":          {day(2025, 12, 6), day(2025, 12, 7), 0},
		"single day":            {day(2025, 12, 3), day(2025, 12, 3), 1},
		"week with christmas":   {day(2025, 12, 22), day(2025, 12, 26), 4},
		"across the year break": {day(2025, 12, 31), day(2026, 1, 2), 2},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := WorkingDays(tc.start, tc.end)
			assert.True(t, decimal.NewFromInt(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("creates a pending leave", func(t *testing.T) {
		l := pending(t, domain.LeaveSick, day(2025, 12, 8), day(2025, 12, 10))
		assert.Equal(t, domain.LeavePending, l.Status)
		assert.Equal(t, ownerID, l.EmployeeID)
		assert.Equal(t, "3.0", l.NumberOfDays.StringFixed(1))
		assert.Equal(t, now, l.CreatedAt)
	})

	testCases := map[string]struct {
		in    ApplyInput
		field string
	}{
		"unknown type": {
			in:    ApplyInput{LeaveType: "vacation", StartDate: day(2025, 12, 8), EndDate: day(2025, 12, 8)},
			field: "leave_type",
		},
		"end before start": {
			in:    ApplyInput{LeaveType: "paid_leave", StartDate: day(2025, 12, 9), EndDate: day(2025, 12, 8)},
			field: "end_date",
		},
		"weekend only": {
			in:    ApplyInput{LeaveType: "paid_leave", StartDate: day(2025, 12, 6), EndDate: day(2025, 12, 7)},
			field: "start_date",
		},
		"longer than a year": {
			in:    ApplyInput{LeaveType: "unpaid_leave", StartDate: day(2025, 1, 1), EndDate: day(2026, 1, 1)},
			field: "end_date",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := newPolicy().Apply(ownerID, tc.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestApprove(t *testing.T) {
	t.Run("manager approves and the balance is debited", func(t *testing.T) {
		l := pending(t, domain.LeaveSick, day(2025, 12, 8), day(2025, 12, 10))
		b := newPolicy().DefaultBalance(ownerID)

		require.NoError(t, newPolicy().Approve(l, managerAccess, b))
		assert.Equal(t, domain.LeaveApproved, l.Status)
		require.NotNil(t, l.ApprovedBy)
		assert.Equal(t, managerID, *l.ApprovedBy)
		assert.Equal(t, "2.0", b.SickLeave.StringFixed(1))
		assert.Equal(t, "5.0", b.PaidLeave.StringFixed(1))
	})

	t.Run("insufficient balance leaves everything untouched", func(t *testing.T) {
		l := pending(t, domain.LeaveEarned, day(2025, 12, 8), day(2025, 12, 8))
		b := newPolicy().DefaultBalance(ownerID)

		var verr *domain.ValidationError
		require.ErrorAs(t, newPolicy().Approve(l, managerAccess, b), &verr)
		assert.Equal(t, "number_of_days", verr.Field)
		assert.Equal(t, domain.LeavePending, l.Status)
		assert.True(t, b.EarnedLeave.IsZero())
	})

	t.Run("unpaid leave has no balance", func(t *testing.T) {
		l := pending(t, domain.LeaveUnpaid, day(2025, 12, 8), day(2025, 12, 19))
		b := newPolicy().DefaultBalance(ownerID)

		require.NoError(t, newPolicy().Approve(l, managerAccess, b))
		assert.Equal(t, *newPolicy().DefaultBalance(ownerID), *b)
	})

	t.Run("only the reporting manager may approve", func(t *testing.T) {
		l := pending(t, domain.LeavePaid, day(2025, 12, 8), day(2025, 12, 8))
		b := newPolicy().DefaultBalance(ownerID)
		assert.True(t, domain.IsAuthorization(newPolicy().Approve(l, ownerAccess, b)))
		assert.True(t, domain.IsAuthorization(newPolicy().Approve(l, peerAccess, b)))
	})

	t.Run("a decided leave cannot be approved again", func(t *testing.T) {
		l := pending(t, domain.LeavePaid, day(2025, 12, 8), day(2025, 12, 8))
		b := newPolicy().DefaultBalance(ownerID)
		require.NoError(t, newPolicy().Approve(l, managerAccess, b))

		var serr *domain.StateError
		require.ErrorAs(t, newPolicy().Approve(l, managerAccess, b), &serr)
		assert.Equal(t, "leave", serr.Entity)
		assert.Equal(t, string(domain.LeaveApproved), serr.Current)
		assert.Equal(t, "4.0", b.PaidLeave.StringFixed(1))
	})
}

func TestReject(t *testing.T) {
	l := pending(t, domain.LeaveCasual, day(2025, 12, 8), day(2025, 12, 8))
	assert.True(t, domain.IsAuthorization(newPolicy().Reject(l, ownerAccess, "")))

	require.NoError(t, newPolicy().Reject(l, managerAccess, "  release week  "))
	assert.Equal(t, domain.LeaveRejected, l.Status)
	assert.Equal(t, "release week", l.RejectionReason)
	require.NotNil(t, l.RejectedAt)

	assert.True(t, domain.IsState(newPolicy().Reject(l, managerAccess, "")))
}

func TestCheckDelete(t *testing.T) {
	testCases := map[string]struct {
		start  time.Time
		access Access
		check  func(error) bool
	}{
		"starts tomorrow":  {start: day(2025, 12, 4), access: ownerAccess, check: func(err error) bool { return err == nil }},
		"starts today":     {start: day(2025, 12, 3), access: ownerAccess, check: domain.IsValidation},
		"already past":     {start: day(2025, 11, 28), access: ownerAccess, check: domain.IsValidation},
		"manager may not":  {start: day(2025, 12, 4), access: managerAccess, check: domain.IsAuthorization},
		"outsider may not": {start: day(2025, 12, 4), access: peerAccess, check: domain.IsAuthorization},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			l := &domain.Leave{EmployeeID: ownerID, StartDate: tc.start, EndDate: tc.start, Status: domain.LeaveApproved}
			err := newPolicy().CheckDelete(l, tc.access)
			assert.True(t, tc.check(err), "unexpected error %v", err)
		})
	}
}

func TestRefund(t *testing.T) {
	l := pending(t, domain.LeavePaid, day(2025, 12, 8), day(2025, 12, 9))
	b := newPolicy().DefaultBalance(ownerID)

	newPolicy().Refund(l, b)
	assert.Equal(t, "5.0", b.PaidLeave.StringFixed(1), "pending leaves were never debited")

	require.NoError(t, newPolicy().Approve(l, managerAccess, b))
	assert.Equal(t, "3.0", b.PaidLeave.StringFixed(1))
	newPolicy().Refund(l, b)
	assert.Equal(t, "5.0", b.PaidLeave.StringFixed(1))
}

func TestResolveAccess(t *testing.T) {
	mgr := "m1"
	owner := domain.Employee{ID: "e1", ReportingManagerID: &mgr}

	testCases := map[string]struct {
		caller domain.Identity
		want   Access
	}{
		"owner":   {domain.Identity{EmployeeID: "e1"}, Access{ActorID: "e1", View: true, Edit: true}},
		"manager": {domain.Identity{EmployeeID: "m1"}, Access{ActorID: "m1", View: true, Review: true}},
		"hr":      {domain.Identity{EmployeeID: "h1", Roles: []domain.Role{domain.RoleHRUser}}, Access{ActorID: "h1", View: true}},
		"peer":    {domain.Identity{EmployeeID: "p1"}, Access{ActorID: "p1"}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveAccess(tc.caller, owner))
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := domain.Leave{StartDate: day(2025, 12, 8), EndDate: day(2025, 12, 10), Status: domain.LeavePending}
	b := domain.Leave{StartDate: day(2025, 12, 10), EndDate: day(2025, 12, 12), Status: domain.LeaveApproved}
	c := domain.Leave{StartDate: day(2025, 12, 11), EndDate: day(2025, 12, 12), Status: domain.LeavePending}

	assert.True(t, Overlaps(a, b))
	assert.False(t, Overlaps(a, c))

	b.Status = domain.LeaveRejected
	assert.False(t, Overlaps(a, b))
}
