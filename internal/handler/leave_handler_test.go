package handler

import (
	"net/http"
	"testing"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) applyLeave(t *testing.T, owner *domain.Employee, leaveType, start, end string) LeaveResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/leaves", owner, map[string]interface{}{
		"leave_type": leaveType,
		"start_date": start,
		"end_date":   end,
		"reason":     "family event",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var l LeaveResponse
	decode(t, rec, &l)
	return l
}

func TestLeaveLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	l := s.applyLeave(t, s.org.Alice, "paid_leave", "2025-12-08", "2025-12-10")
	assert.Equal(t, "pending", l.Status)
	assert.Equal(t, "3", l.NumberOfDays.String())

	rec := s.do(t, http.MethodPost, "/api/v1/leaves/"+l.ID+"/approve", s.org.Bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/leaves/"+l.ID+"/approve", s.org.Manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved LeaveResponse
	decode(t, rec, &approved)
	assert.Equal(t, "approved", approved.Status)

	rec = s.do(t, http.MethodPost, "/api/v1/leaves/"+l.ID+"/reject", s.org.Manager, map[string]string{"reason": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/balance", s.org.Alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var b domain.LeaveBalance
	decode(t, rec, &b)
	assert.Equal(t, "2", b.PaidLeave.String())
	assert.Equal(t, "5", b.SickLeave.String())

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/mine", s.org.Alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []LeaveResponse
	decode(t, rec, &mine)
	assert.Len(t, mine, 1)
}

func TestLeaveValidationOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/leaves", s.org.Alice, map[string]string{
		"leave_type": "sabbatical", "start_date": "2025-12-08", "end_date": "2025-12-08",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "leave_type", decode(t, rec, nil).Field)

	s.applyLeave(t, s.org.Alice, "sick_leave", "2025-12-08", "2025-12-09")
	rec = s.do(t, http.MethodPost, "/api/v1/leaves", s.org.Alice, map[string]string{
		"leave_type": "casual_leave", "start_date": "2025-12-09", "end_date": "2025-12-09",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/mine?status=cancelled", s.org.Alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaveDeleteOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	started := s.applyLeave(t, s.org.Alice, "paid_leave", "2025-12-03", "2025-12-03")
	future := s.applyLeave(t, s.org.Alice, "paid_leave", "2025-12-11", "2025-12-11")

	rec := s.do(t, http.MethodDelete, "/api/v1/leaves/"+started.ID, s.org.Alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "start_date", decode(t, rec, nil).Field)

	rec = s.do(t, http.MethodDelete, "/api/v1/leaves/"+future.ID, s.org.Alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/"+future.ID, s.org.Alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHolidaysOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/leaves/holidays", s.org.Bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var holidays []HolidayResponse
	decode(t, rec, &holidays)
	require.NotEmpty(t, holidays)
	assert.Equal(t, HolidayResponse{Date: "2025-01-01", Name: "New Year Day"}, holidays[0])

	rec = s.do(t, http.MethodGet, "/api/v1/leaves/holidays?year=abc", s.org.Bob, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
