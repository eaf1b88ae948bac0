package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/leave"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/service/serviceutils"
	"github.com/shopspring/decimal"
)

// LeaveHandler handles HTTP requests for leaves
type LeaveHandler struct {
	svc *service.LeaveService
	now func() time.Time
}

// NewLeaveHandler creates a new LeaveHandler
func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{svc: svc, now: time.Now}
}

// Register mounts the leave routes on g.
func (h *LeaveHandler) Register(g *echo.Group) {
	g.POST("", h.ApplyHandler)
	g.GET("/mine", h.ListMineHandler)
	g.GET("/team", h.ListTeamHandler)
	g.GET("/balance", h.BalanceHandler)
	g.GET("/holidays", h.HolidaysHandler)
	g.GET("/:id", h.GetHandler)
	g.DELETE("/:id", h.DeleteHandler)
	g.POST("/:id/approve", h.ApproveHandler)
	g.POST("/:id/reject", h.RejectHandler)
}

// ApplyLeaveRequest is the body of POST /leaves.
type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// RejectLeaveRequest is the body of POST /leaves/:id/reject.
type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

// LeaveResponse is a leave as returned by the API.
type LeaveResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	LeaveType       string          `json:"leave_type"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	NumberOfDays    decimal.Decimal `json:"number_of_days"`
	Reason          string          `json:"reason,omitempty"`
	Status          string          `json:"status"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// HolidayResponse is one company holiday.
type HolidayResponse struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func leaveResponse(l *domain.Leave) LeaveResponse {
	return LeaveResponse{
		ID:              l.ID,
		EmployeeID:      l.EmployeeID,
		LeaveType:       string(l.LeaveType),
		StartDate:       l.StartDate.Format(dateLayout),
		EndDate:         l.EndDate.Format(dateLayout),
		NumberOfDays:    l.NumberOfDays,
		Reason:          l.Reason,
		Status:          string(l.Status),
		ApprovedBy:      l.ApprovedBy,
		ApprovedAt:      l.ApprovedAt,
		RejectedAt:      l.RejectedAt,
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt,
	}
}

func leaveResponses(list []domain.Leave) []LeaveResponse {
	out := make([]LeaveResponse, len(list))
	for i := range list {
		out[i] = leaveResponse(&list[i])
	}
	return out
}

func (h *LeaveHandler) ApplyHandler(c echo.Context) error {
	var req ApplyLeaveRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid request body", err)
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid request body", err)
	}

	l, err := h.svc.Apply(c.Request().Context(), callerFrom(c), leave.ApplyInput{
		LeaveType: req.LeaveType,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to apply for leave", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Leave applied successfully", leaveResponse(l))
}

func (h *LeaveHandler) GetHandler(c echo.Context) error {
	l, err := h.svc.Get(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to get leave", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Leave retrieved successfully", leaveResponse(l))
}

func (h *LeaveHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), callerFrom(c), c.Param("id")); err != nil {
		return serviceutils.ResponseFromError(c, "Failed to delete leave", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Leave deleted successfully", nil)
}

func (h *LeaveHandler) ApproveHandler(c echo.Context) error {
	l, err := h.svc.Approve(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to approve leave", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Leave approved successfully", leaveResponse(l))
}

func (h *LeaveHandler) RejectHandler(c echo.Context) error {
	var req RejectLeaveRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	l, err := h.svc.Reject(c.Request().Context(), callerFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to reject leave", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Leave rejected successfully", leaveResponse(l))
}

func (h *LeaveHandler) ListMineHandler(c echo.Context) error {
	filter, err := leaveFilter(c)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid filter", err)
	}
	list, err := h.svc.ListMine(c.Request().Context(), callerFrom(c), filter)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list leaves", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Leaves listed successfully", leaveResponses(list))
}

func (h *LeaveHandler) ListTeamHandler(c echo.Context) error {
	filter, err := leaveFilter(c)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid filter", err)
	}
	list, err := h.svc.ListTeam(c.Request().Context(), callerFrom(c), filter)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list team leaves", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Team leaves listed successfully", leaveResponses(list))
}

func (h *LeaveHandler) BalanceHandler(c echo.Context) error {
	b, err := h.svc.Balance(c.Request().Context(), callerFrom(c))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to get leave balance", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Leave balance retrieved successfully", b)
}

// HolidaysHandler serves GET /leaves/holidays?year=, defaulting to this year.
func (h *LeaveHandler) HolidaysHandler(c echo.Context) error {
	year, err := intParam(c, "year", h.now().Year())
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid year", err)
	}
	holidays, err := h.svc.Holidays(year)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid year", err)
	}
	out := make([]HolidayResponse, len(holidays))
	for i, hd := range holidays {
		out[i] = HolidayResponse{Date: hd.Date.Format(dateLayout), Name: hd.Name}
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Holidays retrieved successfully", out)
}

func leaveFilter(c echo.Context) (domain.LeaveFilter, error) {
	var (
		f   domain.LeaveFilter
		err error
	)
	if s := c.QueryParam("status"); s != "" {
		f.Status = domain.LeaveStatus(s)
		if !f.Status.Valid() {
			return f, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
		}
	}
	if f.Limit, err = intParam(c, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(c, "offset", 0); err != nil {
		return f, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, &domain.ValidationError{Field: "limit", Message: "limit and offset must not be negative"}
	}
	return f, nil
}
