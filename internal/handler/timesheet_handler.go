package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/service/serviceutils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TimesheetHandler handles HTTP requests for timesheets
type TimesheetHandler struct {
	svc *service.TimesheetService
	now func() time.Time
}

// NewTimesheetHandler creates a new TimesheetHandler
func NewTimesheetHandler(svc *service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{svc: svc, now: time.Now}
}

// Register mounts the timesheet routes on g. Static paths are registered
// before /:id so they are not taken for ids.
func (h *TimesheetHandler) Register(g *echo.Group) {
	g.GET("/weeks", h.WeeksHandler)
	g.POST("", h.CreateHandler)
	g.GET("/mine", h.ListMineHandler)
	g.GET("/team", h.ListTeamHandler)
	g.GET("/search", h.SearchHandler)
	g.GET("/export", h.ExportHandler)
	g.GET("/:id", h.GetHandler)
	g.GET("/:id/history", h.HistoryHandler)
	g.PUT("/:id", h.UpdateHandler)
	g.DELETE("/:id", h.DeleteHandler)
	g.POST("/:id/submit", h.SubmitHandler)
	g.POST("/:id/approve", h.ApproveHandler)
	g.POST("/:id/reject", h.RejectHandler)
}

func (h *TimesheetHandler) WeeksHandler(c echo.Context) error {
	year, month, err := h.yearMonth(c)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid month", err)
	}
	mw, err := h.svc.Weeks(year, month)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid month", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Weeks retrieved successfully", monthWeeksResponse(mw))
}

func (h *TimesheetHandler) CreateHandler(c echo.Context) error {
	var req CreateTimesheetRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	start, err := parseDate("week_start", req.WeekStart)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid request body", err)
	}
	end, err := parseDate("week_end", req.WeekEnd)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid request body", err)
	}

	res, err := h.svc.Create(c.Request().Context(), callerFrom(c), service.CreateInput{
		WeekStart: start,
		WeekEnd:   end,
		Rows:      rowsToDomain(req.Rows),
	})
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to create timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Timesheet created successfully", timesheetResponse(res.Timesheet))
}

func (h *TimesheetHandler) GetHandler(c echo.Context) error {
	ts, err := h.svc.Get(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to get timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet retrieved successfully", timesheetResponse(ts))
}

func (h *TimesheetHandler) HistoryHandler(c echo.Context) error {
	entries, err := h.svc.History(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to get timesheet history", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet history retrieved successfully", entries)
}

func (h *TimesheetHandler) UpdateHandler(c echo.Context) error {
	var req UpdateTimesheetRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	res, err := h.svc.Update(c.Request().Context(), callerFrom(c), c.Param("id"), rowsToDomain(req.Rows))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to update timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet updated successfully", timesheetResponse(res.Timesheet))
}

func (h *TimesheetHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), callerFrom(c), c.Param("id")); err != nil {
		return serviceutils.ResponseFromError(c, "Failed to delete timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet deleted successfully", nil)
}

func (h *TimesheetHandler) SubmitHandler(c echo.Context) error {
	ts, err := h.svc.Submit(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to submit timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet submitted successfully", timesheetResponse(ts))
}

func (h *TimesheetHandler) ApproveHandler(c echo.Context) error {
	ts, err := h.svc.Approve(c.Request().Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to approve timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet approved successfully", timesheetResponse(ts))
}

func (h *TimesheetHandler) RejectHandler(c echo.Context) error {
	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	ts, err := h.svc.Reject(c.Request().Context(), callerFrom(c), c.Param("id"), req.RejectionReason)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to reject timesheet", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheet rejected successfully", timesheetResponse(ts))
}

func (h *TimesheetHandler) ListMineHandler(c echo.Context) error {
	filter, err := timesheetFilter(c)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid filter", err)
	}
	list, err := h.svc.ListMine(c.Request().Context(), callerFrom(c), filter)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list timesheets", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheets listed successfully", timesheetResponses(list))
}

func (h *TimesheetHandler) ListTeamHandler(c echo.Context) error {
	filter, err := timesheetFilter(c)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid filter", err)
	}
	list, err := h.svc.ListTeam(c.Request().Context(), callerFrom(c), filter)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list team timesheets", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Team timesheets listed successfully", timesheetResponses(list))
}

func (h *TimesheetHandler) SearchHandler(c echo.Context) error {
	list, err := h.svc.Search(c.Request().Context(), callerFrom(c), c.QueryParam("q"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to search timesheets", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Timesheets searched successfully", timesheetResponses(list))
}

func (h *TimesheetHandler) ExportHandler(c echo.Context) error {
	year, month, err := h.yearMonth(c)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Invalid month", err)
	}
	data, filename, err := h.svc.Export(c.Request().Context(), callerFrom(c), year, month)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to generate Excel file", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

// yearMonth reads ?year=&month=, defaulting to the current month.
func (h *TimesheetHandler) yearMonth(c echo.Context) (int, int, error) {
	now := h.now()
	year, err := intParam(c, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := intParam(c, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func timesheetFilter(c echo.Context) (domain.TimesheetFilter, error) {
	var (
		f   domain.TimesheetFilter
		err error
	)
	if s := c.QueryParam("status"); s != "" {
		f.Status = domain.TimesheetStatus(s)
		if !f.Status.Valid() {
			return f, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.WeekStartFrom}, {"to", &f.WeekStartTo}} {
		if v := c.QueryParam(p.name); v != "" {
			d, err := parseDate(p.name, v)
			if err != nil {
				return f, err
			}
			*p.dst = &d
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

func intParam(c echo.Context, name string, fallback int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Message: fmt.Sprintf("expected an integer, got %q", v)}
	}
	return n, nil
}
