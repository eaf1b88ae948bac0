package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/hrms/internal/service"
)

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	Employees  service.EmployeeService
	Timesheet  *TimesheetHandler
	Leave      *LeaveHandler
	Employee   *EmployeeHandler
	Project    *ProjectHandler
	HealthFunc func() error
}

// RegisterMiddlewares installs the request-wide middleware chain.
func RegisterMiddlewares(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestContext())
	e.Use(middleware.CORS())
}

// RegisterRoutes mounts the API. Everything under /api/v1 requires an
// identity; /healthz does not.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		if h.HealthFunc != nil {
			if err := h.HealthFunc(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1", Identity(h.Employees))
	h.Timesheet.Register(api.Group("/timesheets"))
	h.Leave.Register(api.Group("/leaves"))
	h.Employee.Register(api.Group("/employees"))
	h.Project.Register(api.Group("/projects"))
}
