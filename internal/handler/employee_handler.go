package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/service/serviceutils"
)

type EmployeeHandler struct {
	svc service.EmployeeService
}

func NewEmployeeHandler(svc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// Register mounts the employee routes. Reads are open to every employee,
// writes need an HR or system admin role.
func (h *EmployeeHandler) Register(g *echo.Group) {
	admin := RequireRole(domain.RoleHRUser, domain.RoleSystemAdmin)

	g.GET("", h.ListHandler)
	g.GET("/:id", h.GetHandler)
	g.GET("/:id/subordinates", h.SubordinatesHandler)
	g.POST("", h.CreateHandler, admin)
	g.PUT("/:id", h.UpdateHandler, admin)
	g.DELETE("/:id", h.DeleteHandler, admin)
}

func (h *EmployeeHandler) CreateHandler(c echo.Context) error {
	var req domain.Employee
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.svc.Create(c.Request().Context(), &req); err != nil {
		return serviceutils.ResponseFromError(c, "Failed to create employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Employee created successfully", req)
}

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	emp, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to get employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee retrieved successfully", emp)
}

func (h *EmployeeHandler) UpdateHandler(c echo.Context) error {
	var req domain.Employee
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	req.ID = c.Param("id")

	if err := h.svc.Update(c.Request().Context(), &req); err != nil {
		return serviceutils.ResponseFromError(c, "Failed to update employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee updated successfully", req)
}

func (h *EmployeeHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return serviceutils.ResponseFromError(c, "Failed to delete employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee deleted successfully", nil)
}

func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	filter := domain.EmployeeFilter{
		Department: c.QueryParam("department"),
		Limit:      limit,
		Offset:     offset,
	}

	employees, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list employees", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employees listed successfully", employees)
}

func (h *EmployeeHandler) SubordinatesHandler(c echo.Context) error {
	reports, err := h.svc.Subordinates(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list subordinates", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Subordinates listed successfully", reports)
}
