package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/logger"
	"github.com/locvowork/hrms/internal/service"
	"github.com/locvowork/hrms/internal/service/serviceutils"
)

// ProjectHandler handles HTTP requests for projects
type ProjectHandler struct {
	projectService *service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Register mounts the project routes. Creating projects needs a project
// manager, HR or system admin role.
func (ph *ProjectHandler) Register(g *echo.Group) {
	g.GET("", ph.GetAllProjects)
	g.GET("/:id", ph.GetProjectByID)
	g.POST("", ph.CreateProject, RequireRole(domain.RoleProjectManager, domain.RoleHRUser, domain.RoleSystemAdmin))
}

// GetAllProjects handles GET /api/v1/projects
func (ph *ProjectHandler) GetAllProjects(c echo.Context) error {
	projects, err := ph.projectService.GetAllProjects(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to list projects", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Projects listed successfully", projects)
}

// GetProjectByID handles GET /api/v1/projects/:id
func (ph *ProjectHandler) GetProjectByID(c echo.Context) error {
	project, err := ph.projectService.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseFromError(c, "Failed to get project", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Project retrieved successfully", project)
}

// CreateProject handles POST /api/v1/projects
func (ph *ProjectHandler) CreateProject(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.Project
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	if err := ph.projectService.CreateProject(ctx, &req); err != nil {
		return serviceutils.ResponseFromError(c, "Failed to create project", err)
	}

	logger.InfoLog(ctx, "project %s (%s) created", req.ID, req.Name)
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Project created successfully", req)
}
