package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/hrms/internal/domain"
)

var validBillingTypes = map[string]bool{"billable": true, "non_billable": true, "internal": true}

// ProjectService handles business logic for projects
type ProjectService struct {
	store domain.Store
	now   func() time.Time
}

// NewProjectService creates a new ProjectService instance
func NewProjectService(store domain.Store, now func() time.Time) *ProjectService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ProjectService{store: store, now: now}
}

// CreateProject validates and stores a new project
func (ps *ProjectService) CreateProject(ctx context.Context, p *domain.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return &domain.ValidationError{Field: "name", Message: "project name cannot be empty"}
	}
	if p.BillingType == "" {
		p.BillingType = "billable"
	}
	if !validBillingTypes[p.BillingType] {
		return &domain.ValidationError{Field: "billing_type", Message: fmt.Sprintf("unknown billing type %q", p.BillingType)}
	}
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	switch p.Status {
	case domain.ProjectActive, domain.ProjectPaused, domain.ProjectCompleted, domain.ProjectCancelled:
	default:
		return &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown project status %q", p.Status)}
	}
	if p.StartDate.IsZero() {
		p.StartDate = ps.now().Truncate(24 * time.Hour)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return &domain.ValidationError{Field: "end_date", Message: "end date is before start date"}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = ps.now()

	return ps.store.Projects().Create(ctx, p)
}

// GetProject retrieves a project by id
func (ps *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return ps.store.Projects().GetByID(ctx, id)
}

// GetAllProjects retrieves all projects
func (ps *ProjectService) GetAllProjects(ctx context.Context) ([]domain.Project, error) {
	return ps.store.Projects().List(ctx)
}
