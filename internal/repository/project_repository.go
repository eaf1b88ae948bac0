package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/repository/builder"
)

var projectColumns = []string{
	"id", "name", "client", "billing_type", "status", "start_date", "end_date", "description", "created_at",
}

// ProjectRepository handles all database operations for Project
type ProjectRepository struct {
	db database.DBTX
}

var _ domain.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new instance of ProjectRepository
func NewProjectRepository(db database.DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(s rowScanner) (*domain.Project, error) {
	var (
		p   domain.Project
		end sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Client, &p.BillingType, &p.Status, &p.StartDate, &end, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	return &p, nil
}

// Create inserts a new project into the database
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	query, args := builder.NewSQLBuilder().
		Insert("projects", projectColumns...).
		Values(p.ID, p.Name, p.Client, p.BillingType, p.Status, p.StartDate, p.EndDate, p.Description, p.CreatedAt).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "failed to create project")
	}
	return nil
}

// BatchCreate inserts projects in one statement, skipping IDs that already exist.
func (r *ProjectRepository) BatchCreate(ctx context.Context, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	b := builder.NewSQLBuilder().Insert("projects", projectColumns...)
	for _, p := range projects {
		b.Values(p.ID, p.Name, p.Client, p.BillingType, p.Status, p.StartDate, p.EndDate, p.Description, p.CreatedAt)
	}
	query, args := b.OnConflictDoNothing("id").Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to batch insert projects: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query, args := builder.NewSQLBuilder().
		Select(projectColumns...).
		From("projects").
		Where("id = ?", id).
		Build()

	p, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("project %s", id))
	}
	return p, nil
}

// Exists reports whether a project with id is stored.
func (r *ProjectRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project %s: %w", id, err)
	}
	return exists, nil
}

// List retrieves all projects
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	query, args := builder.NewSQLBuilder().
		Select(projectColumns...).
		From("projects").
		OrderBy("name").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return projects, nil
}
