package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/locvowork/hrms/internal/database"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/repository/builder"
)

var auditColumns = []string{
	"id", "actor_id", "action", "entity", "entity_id", "metadata", "ip_address", "user_agent", "timestamp",
}

// AuditRepository writes audit entries into audit_logs.
type AuditRepository struct {
	db database.DBTX
}

var _ domain.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db database.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one entry. Metadata is serialized as JSONB.
func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	meta := []byte("{}")
	if len(e.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("encoding audit metadata: %w", err)
		}
	}

	query, args := builder.NewSQLBuilder().
		Insert("audit_logs", auditColumns...).
		Values(e.ID, e.ActorID, e.Action, e.Entity, e.EntityID, string(meta), e.IPAddress, e.UserAgent, e.Timestamp).
		Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "inserting audit entry")
	}
	return nil
}

// ListByEntity returns the history of one entity, oldest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditEntry, error) {
	query, args := builder.NewSQLBuilder().
		Select(auditColumns...).
		From("audit_logs").
		Where("entity = ?", entity).
		Where("entity_id = ?", entityID).
		OrderBy("timestamp").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e    domain.AuditEntry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &meta, &e.IPAddress, &e.UserAgent, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decoding audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return entries, nil
}
