package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/locvowork/hrms/internal/domain"
)

const auditKind = "AuditLog"

// auditRecord is the Datastore shape of domain.AuditEntry. Metadata is kept
// as a JSON string since Datastore has no free-form map property.
type auditRecord struct {
	ActorID   string
	Action    string
	Entity    string
	EntityID  string
	Metadata  string `datastore:",noindex"`
	IPAddress string
	UserAgent string `datastore:",noindex"`
	Timestamp time.Time
}

// DatastoreClient wraps the cloud datastore client and mirrors audit entries.
type DatastoreClient struct {
	client *datastore.Client
}

var _ domain.AuditSink = (*DatastoreClient)(nil)

// NewDatastoreClient connects to the Datastore of projectID.
func NewDatastoreClient(ctx context.Context, projectID string) (*DatastoreClient, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore client: %w", err)
	}
	return &DatastoreClient{client: client}, nil
}

// Record stores one audit entry keyed by its ID.
func (dc *DatastoreClient) Record(ctx context.Context, entry domain.AuditEntry) error {
	if dc == nil || dc.client == nil {
		return fmt.Errorf("datastore client is nil")
	}

	rec, err := toAuditRecord(entry)
	if err != nil {
		return err
	}
	key := datastore.NameKey(auditKind, entry.ID, nil)
	if _, err := dc.client.Put(ctx, key, rec); err != nil {
		return fmt.Errorf("saving audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// BatchRecord stores several audit entries in one call.
func (dc *DatastoreClient) BatchRecord(ctx context.Context, entries []domain.AuditEntry) error {
	if dc == nil || dc.client == nil {
		return fmt.Errorf("datastore client is nil")
	}
	if len(entries) == 0 {
		return nil
	}

	keys := make([]*datastore.Key, len(entries))
	recs := make([]*auditRecord, len(entries))
	for i, e := range entries {
		rec, err := toAuditRecord(e)
		if err != nil {
			return err
		}
		keys[i] = datastore.NameKey(auditKind, e.ID, nil)
		recs[i] = rec
	}

	_, err := dc.client.PutMulti(ctx, keys, recs)
	return err
}

// ListByEntity returns the mirrored history of one entity, oldest first.
func (dc *DatastoreClient) ListByEntity(ctx context.Context, entity, entityID string) ([]domain.AuditEntry, error) {
	if dc == nil || dc.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}

	var recs []auditRecord
	q := datastore.NewQuery(auditKind).
		FilterField("Entity", "=", entity).
		FilterField("EntityID", "=", entityID).
		Order("Timestamp")

	keys, err := dc.client.GetAll(ctx, q, &recs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AuditEntry, len(recs))
	for i, r := range recs {
		out[i] = domain.AuditEntry{
			ID:        keys[i].Name,
			ActorID:   r.ActorID,
			Action:    r.Action,
			Entity:    r.Entity,
			EntityID:  r.EntityID,
			IPAddress: r.IPAddress,
			UserAgent: r.UserAgent,
			Timestamp: r.Timestamp,
		}
		if r.Metadata != "" {
			_ = json.Unmarshal([]byte(r.Metadata), &out[i].Metadata)
		}
	}
	return out, nil
}

// Close releases the underlying connection.
func (dc *DatastoreClient) Close() error {
	if dc == nil || dc.client == nil {
		return nil
	}
	return dc.client.Close()
}

func toAuditRecord(e domain.AuditEntry) (*auditRecord, error) {
	meta := []byte("{}")
	if len(e.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return nil, fmt.Errorf("encoding audit metadata: %w", err)
		}
	}
	return &auditRecord{
		ActorID:   e.ActorID,
		Action:    e.Action,
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Metadata:  string(meta),
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		Timestamp: e.Timestamp,
	}, nil
}
