package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/common/db"
	"github.com/villagereg/landregistry/common/derrors"
)

// AuditRepository appends ledger events to the audit_log table
type AuditRepository struct {
	db *db.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *db.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts an audit entry. Payload is the JSON-encoded event.
func (r *AuditRepository) Append(ctx context.Context, eventType string, parcelID *uuid.UUID, payload []byte) error {
	query := `
		INSERT INTO audit_log (event_type, parcel_id, payload)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, eventType, parcelID, payload)
	if err != nil {
		return derrors.Wrap(err, derrors.KindPersistence, "failed to append audit entry")
	}

	return nil
}
