package repositories

import (
	"context"

	"github.com/google/uuid"

	"health-records-service/internal/domain/entities"
)

// AuditEntryRepository is the read-only surface over the audit trail.
// Appends happen exclusively inside HealthRecordRepository's transactional
// unit; exposing no update or delete here is what makes the trail
// immutable, not convention.
type AuditEntryRepository interface {
	// ListByRecord returns the record's entries ascending by timestamp,
	// insertion order breaking ties.
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*entities.AuditEntry, error)
}
