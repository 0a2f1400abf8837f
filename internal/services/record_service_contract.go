package services

import (
	"context"

	"github.com/google/uuid"

	"health-records-service/internal/domain/dtos"
)

// RecordServiceContract is the operation surface of the versioning core.
// Every call carries the authenticated actor identity stamped by the
// surrounding authorization layer; ownership and role checks have already
// happened by the time a call lands here.
type RecordServiceContract interface {
	// Create stores a new record at version 1 with its "create" audit entry.
	Create(ctx context.Context, actor uuid.UUID, req dtos.CreateHealthRecordRequest) (*dtos.HealthRecordDTO, error)

	// Update applies a compare-and-swap mutation. A stale client version
	// yields an UpdateOutcome carrying a VersionConflict, not an error.
	Update(ctx context.Context, actor uuid.UUID, recordID uuid.UUID, req dtos.UpdateHealthRecordRequest) (*dtos.UpdateOutcome, error)

	// Delete tombstones a record under the same compare-and-swap rules.
	Delete(ctx context.Context, actor uuid.UUID, recordID uuid.UUID, req dtos.DeleteHealthRecordRequest) (*dtos.UpdateOutcome, error)

	// ResolveConflict applies a client-directed resolution against the
	// exact version the client inspected; if another write landed first,
	// the outcome carries a StaleResolution and nothing changes.
	ResolveConflict(ctx context.Context, actor uuid.UUID, recordID uuid.UUID, req dtos.ResolveConflictRequest) (*dtos.ResolveOutcome, error)

	// GetRecord fetches a record by id, tombstoned records included.
	GetRecord(ctx context.Context, recordID uuid.UUID) (*dtos.HealthRecordDTO, error)

	// ListRecords pages a user's records, newest update first.
	ListRecords(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (*dtos.RecordPage, error)

	// ListPendingOrConflict surfaces the user's reconciliation queue.
	ListPendingOrConflict(ctx context.Context, userID uuid.UUID) ([]*dtos.HealthRecordDTO, error)

	// ListAudit returns the record's full audit trail, oldest first.
	ListAudit(ctx context.Context, recordID uuid.UUID) ([]*dtos.AuditEntryDTO, error)
}
