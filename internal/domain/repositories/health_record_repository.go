package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"health-records-service/internal/domain/dtos"
	"health-records-service/internal/domain/entities"
)

// ErrRecordNotFound is returned when the addressed record does not exist.
// A client that supplies a version for a record the server has never seen
// gets this rather than an implicit create.
var ErrRecordNotFound = errors.New("health record not found")

// MutationFunc inspects the currently stored record, locked against
// concurrent writers, and decides the outcome of the mutation:
//   - mutate the record and return an audit entry: both are committed as
//     one atomic unit;
//   - mutate the record and return a nil entry: the record change commits
//     without an audit row (used for the metadata-only conflict flag);
//   - return an error: everything rolls back.
type MutationFunc func(record *entities.HealthRecord) (*entities.AuditEntry, error)

// HealthRecordRepository defines the storage contract for health records.
// All write paths go through Insert or Mutate so that a record mutation
// and its audit entry are never committed separately.
type HealthRecordRepository interface {
	// Insert stores a new record together with its "create" audit entry.
	Insert(ctx context.Context, record *entities.HealthRecord, entry *entities.AuditEntry) error

	// GetByID fetches a record by id, tombstoned records included.
	GetByID(ctx context.Context, id uuid.UUID) (*entities.HealthRecord, error)

	// Mutate runs fn against the stored record inside a single transaction,
	// serialized per record id. It returns the record as committed.
	Mutate(ctx context.Context, id uuid.UUID, fn MutationFunc) (*entities.HealthRecord, error)

	// ListByUser returns one page of a user's records ordered by updated_at
	// descending, filtered per query.
	ListByUser(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) ([]*entities.HealthRecord, error)

	// CountByUser returns the total matching ListByUser without paging.
	CountByUser(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (int64, error)

	// ListPendingOrConflict returns the user's non-deleted records whose
	// sync status is pending or conflict, most recently updated first.
	ListPendingOrConflict(ctx context.Context, userID uuid.UUID) ([]*entities.HealthRecord, error)
}
