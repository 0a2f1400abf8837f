package adapters

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// SyncEventType labels the record transitions published to the sync stream.
type SyncEventType string

const (
	SyncEventRecordCreated    SyncEventType = "record.created"
	SyncEventRecordUpdated    SyncEventType = "record.updated"
	SyncEventRecordDeleted    SyncEventType = "record.deleted"
	SyncEventConflictDetected SyncEventType = "record.conflict_detected"
	SyncEventConflictResolved SyncEventType = "record.conflict_resolved"
)

// SyncEvent notifies downstream reconcilers of a record transition.
// ServerVersion is the record's version after the transition (for a
// detected conflict, the version the stale writer lost against).
type SyncEvent struct {
	Type          SyncEventType `json:"type"`
	RecordID      uuid.UUID     `json:"record_id"`
	UserID        uuid.UUID     `json:"user_id"`
	ActorID       uuid.UUID     `json:"actor_id"`
	ServerVersion int64         `json:"server_version"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// SyncEventPublisher delivers sync events to whatever transport the
// deployment wires in. Publishing is best-effort from the caller's point
// of view: the record mutation has already committed when events go out.
type SyncEventPublisher interface {
	Publish(ctx context.Context, event SyncEvent) error
	Close() error
}

// LogSyncEventPublisher writes events to the service log. It is the
// default when no broker is configured and keeps event emission visible
// in single-node deployments.
type LogSyncEventPublisher struct {
	logger *log.Logger
}

// NewLogSyncEventPublisher creates a new LogSyncEventPublisher.
func NewLogSyncEventPublisher(logger *log.Logger) *LogSyncEventPublisher {
	return &LogSyncEventPublisher{logger: logger}
}

func (p *LogSyncEventPublisher) Publish(_ context.Context, event SyncEvent) error {
	p.logger.Printf("sync event %s record=%s user=%s version=%d", event.Type, event.RecordID, event.UserID, event.ServerVersion)
	return nil
}

func (p *LogSyncEventPublisher) Close() error {
	return nil
}
