package dtos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"health-records-service/internal/domain/entities"
)

// AuditEntryDTO represents one audit trail entry in API responses.
type AuditEntryDTO struct {
	ID        uuid.UUID            `json:"id"`
	Sequence  int64                `json:"sequence"`
	RecordID  uuid.UUID            `json:"record_id"`
	Action    entities.AuditAction `json:"action"`
	UserID    uuid.UUID            `json:"user_id"`
	Data      json.RawMessage      `json:"data,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}
