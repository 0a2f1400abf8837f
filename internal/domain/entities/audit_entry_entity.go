package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditAction enumerates the state transitions the audit trail records.
type AuditAction string

const (
	AuditActionCreate          AuditAction = "create"
	AuditActionUpdate          AuditAction = "update"
	AuditActionDelete          AuditAction = "delete"
	AuditActionResolveConflict AuditAction = "resolve_conflict"
)

// AuditEntry documents one accepted mutation of a health record.
// Entries are insert-only: no component exposes an update or delete for
// them, and they are written in the same transaction as the mutation they
// document. Sequence is the record version the mutation produced; it
// breaks timestamp ties when listing and makes the version/audit lockstep
// visible in the table itself.
type AuditEntry struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Sequence  int64          `json:"sequence" gorm:"not null;uniqueIndex:idx_audit_record_seq"`
	RecordID  uuid.UUID      `json:"record_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_audit_record_seq"`
	Action    AuditAction    `json:"action" gorm:"type:varchar(32);not null"`
	UserID    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null"`
	Data      datatypes.JSON `json:"data" gorm:"type:jsonb"`
	Timestamp time.Time      `json:"timestamp" gorm:"not null;index"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (AuditEntry) TableName() string {
	return "health_record_audit"
}
