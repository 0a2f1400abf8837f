package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordType enumerates the kinds of health records the service stores.
// The Data payload shape depends on the type but is opaque to this service.
type RecordType string

const (
	RecordTypeHistory      RecordType = "history"
	RecordTypePrescription RecordType = "prescription"
	RecordTypeLabReport    RecordType = "lab-report"
	RecordTypeVitalSign    RecordType = "vital-sign"
	RecordTypeDiagnosis    RecordType = "diagnosis"
	RecordTypeTreatment    RecordType = "treatment"
)

// Valid reports whether t is one of the known record types.
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeHistory, RecordTypePrescription, RecordTypeLabReport,
		RecordTypeVitalSign, RecordTypeDiagnosis, RecordTypeTreatment:
		return true
	}
	return false
}

// SyncStatus tracks where a record stands relative to its clients.
type SyncStatus string

const (
	// SyncStatusSynced means the server state is the acknowledged truth.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusPending means a client-origin write has been accepted by the
	// boundary but not yet acknowledged. This service never originates
	// pending; it only clears it on the first accepted mutation.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusConflict means a stale write was rejected and the record is
	// frozen for ordinary mutation until an explicit resolution.
	SyncStatusConflict SyncStatus = "conflict"
)

// HealthRecord is a versioned, tombstoned medical record.
// Data is stored as JSONB and never interpreted beyond the structural
// fields managed here; an external layer handles field encryption.
type HealthRecord struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	RecordType         RecordType     `json:"record_type" gorm:"type:varchar(32);not null"`
	Data               datatypes.JSON `json:"data" gorm:"type:jsonb;not null"`
	Version            int64          `json:"version" gorm:"not null;default:1"`
	// Timestamps are assigned by the service inside the mutation unit, not
	// by the ORM: a rejected stale write must leave updated_at untouched.
	CreatedAt          time.Time      `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"not null;index;autoUpdateTime:false"`
	CreatedBy          uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	IsDeleted          bool           `json:"is_deleted" gorm:"not null;default:false"`
	DeletedAt          *time.Time     `json:"deleted_at,omitempty"`
	SyncStatus         SyncStatus     `json:"sync_status" gorm:"type:varchar(16);not null;default:'synced';index"`
	ConflictResolvedAt *time.Time     `json:"conflict_resolved_at,omitempty"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (HealthRecord) TableName() string {
	return "health_records"
}
