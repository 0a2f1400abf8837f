package dtos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"health-records-service/internal/domain/entities"
)

// HealthRecordDTO represents health record data in API responses.
type HealthRecordDTO struct {
	ID                 uuid.UUID           `json:"id"`
	UserID             uuid.UUID           `json:"user_id"`
	RecordType         entities.RecordType `json:"record_type"`
	Data               json.RawMessage     `json:"data"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	CreatedBy          uuid.UUID           `json:"created_by"`
	IsDeleted          bool                `json:"is_deleted"`
	DeletedAt          *time.Time          `json:"deleted_at,omitempty"`
	SyncStatus         entities.SyncStatus `json:"sync_status"`
	ConflictResolvedAt *time.Time          `json:"conflict_resolved_at,omitempty"`
}

// CreateHealthRecordRequest is the payload for creating a record.
// Pending may be set by the boundary that accepted the write while the
// client was offline; the record then surfaces in the reconciliation
// queue until its first acknowledged mutation.
type CreateHealthRecordRequest struct {
	UserID     uuid.UUID           `json:"user_id"`
	RecordType entities.RecordType `json:"record_type"`
	Data       json.RawMessage     `json:"data"`
	Pending    bool                `json:"pending,omitempty"`
}

// UpdateHealthRecordRequest carries an update together with the version
// the client last observed.
type UpdateHealthRecordRequest struct {
	ClientVersion int64           `json:"client_version"`
	Data          json.RawMessage `json:"data"`
}

// DeleteHealthRecordRequest soft-deletes a record, subject to the same
// version check as an update.
type DeleteHealthRecordRequest struct {
	ClientVersion int64 `json:"client_version"`
}

// ResolveConflictRequest applies a client-directed resolution against the
// exact server version the client inspected.
type ResolveConflictRequest struct {
	ChosenVersion int64           `json:"chosen_version"`
	ResolvedData  json.RawMessage `json:"resolved_data"`
}

// VersionConflict is the ordinary (non-error) outcome of an update or
// delete whose client version no longer matches the server.
type VersionConflict struct {
	RecordID      uuid.UUID       `json:"record_id"`
	ServerVersion int64           `json:"server_version"`
	ClientVersion int64           `json:"client_version"`
	ServerData    json.RawMessage `json:"server_data"`
}

// StaleResolution is the ordinary outcome of a resolution attempt whose
// chosen version was overtaken by another write.
type StaleResolution struct {
	RecordID      uuid.UUID       `json:"record_id"`
	ServerVersion int64           `json:"server_version"`
	ChosenVersion int64           `json:"chosen_version"`
	ServerData    json.RawMessage `json:"server_data"`
}

// UpdateOutcome carries either the accepted record or the conflict the
// caller must branch on. Exactly one field is non-nil.
type UpdateOutcome struct {
	Record   *HealthRecordDTO `json:"record,omitempty"`
	Conflict *VersionConflict `json:"conflict,omitempty"`
}

// ResolveOutcome carries either the resolved record or the stale-resolution
// result. Exactly one field is non-nil.
type ResolveOutcome struct {
	Record *HealthRecordDTO `json:"record,omitempty"`
	Stale  *StaleResolution `json:"stale,omitempty"`
}

// ListRecordsQuery filters and pages a user's records.
type ListRecordsQuery struct {
	RecordType     *entities.RecordType
	Page           int
	PageSize       int
	IncludeDeleted bool
}

// RecordPage is one page of a user's records.
type RecordPage struct {
	Records  []*HealthRecordDTO `json:"records"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	HasMore  bool               `json:"has_more"`
}
