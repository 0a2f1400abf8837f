package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"health-records-service/internal/adapters"
	"health-records-service/internal/domain/dtos"
	"health-records-service/internal/domain/entities"
	"health-records-service/internal/domain/repositories"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// RecordServiceImpl implements RecordServiceContract. The version guard
// and the conflict state machine live here; atomicity of each mutation
// plus its audit entry is delegated to the repository's Mutate unit.
type RecordServiceImpl struct {
	recordRepo repositories.HealthRecordRepository
	auditRepo  repositories.AuditEntryRepository
	publisher  adapters.SyncEventPublisher
	logger     *log.Logger
}

// NewRecordService creates a new RecordServiceImpl.
func NewRecordService(
	recordRepo repositories.HealthRecordRepository,
	auditRepo repositories.AuditEntryRepository,
	publisher adapters.SyncEventPublisher,
	logger *log.Logger,
) RecordServiceContract {
	return &RecordServiceImpl{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *RecordServiceImpl) Create(ctx context.Context, actor uuid.UUID, req dtos.CreateHealthRecordRequest) (*dtos.HealthRecordDTO, error) {
	if req.UserID == uuid.Nil {
		return nil, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if err := validateRecordType(req.RecordType); err != nil {
		return nil, err
	}
	if err := validatePayload("data", req.Data); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := entities.SyncStatusSynced
	if req.Pending {
		// The boundary accepted this write while the client was offline;
		// the record stays in the reconciliation queue until its first
		// acknowledged mutation.
		status = entities.SyncStatusPending
	}

	record := &entities.HealthRecord{
		ID:         uuid.New(),
		UserID:     req.UserID,
		RecordType: req.RecordType,
		Data:       datatypes.JSON(req.Data),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  actor,
		SyncStatus: status,
	}
	entry := newAuditEntry(record.ID, record.Version, entities.AuditActionCreate, actor, record.Data, now)

	if err := s.recordRepo.Insert(ctx, record, entry); err != nil {
		return nil, err
	}

	s.logger.Printf("health record created: %s (user %s, type %s)", record.ID, record.UserID, record.RecordType)
	s.emit(ctx, adapters.SyncEventRecordCreated, record, actor)

	return toRecordDTO(record), nil
}

func (s *RecordServiceImpl) Update(ctx context.Context, actor uuid.UUID, recordID uuid.UUID, req dtos.UpdateHealthRecordRequest) (*dtos.UpdateOutcome, error) {
	if err := validatePayload("data", req.Data); err != nil {
		return nil, err
	}

	var conflict *dtos.VersionConflict

	record, err := s.recordRepo.Mutate(ctx, recordID, func(record *entities.HealthRecord) (*entities.AuditEntry, error) {
		if record.SyncStatus == entities.SyncStatusConflict {
			return nil, ErrResolutionRequired
		}
		if req.ClientVersion != record.Version {
			// Reject the stale write: content stays untouched, only the
			// sync status flips. No audit entry, no accepted mutation.
			conflict = &dtos.VersionConflict{
				RecordID:      record.ID,
				ServerVersion: record.Version,
				ClientVersion: req.ClientVersion,
				ServerData:    json.RawMessage(record.Data),
			}
			record.SyncStatus = entities.SyncStatusConflict
			return nil, nil
		}

		now := time.Now().UTC()
		record.Data = datatypes.JSON(req.Data)
		record.Version++
		record.UpdatedAt = now
		record.SyncStatus = entities.SyncStatusSynced
		return newAuditEntry(record.ID, record.Version, entities.AuditActionUpdate, actor, record.Data, now), nil
	})
	if err != nil {
		return nil, err
	}

	if conflict != nil {
		s.logger.Printf("version conflict on record %s: client %d vs server %d", recordID, conflict.ClientVersion, conflict.ServerVersion)
		s.emit(ctx, adapters.SyncEventConflictDetected, record, actor)
		return &dtos.UpdateOutcome{Conflict: conflict}, nil
	}

	s.logger.Printf("health record updated: %s (version %d)", record.ID, record.Version)
	s.emit(ctx, adapters.SyncEventRecordUpdated, record, actor)

	return &dtos.UpdateOutcome{Record: toRecordDTO(record)}, nil
}

func (s *RecordServiceImpl) Delete(ctx context.Context, actor uuid.UUID, recordID uuid.UUID, req dtos.DeleteHealthRecordRequest) (*dtos.UpdateOutcome, error) {
	var conflict *dtos.VersionConflict

	record, err := s.recordRepo.Mutate(ctx, recordID, func(record *entities.HealthRecord) (*entities.AuditEntry, error) {
		if record.SyncStatus == entities.SyncStatusConflict {
			return nil, ErrResolutionRequired
		}
		if req.ClientVersion != record.Version {
			conflict = &dtos.VersionConflict{
				RecordID:      record.ID,
				ServerVersion: record.Version,
				ClientVersion: req.ClientVersion,
				ServerData:    json.RawMessage(record.Data),
			}
			record.SyncStatus = entities.SyncStatusConflict
			return nil, nil
		}

		now := time.Now().UTC()
		record.IsDeleted = true
		record.DeletedAt = &now
		record.Version++
		record.UpdatedAt = now
		record.SyncStatus = entities.SyncStatusSynced

		snapshot, err := json.Marshal(map[string]any{"is_deleted": true})
		if err != nil {
			return nil, fmt.Errorf("failed to build delete audit snapshot: %w", err)
		}
		return newAuditEntry(record.ID, record.Version, entities.AuditActionDelete, actor, snapshot, now), nil
	})
	if err != nil {
		return nil, err
	}

	if conflict != nil {
		s.logger.Printf("version conflict on delete of record %s: client %d vs server %d", recordID, conflict.ClientVersion, conflict.ServerVersion)
		s.emit(ctx, adapters.SyncEventConflictDetected, record, actor)
		return &dtos.UpdateOutcome{Conflict: conflict}, nil
	}

	s.logger.Printf("health record soft-deleted: %s (version %d)", record.ID, record.Version)
	s.emit(ctx, adapters.SyncEventRecordDeleted, record, actor)

	return &dtos.UpdateOutcome{Record: toRecordDTO(record)}, nil
}

func (s *RecordServiceImpl) ResolveConflict(ctx context.Context, actor uuid.UUID, recordID uuid.UUID, req dtos.ResolveConflictRequest) (*dtos.ResolveOutcome, error) {
	if err := validatePayload("resolved_data", req.ResolvedData); err != nil {
		return nil, err
	}

	var stale *dtos.StaleResolution

	record, err := s.recordRepo.Mutate(ctx, recordID, func(record *entities.HealthRecord) (*entities.AuditEntry, error) {
		if req.ChosenVersion != record.Version {
			// Another write landed between the client's observation and
			// this call. Abort without side effects; the caller re-fetches
			// and retries against the fresh version.
			stale = &dtos.StaleResolution{
				RecordID:      record.ID,
				ServerVersion: record.Version,
				ChosenVersion: req.ChosenVersion,
				ServerData:    json.RawMessage(record.Data),
			}
			return nil, errStaleResolution
		}

		now := time.Now().UTC()
		record.Data = datatypes.JSON(req.ResolvedData)
		record.Version++
		record.UpdatedAt = now
		record.SyncStatus = entities.SyncStatusSynced
		record.ConflictResolvedAt = &now

		snapshot, err := json.Marshal(map[string]any{
			"chosen_version": req.ChosenVersion,
			"resolved_data":  req.ResolvedData,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build resolution audit snapshot: %w", err)
		}
		return newAuditEntry(record.ID, record.Version, entities.AuditActionResolveConflict, actor, snapshot, now), nil
	})
	if err != nil {
		if errors.Is(err, errStaleResolution) {
			s.logger.Printf("stale resolution on record %s: chosen %d vs server %d", recordID, stale.ChosenVersion, stale.ServerVersion)
			return &dtos.ResolveOutcome{Stale: stale}, nil
		}
		return nil, err
	}

	s.logger.Printf("conflict resolved on record %s (version %d)", record.ID, record.Version)
	s.emit(ctx, adapters.SyncEventConflictResolved, record, actor)

	return &dtos.ResolveOutcome{Record: toRecordDTO(record)}, nil
}

func (s *RecordServiceImpl) GetRecord(ctx context.Context, recordID uuid.UUID) (*dtos.HealthRecordDTO, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return toRecordDTO(record), nil
}

func (s *RecordServiceImpl) ListRecords(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (*dtos.RecordPage, error) {
	if query.Page < 1 {
		query.Page = defaultPage
	}
	if query.PageSize < 1 {
		query.PageSize = defaultPageSize
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}
	if query.RecordType != nil {
		if err := validateRecordType(*query.RecordType); err != nil {
			return nil, err
		}
	}

	records, err := s.recordRepo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	total, err := s.recordRepo.CountByUser(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	return &dtos.RecordPage{
		Records:  lo.Map(records, func(r *entities.HealthRecord, _ int) *dtos.HealthRecordDTO { return toRecordDTO(r) }),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		HasMore:  int64(query.Page)*int64(query.PageSize) < total,
	}, nil
}

func (s *RecordServiceImpl) ListPendingOrConflict(ctx context.Context, userID uuid.UUID) ([]*dtos.HealthRecordDTO, error) {
	records, err := s.recordRepo.ListPendingOrConflict(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *entities.HealthRecord, _ int) *dtos.HealthRecordDTO { return toRecordDTO(r) }), nil
}

func (s *RecordServiceImpl) ListAudit(ctx context.Context, recordID uuid.UUID) ([]*dtos.AuditEntryDTO, error) {
	// Tombstoned records keep their trail, but a record that never existed
	// is a hard failure rather than an empty list.
	if _, err := s.recordRepo.GetByID(ctx, recordID); err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e *entities.AuditEntry, _ int) *dtos.AuditEntryDTO { return toAuditDTO(e) }), nil
}

// emit publishes a sync event for an already-committed transition.
// Delivery is best-effort: a publisher failure is logged, never surfaced.
func (s *RecordServiceImpl) emit(ctx context.Context, eventType adapters.SyncEventType, record *entities.HealthRecord, actor uuid.UUID) {
	if s.publisher == nil || record == nil {
		return
	}
	event := adapters.SyncEvent{
		Type:          eventType,
		RecordID:      record.ID,
		UserID:        record.UserID,
		ActorID:       actor,
		ServerVersion: record.Version,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Printf("failed to publish sync event %s for record %s: %v", eventType, record.ID, err)
	}
}

// newAuditEntry builds the audit row for an accepted mutation. sequence is
// the record version the mutation produced, keeping the trail and the
// version counter in lockstep.
func newAuditEntry(recordID uuid.UUID, sequence int64, action entities.AuditAction, actor uuid.UUID, data []byte, at time.Time) *entities.AuditEntry {
	return &entities.AuditEntry{
		ID:        uuid.New(),
		Sequence:  sequence,
		RecordID:  recordID,
		Action:    action,
		UserID:    actor,
		Data:      datatypes.JSON(data),
		Timestamp: at,
	}
}

func validateRecordType(t entities.RecordType) error {
	if !t.Valid() {
		return &ValidationError{Field: "record_type", Reason: fmt.Sprintf("unknown type %q", t)}
	}
	return nil
}

func validatePayload(field string, data json.RawMessage) error {
	if len(data) == 0 {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if !json.Valid(data) {
		return &ValidationError{Field: field, Reason: "must be valid JSON"}
	}
	return nil
}

func toRecordDTO(record *entities.HealthRecord) *dtos.HealthRecordDTO {
	return &dtos.HealthRecordDTO{
		ID:                 record.ID,
		UserID:             record.UserID,
		RecordType:         record.RecordType,
		Data:               json.RawMessage(record.Data),
		Version:            record.Version,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
		CreatedBy:          record.CreatedBy,
		IsDeleted:          record.IsDeleted,
		DeletedAt:          record.DeletedAt,
		SyncStatus:         record.SyncStatus,
		ConflictResolvedAt: record.ConflictResolvedAt,
	}
}

func toAuditDTO(entry *entities.AuditEntry) *dtos.AuditEntryDTO {
	return &dtos.AuditEntryDTO{
		ID:        entry.ID,
		Sequence:  entry.Sequence,
		RecordID:  entry.RecordID,
		Action:    entry.Action,
		UserID:    entry.UserID,
		Data:      json.RawMessage(entry.Data),
		Timestamp: entry.Timestamp,
	}
}
