package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"health-records-service/internal/domain/dtos"
	"health-records-service/internal/domain/entities"
	"health-records-service/internal/domain/repositories"
)

// Compile-time check that the GORM implementation satisfies the contract.
var _ repositories.HealthRecordRepository = (*GormHealthRecordRepository)(nil)

// GormHealthRecordRepository persists health records and their audit
// entries in a relational store. Every mutation runs inside a single
// transaction so a record change and its audit row commit or roll back
// together.
type GormHealthRecordRepository struct {
	db *gorm.DB
}

// NewGormHealthRecordRepository creates a new GormHealthRecordRepository.
func NewGormHealthRecordRepository(db *gorm.DB) *GormHealthRecordRepository {
	return &GormHealthRecordRepository{db: db}
}

func (r *GormHealthRecordRepository) Insert(ctx context.Context, record *entities.HealthRecord, entry *entities.AuditEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert health record: %w", err)
	}
	return nil
}

func (r *GormHealthRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.HealthRecord, error) {
	var record entities.HealthRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load health record %s: %w", id, err)
	}
	return &record, nil
}

func (r *GormHealthRecordRepository) Mutate(ctx context.Context, id uuid.UUID, fn repositories.MutationFunc) (*entities.HealthRecord, error) {
	var committed *entities.HealthRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entities.HealthRecord

		query := tx
		// SELECT ... FOR UPDATE serializes concurrent writers on the same
		// record id. SQLite has no row locks and serializes writers itself.
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrRecordNotFound
			}
			return err
		}

		entry, err := fn(&record)
		if err != nil {
			return err
		}

		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}

		committed = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

func (r *GormHealthRecordRepository) ListByUser(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) ([]*entities.HealthRecord, error) {
	var records []*entities.HealthRecord

	q := r.userScope(ctx, userID, query).Order("updated_at DESC")
	if query.PageSize > 0 {
		offset := (query.Page - 1) * query.PageSize
		q = q.Offset(offset).Limit(query.PageSize)
	}

	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list health records for user %s: %w", userID, err)
	}
	return records, nil
}

func (r *GormHealthRecordRepository) CountByUser(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) (int64, error) {
	var total int64
	if err := r.userScope(ctx, userID, query).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count health records for user %s: %w", userID, err)
	}
	return total, nil
}

func (r *GormHealthRecordRepository) ListPendingOrConflict(ctx context.Context, userID uuid.UUID) ([]*entities.HealthRecord, error) {
	var records []*entities.HealthRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("is_deleted = ?", false).
		Where("sync_status IN ?", []entities.SyncStatus{entities.SyncStatusPending, entities.SyncStatusConflict}).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced records for user %s: %w", userID, err)
	}
	return records, nil
}

func (r *GormHealthRecordRepository) userScope(ctx context.Context, userID uuid.UUID, query dtos.ListRecordsQuery) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entities.HealthRecord{}).Where("user_id = ?", userID)
	if query.RecordType != nil {
		q = q.Where("record_type = ?", *query.RecordType)
	}
	if !query.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	return q
}
