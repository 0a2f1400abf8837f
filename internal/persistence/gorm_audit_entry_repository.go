package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"health-records-service/internal/domain/entities"
	"health-records-service/internal/domain/repositories"
)

var _ repositories.AuditEntryRepository = (*GormAuditEntryRepository)(nil)

// GormAuditEntryRepository reads the audit trail. It deliberately has no
// write methods: entries are appended only inside the record repository's
// transactions.
type GormAuditEntryRepository struct {
	db *gorm.DB
}

// NewGormAuditEntryRepository creates a new GormAuditEntryRepository.
func NewGormAuditEntryRepository(db *gorm.DB) *GormAuditEntryRepository {
	return &GormAuditEntryRepository{db: db}
}

func (r *GormAuditEntryRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*entities.AuditEntry, error) {
	var entries []*entities.AuditEntry
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("timestamp ASC").
		Order("sequence ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for record %s: %w", recordID, err)
	}
	return entries, nil
}
