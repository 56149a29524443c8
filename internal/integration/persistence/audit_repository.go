// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/integration/persistence/model"
)

// auditRepository implements the adapter.AuditRepository interface.
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository instance.
func NewAuditRepository(db *gorm.DB) adapter.AuditRepository {
	return &auditRepository{
		db: db,
	}
}

// ListByTransaction returns the audit trail of a transaction, oldest first.
func (r *auditRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entity.AuditEntry, error) {
	var models []model.ReconciliationAuditModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*entity.AuditEntry, len(models))
	for i := range models {
		entries[i] = models[i].ToEntity()
	}
	return entries, nil
}
