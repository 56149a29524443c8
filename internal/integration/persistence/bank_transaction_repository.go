// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
	"github.com/ledger-recon/backend/internal/integration/persistence/model"
)

// importChunkSize bounds the rows per INSERT statement on import.
const importChunkSize = 200

// bankTransactionRepository implements the adapter.BankTransactionRepository interface.
type bankTransactionRepository struct {
	db *gorm.DB
}

// NewBankTransactionRepository creates a new bank transaction repository instance.
func NewBankTransactionRepository(db *gorm.DB) adapter.BankTransactionRepository {
	return &bankTransactionRepository{
		db: db,
	}
}

// CreateBatch inserts all transactions in a single database transaction.
func (r *bankTransactionRepository) CreateBatch(ctx context.Context, transactions []*entity.BankTransaction) error {
	if len(transactions) == 0 {
		return nil
	}

	models := make([]*model.BankTransactionModel, len(transactions))
	for i, tx := range transactions {
		models[i] = model.BankTransactionFromEntity(tx)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, importChunkSize).Error
	})
}

// FindByID retrieves a bank transaction by its ID.
func (r *bankTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.BankTransaction, error) {
	var m model.BankTransactionModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return m.ToEntity(), nil
}

// FindByFilter lists transactions ordered by transaction date, then ID.
// DateFrom and DateTo are inclusive calendar days.
func (r *bankTransactionRepository) FindByFilter(ctx context.Context, filter entity.BankTransactionFilter) ([]*entity.BankTransaction, error) {
	query := r.db.WithContext(ctx).
		Model(&model.BankTransactionModel{}).
		Where("venue_id = ?", filter.VenueID)

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.DateFrom != nil {
		query = query.Where("transaction_date >= ?", startOfDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("transaction_date < ?", startOfDay(*filter.DateTo).AddDate(0, 0, 1))
	}

	var models []model.BankTransactionModel
	if err := query.Order("transaction_date ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	transactions := make([]*entity.BankTransaction, len(models))
	for i := range models {
		transactions[i] = models[i].ToEntity()
	}
	return transactions, nil
}

// ApplyChange performs the conditional status update and writes the audit row.
func (r *bankTransactionRepository) ApplyChange(ctx context.Context, change entity.StatusChange, audit *entity.AuditEntry) error {
	auditModel, err := model.AuditFromEntity(audit)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.BankTransactionModel{}).
			Where("id = ?", change.TransactionID).
			Where("status = ?", string(change.From)).
			Updates(map[string]interface{}{
				"status":           string(change.To),
				"matched_entry_id": change.EntryID,
				"match_confidence": change.Confidence,
				"reconciled_by":    change.ReconciledBy,
				"reconciled_at":    change.ReconciledAt,
				"updated_at":       change.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.BankTransactionModel{}).Where("id = ?", change.TransactionID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerror.ErrTransactionNotFound
			}
			return domainerror.ErrStaleStatus
		}

		return tx.Create(auditModel).Error
	})

	if isUniqueViolation(err) {
		return domainerror.ErrExclusivityViolation
	}
	return err
}

// CountByStatus returns the number of transactions per status for a venue.
func (r *bankTransactionRepository) CountByStatus(ctx context.Context, venueID uuid.UUID) (map[valueobject.ReconciliationStatus]int, error) {
	var rows []struct {
		Status string
		Count  int
	}

	err := r.db.WithContext(ctx).
		Model(&model.BankTransactionModel{}).
		Select("status, COUNT(*) as count").
		Where("venue_id = ?", venueID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[valueobject.ReconciliationStatus]int, len(rows))
	for _, row := range rows {
		counts[valueobject.ReconciliationStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// isUniqueViolation reports whether err was raised by a unique index.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
