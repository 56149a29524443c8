// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/integration/persistence/model"
)

// ledgerRepository implements the adapter.LedgerRepository interface.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository instance.
func NewLedgerRepository(db *gorm.DB) adapter.LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

// FindEligible returns bank-register entries in the window that no other transaction links to.
func (r *ledgerRepository) FindEligible(ctx context.Context, query adapter.EligibleEntriesQuery) ([]*entity.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Model(&model.LedgerEntryModel{}).
		Where("venue_id = ?", query.VenueID).
		Where("register = ?", string(entity.RegisterBank)).
		Where("date >= ?", query.From).
		Where("date <= ?", query.To).
		Where(`NOT EXISTS (
			SELECT 1 FROM bank_transactions bt
			WHERE bt.matched_entry_id = ledger_entries.id
			AND bt.id <> ?
		)`, query.ForTransactionID)

	if len(query.Exclude) > 0 {
		q = q.Where("id NOT IN ?", query.Exclude)
	}

	var models []model.LedgerEntryModel
	if err := q.Order("date ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	return toLedgerEntities(models), nil
}

// FindBankEntry retrieves a bank-register entry of the venue.
func (r *ledgerRepository) FindBankEntry(ctx context.Context, venueID, entryID uuid.UUID) (*entity.LedgerEntry, error) {
	var m model.LedgerEntryModel
	result := r.db.WithContext(ctx).
		Where("id = ?", entryID).
		Where("venue_id = ?", venueID).
		Where("register = ?", string(entity.RegisterBank)).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrLedgerEntryNotFound
		}
		return nil, result.Error
	}
	return m.ToEntity(), nil
}

// FindByIDs retrieves entries by ID.
func (r *ledgerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.LedgerEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []model.LedgerEntryModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return toLedgerEntities(models), nil
}

// LinkedTransactionID returns the transaction currently linked to the entry, if any.
func (r *ledgerRepository) LinkedTransactionID(ctx context.Context, entryID uuid.UUID) (*uuid.UUID, error) {
	var m model.BankTransactionModel
	result := r.db.WithContext(ctx).
		Select("id").
		Where("matched_entry_id = ?", entryID).
		First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &m.ID, nil
}

func toLedgerEntities(models []model.LedgerEntryModel) []*entity.LedgerEntry {
	entries := make([]*entity.LedgerEntry, len(models))
	for i := range models {
		entries[i] = models[i].ToEntity()
	}
	return entries
}

// startOfDay returns midnight UTC of t's calendar day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SaveLedgerEntries upserts ledger entries mirrored from the accounting system.
// The engine itself never modifies the ledger; this is the ingest path for it.
func SaveLedgerEntries(ctx context.Context, db *gorm.DB, entries []*entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]*model.LedgerEntryModel, len(entries))
	for i, e := range entries {
		models[i] = model.LedgerEntryFromEntity(e)
	}

	return db.WithContext(ctx).Save(models).Error
}
