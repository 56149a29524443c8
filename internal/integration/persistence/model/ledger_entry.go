// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/domain/entity"
)

// LedgerEntryModel represents the ledger_entries table owned by the ledger subsystem.
type LedgerEntryModel struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	VenueID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_ledger_entries_venue_date"`
	Date         time.Time        `gorm:"type:date;not null;index:idx_ledger_entries_venue_date"`
	Description  string           `gorm:"type:varchar(500);not null"`
	DebitAmount  *decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreditAmount *decimal.Decimal `gorm:"type:decimal(15,2)"`
	DocumentRef  *string          `gorm:"type:varchar(100)"`
	Register     string           `gorm:"type:varchar(20);not null;index"`
	CreatedAt    time.Time        `gorm:"not null"`
}

// TableName returns the table name for the LedgerEntryModel.
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToEntity converts a LedgerEntryModel to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToEntity() *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ID:           m.ID,
		VenueID:      m.VenueID,
		Date:         m.Date,
		Description:  m.Description,
		DebitAmount:  m.DebitAmount,
		CreditAmount: m.CreditAmount,
		DocumentRef:  m.DocumentRef,
		Register:     entity.Register(m.Register),
		CreatedAt:    m.CreatedAt,
	}
}

// LedgerEntryFromEntity creates a LedgerEntryModel from a domain entity.
func LedgerEntryFromEntity(e *entity.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:           e.ID,
		VenueID:      e.VenueID,
		Date:         e.Date,
		Description:  e.Description,
		DebitAmount:  e.DebitAmount,
		CreditAmount: e.CreditAmount,
		DocumentRef:  e.DocumentRef,
		Register:     string(e.Register),
		CreatedAt:    e.CreatedAt,
	}
}
