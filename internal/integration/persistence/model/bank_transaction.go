// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// BankTransactionModel represents the bank_transactions table in the database.
type BankTransactionModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VenueID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_bank_transactions_venue_status"`
	TransactionDate time.Time       `gorm:"type:date;not null;index"`
	Description     string          `gorm:"type:varchar(500);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:PENDING;index:idx_bank_transactions_venue_status"`
	MatchedEntryID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex"` // one transaction per ledger entry
	MatchConfidence *float64        `gorm:"type:decimal(3,2)"`
	ReconciledBy    *uuid.UUID      `gorm:"type:uuid"`
	ReconciledAt    *time.Time      `gorm:"type:timestamp"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the BankTransactionModel.
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToEntity converts a BankTransactionModel to a domain BankTransaction entity.
func (m *BankTransactionModel) ToEntity() *entity.BankTransaction {
	return &entity.BankTransaction{
		ID:              m.ID,
		VenueID:         m.VenueID,
		TransactionDate: m.TransactionDate,
		Description:     m.Description,
		Amount:          m.Amount,
		Status:          valueobject.ReconciliationStatus(m.Status),
		MatchedEntryID:  m.MatchedEntryID,
		MatchConfidence: m.MatchConfidence,
		ReconciledBy:    m.ReconciledBy,
		ReconciledAt:    m.ReconciledAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// BankTransactionFromEntity creates a BankTransactionModel from a domain entity.
func BankTransactionFromEntity(tx *entity.BankTransaction) *BankTransactionModel {
	return &BankTransactionModel{
		ID:              tx.ID,
		VenueID:         tx.VenueID,
		TransactionDate: tx.TransactionDate,
		Description:     tx.Description,
		Amount:          tx.Amount,
		Status:          string(tx.Status),
		MatchedEntryID:  tx.MatchedEntryID,
		MatchConfidence: tx.MatchConfidence,
		ReconciledBy:    tx.ReconciledBy,
		ReconciledAt:    tx.ReconciledAt,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}
