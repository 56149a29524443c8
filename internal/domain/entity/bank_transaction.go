// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// BankTransaction is one line of a bank statement awaiting reconciliation.
type BankTransaction struct {
	ID              uuid.UUID
	VenueID         uuid.UUID
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal // Positive for inflows, negative for outflows
	Status          valueobject.ReconciliationStatus
	MatchedEntryID  *uuid.UUID
	MatchConfidence *float64
	ReconciledBy    *uuid.UUID
	ReconciledAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBankTransaction creates a new PENDING BankTransaction.
func NewBankTransaction(
	venueID uuid.UUID,
	date time.Time,
	description string,
	amount decimal.Decimal,
) *BankTransaction {
	now := time.Now().UTC()

	return &BankTransaction{
		ID:              uuid.New(),
		VenueID:         venueID,
		TransactionDate: date,
		Description:     description,
		Amount:          amount,
		Status:          valueobject.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsInflow reports whether money entered the account.
func (t *BankTransaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// HasLink reports whether the transaction references a ledger entry.
func (t *BankTransaction) HasLink() bool {
	return t.MatchedEntryID != nil
}

// BankTransactionFilter narrows a listing of bank transactions.
type BankTransactionFilter struct {
	VenueID  uuid.UUID
	Status   *valueobject.ReconciliationStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// StatusChange describes a conditional update of a bank transaction.
// It is applied only while the stored status still equals From.
type StatusChange struct {
	TransactionID uuid.UUID
	From          valueobject.ReconciliationStatus
	To            valueobject.ReconciliationStatus
	EntryID       *uuid.UUID
	Confidence    *float64
	ReconciledBy  *uuid.UUID
	ReconciledAt  *time.Time
	UpdatedAt     time.Time
}
