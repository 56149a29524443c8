package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// AuditEntry records a single state change of a bank transaction.
type AuditEntry struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	VenueID        uuid.UUID
	Action         valueobject.ReconciliationAction
	PreviousStatus valueobject.ReconciliationStatus
	NewStatus      valueobject.ReconciliationStatus
	PreviousEntry  *uuid.UUID
	NewEntry       *uuid.UUID
	Confidence     *float64
	Actor          *uuid.UUID
	Breakdown      *valueobject.ScoreBreakdown
	CreatedAt      time.Time
}

// NewAuditEntry builds the audit row for change, which moved tx out of its previous state.
func NewAuditEntry(tx *BankTransaction, action valueobject.ReconciliationAction, change StatusChange, actor *uuid.UUID, breakdown *valueobject.ScoreBreakdown) *AuditEntry {
	return &AuditEntry{
		ID:             uuid.New(),
		TransactionID:  tx.ID,
		VenueID:        tx.VenueID,
		Action:         action,
		PreviousStatus: change.From,
		NewStatus:      change.To,
		PreviousEntry:  tx.MatchedEntryID,
		NewEntry:       change.EntryID,
		Confidence:     change.Confidence,
		Actor:          actor,
		Breakdown:      breakdown,
		CreatedAt:      change.UpdatedAt,
	}
}
