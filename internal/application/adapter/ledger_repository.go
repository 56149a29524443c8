// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/domain/entity"
)

// EligibleEntriesQuery selects bank-register ledger entries that may be proposed
// for a bank transaction.
type EligibleEntriesQuery struct {
	VenueID uuid.UUID
	From    time.Time // inclusive
	To      time.Time // inclusive

	// ForTransactionID keeps entries already linked to this transaction eligible;
	// entries linked to any other transaction are excluded.
	ForTransactionID uuid.UUID

	// Exclude lists entries claimed earlier in the same batch run.
	Exclude []uuid.UUID
}

// LedgerRepository defines read access to the ledger subsystem.
type LedgerRepository interface {
	// FindEligible returns bank-register entries matching the query.
	FindEligible(ctx context.Context, query EligibleEntriesQuery) ([]*entity.LedgerEntry, error)

	// FindBankEntry retrieves a bank-register entry of the venue.
	// Returns domainerror.ErrLedgerEntryNotFound when it does not exist, belongs to
	// another venue or is not in the bank register.
	FindBankEntry(ctx context.Context, venueID, entryID uuid.UUID) (*entity.LedgerEntry, error)

	// FindByIDs retrieves entries by ID, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.LedgerEntry, error)

	// LinkedTransactionID returns the transaction currently linked to the entry, if any.
	LinkedTransactionID(ctx context.Context, entryID uuid.UUID) (*uuid.UUID, error)
}
