package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Register identifies the ledger register an entry was posted to.
type Register string

const (
	RegisterBank Register = "bank"
	RegisterCash Register = "cash"
)

// LedgerEntry is a posting in the venue's accounting ledger.
type LedgerEntry struct {
	ID           uuid.UUID
	VenueID      uuid.UUID
	Date         time.Time
	Description  string
	DebitAmount  *decimal.Decimal
	CreditAmount *decimal.Decimal
	DocumentRef  *string
	Register     Register
	CreatedAt    time.Time
}
