// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// BankTransactionRepository defines the interface for bank transaction persistence operations.
type BankTransactionRepository interface {
	// CreateBatch inserts all transactions or none of them.
	CreateBatch(ctx context.Context, transactions []*entity.BankTransaction) error

	// FindByID retrieves a bank transaction by its ID.
	// Returns domainerror.ErrTransactionNotFound when it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.BankTransaction, error)

	// FindByFilter lists transactions ordered by transaction date ascending, then ID.
	FindByFilter(ctx context.Context, filter entity.BankTransactionFilter) ([]*entity.BankTransaction, error)

	// ApplyChange performs a conditional update and writes the audit row in one
	// database transaction. The update only applies while the stored status equals
	// change.From; otherwise domainerror.ErrStaleStatus is returned. A link to an
	// entry already held by another transaction yields domainerror.ErrExclusivityViolation.
	ApplyChange(ctx context.Context, change entity.StatusChange, audit *entity.AuditEntry) error

	// CountByStatus returns the number of transactions per status for a venue.
	CountByStatus(ctx context.Context, venueID uuid.UUID) (map[valueobject.ReconciliationStatus]int, error)
}

// AuditRepository defines read access to the reconciliation audit trail.
type AuditRepository interface {
	// ListByTransaction returns the audit trail of a transaction, oldest first.
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entity.AuditEntry, error)
}
