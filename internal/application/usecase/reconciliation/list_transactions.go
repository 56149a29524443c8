package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// ListTransactionsInput represents the input for listing a venue's bank transactions.
type ListTransactionsInput struct {
	VenueID  uuid.UUID
	Status   *valueobject.ReconciliationStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// ListTransactionsUseCase lists bank transactions, typically the TO_REVIEW queue.
type ListTransactionsUseCase struct {
	transactionRepo adapter.BankTransactionRepository
}

// NewListTransactionsUseCase creates a new ListTransactionsUseCase instance.
func NewListTransactionsUseCase(transactionRepo adapter.BankTransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{transactionRepo: transactionRepo}
}

// Execute returns the matching transactions ordered by date.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, input ListTransactionsInput) ([]*entity.BankTransaction, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, malformed(fmt.Sprintf("unknown status %q", *input.Status))
	}
	if input.DateFrom != nil && input.DateTo != nil && input.DateFrom.After(*input.DateTo) {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeInvalidDateRange,
			"date_from must not be after date_to",
			domainerror.ErrMalformedInput,
		)
	}

	return uc.transactionRepo.FindByFilter(ctx, entity.BankTransactionFilter{
		VenueID:  input.VenueID,
		Status:   input.Status,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
	})
}
