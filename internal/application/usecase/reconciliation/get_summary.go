// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// GetSummaryInput represents the input for getting reconciliation summary.
type GetSummaryInput struct {
	VenueID uuid.UUID
}

// GetSummaryUseCase handles getting reconciliation summary.
type GetSummaryUseCase struct {
	transactionRepo adapter.BankTransactionRepository
}

// NewGetSummaryUseCase creates a new GetSummaryUseCase instance.
func NewGetSummaryUseCase(transactionRepo adapter.BankTransactionRepository) *GetSummaryUseCase {
	return &GetSummaryUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute retrieves per-status counts. Every status is present in the result.
func (uc *GetSummaryUseCase) Execute(ctx context.Context, input GetSummaryInput) (*valueobject.ReconciliationSummary, error) {
	counts, err := uc.transactionRepo.CountByStatus(ctx, input.VenueID)
	if err != nil {
		return nil, err
	}

	summary := &valueobject.ReconciliationSummary{
		VenueID: input.VenueID,
		Counts:  make(map[valueobject.ReconciliationStatus]int, len(valueobject.AllStatuses)),
	}
	for _, status := range valueobject.AllStatuses {
		summary.Counts[status] = counts[status]
		summary.Total += counts[status]
	}

	return summary, nil
}
