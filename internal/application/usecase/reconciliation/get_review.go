// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// GetReviewInput represents the input for the manual-review view of a transaction.
type GetReviewInput struct {
	TransactionID uuid.UUID
	Limit         int
}

// GetReviewOutput is a transaction together with its ranked candidates.
type GetReviewOutput struct {
	Transaction *entity.BankTransaction
	LinkedEntry *entity.LedgerEntry
	Candidates  []valueobject.MatchCandidate
}

// GetReviewUseCase assembles what a reviewer needs to decide on one transaction.
type GetReviewUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	ledgerRepo      adapter.LedgerRepository
	finder          *FindCandidatesUseCase
}

// NewGetReviewUseCase creates a new GetReviewUseCase instance.
func NewGetReviewUseCase(
	transactionRepo adapter.BankTransactionRepository,
	ledgerRepo adapter.LedgerRepository,
	finder *FindCandidatesUseCase,
) *GetReviewUseCase {
	return &GetReviewUseCase{
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		finder:          finder,
	}
}

// Execute returns the transaction, its linked entry if any, and its top candidates.
func (uc *GetReviewUseCase) Execute(ctx context.Context, input GetReviewInput) (*GetReviewOutput, error) {
	tx, err := loadTransaction(ctx, uc.transactionRepo, input.TransactionID)
	if err != nil {
		return nil, err
	}

	candidates, err := uc.finder.Execute(ctx, FindCandidatesInput{
		Transaction: tx,
		Limit:       input.Limit,
	})
	if err != nil {
		return nil, err
	}

	output := &GetReviewOutput{
		Transaction: tx,
		Candidates:  candidates,
	}

	if tx.MatchedEntryID != nil {
		entries, err := uc.ledgerRepo.FindByIDs(ctx, []uuid.UUID{*tx.MatchedEntryID})
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("linked ledger entry is missing")
		}
		output.LinkedEntry = entries[0]
	}

	return output, nil
}
