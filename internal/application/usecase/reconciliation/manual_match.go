// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/matching"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// ManualMatchInput represents the input for linking a transaction to a chosen entry.
type ManualMatchInput struct {
	TransactionID uuid.UUID
	EntryID       uuid.UUID
	ActorID       uuid.UUID
}

// ManualMatchUseCase links a bank transaction to a ledger entry chosen by a reviewer.
type ManualMatchUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	ledgerRepo      adapter.LedgerRepository
	configs         adapter.MatchingConfigProvider
	metrics         adapter.ReconciliationMetrics
	now             Clock
}

// NewManualMatchUseCase creates a new ManualMatchUseCase instance.
func NewManualMatchUseCase(
	transactionRepo adapter.BankTransactionRepository,
	ledgerRepo adapter.LedgerRepository,
	configs adapter.MatchingConfigProvider,
	metrics adapter.ReconciliationMetrics,
) *ManualMatchUseCase {
	return &ManualMatchUseCase{
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		configs:         configs,
		metrics:         metricsOrNoop(metrics),
		now:             utcNow,
	}
}

// Execute performs the manual match.
func (uc *ManualMatchUseCase) Execute(ctx context.Context, input ManualMatchInput) (*ActionOutput, error) {
	out, err := uc.execute(ctx, input)
	if err != nil {
		uc.metrics.ObserveAction(valueobject.ActionManualMatch, errorOutcome(err))
		return nil, err
	}
	uc.metrics.ObserveAction(valueobject.ActionManualMatch, outcomeOK)
	return out, nil
}

func (uc *ManualMatchUseCase) execute(ctx context.Context, input ManualMatchInput) (*ActionOutput, error) {
	tx, err := loadTransaction(ctx, uc.transactionRepo, input.TransactionID)
	if err != nil {
		return nil, err
	}

	next, err := valueobject.Transition(valueobject.ActionManualMatch, tx.Status, tx.HasLink())
	if err != nil {
		return nil, err
	}

	entry, err := uc.ledgerRepo.FindBankEntry(ctx, tx.VenueID, input.EntryID)
	if err != nil {
		if errors.Is(err, domainerror.ErrLedgerEntryNotFound) {
			return nil, domainerror.NewReconciliationError(
				domainerror.ErrCodeLedgerEntryNotFound,
				"ledger entry not found in the venue's bank register",
				domainerror.ErrLedgerEntryNotFound,
			)
		}
		return nil, err
	}

	// Early rejection for a friendlier error; the unique index still decides at write time.
	linkedTo, err := uc.ledgerRepo.LinkedTransactionID(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if linkedTo != nil && *linkedTo != tx.ID {
		return nil, exclusivityError()
	}

	breakdown := matching.NewScorer(uc.configs.ForVenue(tx.VenueID)).Breakdown(tx, entry)
	confidence := breakdown.Total

	now := uc.now()
	actor := input.ActorID
	entryID := entry.ID
	change := entity.StatusChange{
		TransactionID: tx.ID,
		From:          tx.Status,
		To:            next,
		EntryID:       &entryID,
		Confidence:    &confidence,
		ReconciledBy:  &actor,
		ReconciledAt:  &now,
		UpdatedAt:     now,
	}

	updated, err := applyAction(ctx, uc.transactionRepo, tx, valueobject.ActionManualMatch, change, &actor, &breakdown)
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Transaction: updated}, nil
}
