// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// ConfirmInput represents the input for confirming a proposed match.
type ConfirmInput struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
}

// ConfirmUseCase promotes a proposed link to MATCHED.
type ConfirmUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	metrics         adapter.ReconciliationMetrics
	now             Clock
}

// NewConfirmUseCase creates a new ConfirmUseCase instance.
func NewConfirmUseCase(transactionRepo adapter.BankTransactionRepository, metrics adapter.ReconciliationMetrics) *ConfirmUseCase {
	return &ConfirmUseCase{
		transactionRepo: transactionRepo,
		metrics:         metricsOrNoop(metrics),
		now:             utcNow,
	}
}

// Execute confirms the transaction's current link.
func (uc *ConfirmUseCase) Execute(ctx context.Context, input ConfirmInput) (*ActionOutput, error) {
	out, err := uc.execute(ctx, input)
	if err != nil {
		uc.metrics.ObserveAction(valueobject.ActionConfirm, errorOutcome(err))
		return nil, err
	}
	uc.metrics.ObserveAction(valueobject.ActionConfirm, outcomeOK)
	return out, nil
}

func (uc *ConfirmUseCase) execute(ctx context.Context, input ConfirmInput) (*ActionOutput, error) {
	tx, err := loadTransaction(ctx, uc.transactionRepo, input.TransactionID)
	if err != nil {
		return nil, err
	}

	next, err := valueobject.Transition(valueobject.ActionConfirm, tx.Status, tx.HasLink())
	if err != nil {
		return nil, err
	}

	now := uc.now()
	actor := input.ActorID
	change := entity.StatusChange{
		TransactionID: tx.ID,
		From:          tx.Status,
		To:            next,
		EntryID:       tx.MatchedEntryID,
		Confidence:    tx.MatchConfidence,
		ReconciledBy:  &actor,
		ReconciledAt:  &now,
		UpdatedAt:     now,
	}

	updated, err := applyAction(ctx, uc.transactionRepo, tx, valueobject.ActionConfirm, change, &actor, nil)
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Transaction: updated}, nil
}
