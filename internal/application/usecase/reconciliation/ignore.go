// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// IgnoreInput represents the input for excluding a transaction from reconciliation.
type IgnoreInput struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
}

// IgnoreUseCase marks a transaction as not requiring a ledger counterpart.
type IgnoreUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	metrics         adapter.ReconciliationMetrics
	now             Clock
}

// NewIgnoreUseCase creates a new IgnoreUseCase instance.
func NewIgnoreUseCase(transactionRepo adapter.BankTransactionRepository, metrics adapter.ReconciliationMetrics) *IgnoreUseCase {
	return &IgnoreUseCase{
		transactionRepo: transactionRepo,
		metrics:         metricsOrNoop(metrics),
		now:             utcNow,
	}
}

// Execute ignores the transaction, dropping any proposed link.
func (uc *IgnoreUseCase) Execute(ctx context.Context, input IgnoreInput) (*ActionOutput, error) {
	out, err := uc.execute(ctx, input)
	if err != nil {
		uc.metrics.ObserveAction(valueobject.ActionIgnore, errorOutcome(err))
		return nil, err
	}
	uc.metrics.ObserveAction(valueobject.ActionIgnore, outcomeOK)
	return out, nil
}

func (uc *IgnoreUseCase) execute(ctx context.Context, input IgnoreInput) (*ActionOutput, error) {
	tx, err := loadTransaction(ctx, uc.transactionRepo, input.TransactionID)
	if err != nil {
		return nil, err
	}

	next, err := valueobject.Transition(valueobject.ActionIgnore, tx.Status, tx.HasLink())
	if err != nil {
		return nil, err
	}

	now := uc.now()
	actor := input.ActorID
	change := entity.StatusChange{
		TransactionID: tx.ID,
		From:          tx.Status,
		To:            next,
		ReconciledBy:  &actor,
		ReconciledAt:  &now,
		UpdatedAt:     now,
	}

	updated, err := applyAction(ctx, uc.transactionRepo, tx, valueobject.ActionIgnore, change, &actor, nil)
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Transaction: updated}, nil
}
