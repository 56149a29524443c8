// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// UnmatchInput represents the input for reverting a transaction to PENDING.
type UnmatchInput struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID // recorded in the audit trail only
}

// UnmatchUseCase reverses a match or an ignore.
type UnmatchUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	metrics         adapter.ReconciliationMetrics
	now             Clock
}

// NewUnmatchUseCase creates a new UnmatchUseCase instance.
func NewUnmatchUseCase(transactionRepo adapter.BankTransactionRepository, metrics adapter.ReconciliationMetrics) *UnmatchUseCase {
	return &UnmatchUseCase{
		transactionRepo: transactionRepo,
		metrics:         metricsOrNoop(metrics),
		now:             utcNow,
	}
}

// Execute clears the link, confidence, actor and timestamp and sets PENDING.
func (uc *UnmatchUseCase) Execute(ctx context.Context, input UnmatchInput) (*ActionOutput, error) {
	out, err := uc.execute(ctx, input)
	if err != nil {
		uc.metrics.ObserveAction(valueobject.ActionUnmatch, errorOutcome(err))
		return nil, err
	}
	uc.metrics.ObserveAction(valueobject.ActionUnmatch, outcomeOK)
	return out, nil
}

func (uc *UnmatchUseCase) execute(ctx context.Context, input UnmatchInput) (*ActionOutput, error) {
	tx, err := loadTransaction(ctx, uc.transactionRepo, input.TransactionID)
	if err != nil {
		return nil, err
	}

	next, err := valueobject.Transition(valueobject.ActionUnmatch, tx.Status, tx.HasLink())
	if err != nil {
		return nil, err
	}

	var actor *uuid.UUID
	if input.ActorID != uuid.Nil {
		id := input.ActorID
		actor = &id
	}

	change := entity.StatusChange{
		TransactionID: tx.ID,
		From:          tx.Status,
		To:            next,
		UpdatedAt:     uc.now(),
	}

	updated, err := applyAction(ctx, uc.transactionRepo, tx, valueobject.ActionUnmatch, change, actor, nil)
	if err != nil {
		return nil, err
	}
	return &ActionOutput{Transaction: updated}, nil
}
