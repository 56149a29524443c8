// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// outcomeOK is the metrics outcome of a successful action.
const outcomeOK = "ok"

// Clock returns the current time. Use cases default to UTC wall time.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// ActionOutput is returned by every reviewer action.
type ActionOutput struct {
	Transaction *entity.BankTransaction
}

type noopMetrics struct{}

func (noopMetrics) ObserveBatch(*valueobject.BatchResult, time.Duration)   {}
func (noopMetrics) ObserveAction(valueobject.ReconciliationAction, string) {}

func metricsOrNoop(m adapter.ReconciliationMetrics) adapter.ReconciliationMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// errorOutcome returns the error code used as metrics label.
func errorOutcome(err error) string {
	var recErr *domainerror.ReconciliationError
	if errors.As(err, &recErr) {
		return string(recErr.Code)
	}
	return "error"
}

// loadTransaction fetches a transaction, converting a missing row into a coded error.
func loadTransaction(ctx context.Context, repo adapter.BankTransactionRepository, id uuid.UUID) (*entity.BankTransaction, error) {
	tx, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerror.ErrTransactionNotFound) {
			return nil, domainerror.NewReconciliationError(
				domainerror.ErrCodeTransactionNotFound,
				"bank transaction not found",
				domainerror.ErrTransactionNotFound,
			)
		}
		return nil, err
	}
	return tx, nil
}

// applyAction validates and persists change for tx, returning the updated transaction.
// A concurrent status change is reported as an invalid transition carrying the
// status found after re-reading the row.
func applyAction(
	ctx context.Context,
	repo adapter.BankTransactionRepository,
	tx *entity.BankTransaction,
	action valueobject.ReconciliationAction,
	change entity.StatusChange,
	actor *uuid.UUID,
	breakdown *valueobject.ScoreBreakdown,
) (*entity.BankTransaction, error) {
	audit := entity.NewAuditEntry(tx, action, change, actor, breakdown)

	if err := repo.ApplyChange(ctx, change, audit); err != nil {
		switch {
		case errors.Is(err, domainerror.ErrExclusivityViolation):
			return nil, exclusivityError()
		case errors.Is(err, domainerror.ErrStaleStatus):
			current := ""
			if latest, findErr := repo.FindByID(ctx, tx.ID); findErr == nil {
				current = string(latest.Status)
			}
			return nil, domainerror.NewStateError(
				domainerror.ErrCodeInvalidStateTransition,
				"transaction changed concurrently",
				current,
			)
		default:
			return nil, err
		}
	}

	return withChange(tx, change), nil
}

func exclusivityError() error {
	return domainerror.NewReconciliationError(
		domainerror.ErrCodeExclusivityViolation,
		"ledger entry is already linked to another transaction",
		domainerror.ErrExclusivityViolation,
	)
}

// withChange returns a copy of tx with change applied.
func withChange(tx *entity.BankTransaction, change entity.StatusChange) *entity.BankTransaction {
	updated := *tx
	updated.Status = change.To
	updated.MatchedEntryID = change.EntryID
	updated.MatchConfidence = change.Confidence
	updated.ReconciledBy = change.ReconciledBy
	updated.ReconciledAt = change.ReconciledAt
	updated.UpdatedAt = change.UpdatedAt
	return &updated
}
