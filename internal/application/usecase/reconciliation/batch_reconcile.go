// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/matching"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// BatchReconcileInput represents the input for a batch reconciliation run.
type BatchReconcileInput struct {
	VenueID       uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
	AutoMatchOnly bool // anything short of MATCHED is recorded as UNMATCHED
}

// BatchReconcileUseCase classifies every PENDING transaction of a venue.
type BatchReconcileUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	finder          *FindCandidatesUseCase
	configs         adapter.MatchingConfigProvider
	locker          adapter.VenueLocker
	notifier        adapter.ReviewNotifier
	metrics         adapter.ReconciliationMetrics
	now             Clock
}

// NewBatchReconcileUseCase creates a new BatchReconcileUseCase instance.
// locker and notifier are optional.
func NewBatchReconcileUseCase(
	transactionRepo adapter.BankTransactionRepository,
	finder *FindCandidatesUseCase,
	configs adapter.MatchingConfigProvider,
	locker adapter.VenueLocker,
	notifier adapter.ReviewNotifier,
	metrics adapter.ReconciliationMetrics,
) *BatchReconcileUseCase {
	return &BatchReconcileUseCase{
		transactionRepo: transactionRepo,
		finder:          finder,
		configs:         configs,
		locker:          locker,
		notifier:        notifier,
		metrics:         metricsOrNoop(metrics),
		now:             utcNow,
	}
}

// claimedEntries holds ledger entries linked during the current run.
type claimedEntries map[uuid.UUID]struct{}

func (c claimedEntries) with(id uuid.UUID) claimedEntries {
	c[id] = struct{}{}
	return c
}

func (c claimedEntries) ids() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	return ids
}

// Execute runs the batch. Transactions are processed one at a time in ascending date
// order and each is persisted before the next candidate search. When ctx is cancelled
// the partial result is returned together with the context error; unprocessed
// transactions stay PENDING.
func (uc *BatchReconcileUseCase) Execute(ctx context.Context, input BatchReconcileInput) (*valueobject.BatchResult, error) {
	if input.DateFrom != nil && input.DateTo != nil && input.DateFrom.After(*input.DateTo) {
		return nil, domainerror.NewReconciliationError(
			domainerror.ErrCodeInvalidDateRange,
			"date_from must not be after date_to",
			domainerror.ErrMalformedInput,
		)
	}

	if uc.locker != nil {
		unlock, err := uc.locker.TryLock(ctx, input.VenueID)
		if err != nil {
			if errors.Is(err, domainerror.ErrBatchInProgress) {
				return nil, domainerror.NewReconciliationError(
					domainerror.ErrCodeBatchInProgress,
					"a reconciliation batch is already running for this venue",
					domainerror.ErrBatchInProgress,
				)
			}
			return nil, fmt.Errorf("failed to lock venue: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("Failed to release venue lock", "venueID", input.VenueID, "error", err)
			}
		}()
	}

	cfg := uc.configs.ForVenue(input.VenueID)
	classifier := matching.NewClassifier(cfg)

	pendingStatus := valueobject.StatusPending
	pending, err := uc.transactionRepo.FindByFilter(ctx, entity.BankTransactionFilter{
		VenueID:  input.VenueID,
		Status:   &pendingStatus,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending transactions: %w", err)
	}

	logger := slog.Default().With("venueID", input.VenueID, "pendingCount", len(pending), "autoMatchOnly", input.AutoMatchOnly)
	logger.Info("Starting reconciliation batch")
	startTime := time.Now()

	result := &valueobject.BatchResult{VenueID: input.VenueID}
	byID := make(map[uuid.UUID]*entity.BankTransaction, len(pending))
	claimed := claimedEntries{}

	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			logger.Warn("Reconciliation batch interrupted", "processed", len(result.Results), "error", err)
			uc.metrics.ObserveBatch(result, time.Since(startTime))
			return result, err
		}

		var item valueobject.BatchItemResult
		claimed, item, err = uc.reconcileOne(ctx, tx, claimed, classifier, input.AutoMatchOnly)
		if err != nil {
			logger.Error("Failed to reconcile transaction", "transactionID", tx.ID, "error", err)
			uc.metrics.ObserveBatch(result, time.Since(startTime))
			return result, err
		}
		byID[tx.ID] = tx
		result.Record(item)
	}

	duration := time.Since(startTime)
	uc.metrics.ObserveBatch(result, duration)
	logger.Info("Reconciliation batch completed",
		"matched", result.MatchedCount,
		"toReview", result.ToReviewCount,
		"unmatched", result.UnmatchedCount,
		"skipped", result.SkippedCount,
		"duration", duration.String(),
	)

	uc.notifyReviewers(ctx, result, byID)

	return result, nil
}

// reconcileOne classifies tx against its best unclaimed candidate and persists the
// outcome. It returns the claimed set updated with any entry it linked.
func (uc *BatchReconcileUseCase) reconcileOne(
	ctx context.Context,
	tx *entity.BankTransaction,
	claimed claimedEntries,
	classifier *matching.Classifier,
	autoMatchOnly bool,
) (claimedEntries, valueobject.BatchItemResult, error) {
	candidates, err := uc.finder.Execute(ctx, FindCandidatesInput{
		Transaction: tx,
		Exclude:     claimed.ids(),
	})
	if err != nil {
		return claimed, valueobject.BatchItemResult{}, err
	}

	for i := range candidates {
		candidate := candidates[i]
		status := classifier.Classify(candidate.Confidence)
		if autoMatchOnly && status != valueobject.StatusMatched {
			status = valueobject.StatusUnmatched
		}
		if status == valueobject.StatusUnmatched {
			break
		}

		entryID := candidate.EntryID
		confidence := candidate.Confidence
		item, err := uc.persist(ctx, tx, status, &entryID, &confidence, &candidate.Breakdown)
		if errors.Is(err, domainerror.ErrExclusivityViolation) {
			// Linked elsewhere since the search; never propose it again in this run.
			slog.Warn("Candidate entry already linked, trying next candidate",
				"transactionID", tx.ID, "entryID", entryID)
			claimed = claimed.with(entryID)
			continue
		}
		if err != nil {
			return claimed, valueobject.BatchItemResult{}, err
		}
		if !item.Skipped {
			claimed = claimed.with(entryID)
		}
		return claimed, item, nil
	}

	item, err := uc.persist(ctx, tx, valueobject.StatusUnmatched, nil, nil, nil)
	if err != nil {
		return claimed, valueobject.BatchItemResult{}, err
	}
	return claimed, item, nil
}

// persist writes one classification. A transaction moved out of PENDING by another
// actor is reported as skipped.
func (uc *BatchReconcileUseCase) persist(
	ctx context.Context,
	tx *entity.BankTransaction,
	status valueobject.ReconciliationStatus,
	entryID *uuid.UUID,
	confidence *float64,
	breakdown *valueobject.ScoreBreakdown,
) (valueobject.BatchItemResult, error) {
	action := valueobject.ClassifyAction(status)
	next, err := valueobject.Transition(action, tx.Status, tx.HasLink())
	if err != nil {
		return valueobject.BatchItemResult{}, err
	}

	change := entity.StatusChange{
		TransactionID: tx.ID,
		From:          tx.Status,
		To:            next,
		EntryID:       entryID,
		Confidence:    confidence,
		UpdatedAt:     uc.now(),
	}
	audit := entity.NewAuditEntry(tx, action, change, nil, breakdown)

	if err := uc.transactionRepo.ApplyChange(ctx, change, audit); err != nil {
		if errors.Is(err, domainerror.ErrStaleStatus) {
			slog.Warn("Transaction changed during batch, skipping", "transactionID", tx.ID)
			return valueobject.BatchItemResult{TransactionID: tx.ID, Status: tx.Status, Skipped: true}, nil
		}
		return valueobject.BatchItemResult{}, err
	}

	return valueobject.BatchItemResult{
		TransactionID: tx.ID,
		Status:        next,
		EntryID:       entryID,
		Confidence:    confidence,
	}, nil
}

func (uc *BatchReconcileUseCase) notifyReviewers(ctx context.Context, result *valueobject.BatchResult, byID map[uuid.UUID]*entity.BankTransaction) {
	if uc.notifier == nil || result.ToReviewCount == 0 {
		return
	}

	items := make([]adapter.ReviewDigestItem, 0, result.ToReviewCount)
	for _, r := range result.Results {
		if r.Skipped || r.Status != valueobject.StatusToReview {
			continue
		}
		item := adapter.ReviewDigestItem{TransactionID: r.TransactionID}
		if tx, ok := byID[r.TransactionID]; ok {
			item.Description = tx.Description
			item.Amount = tx.Amount.StringFixed(2)
		}
		if r.Confidence != nil {
			item.Confidence = *r.Confidence
		}
		items = append(items, item)
	}

	err := uc.notifier.NotifyReviewPending(ctx, adapter.ReviewDigestInput{
		VenueID:        result.VenueID,
		MatchedCount:   result.MatchedCount,
		ToReviewCount:  result.ToReviewCount,
		UnmatchedCount: result.UnmatchedCount,
		Items:          items,
	})
	if err != nil {
		slog.Error("Failed to send review digest", "venueID", result.VenueID, "error", err)
	}
}
