// Package valueobject contains domain value objects for the reconciliation engine.
package valueobject

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScoreBreakdown records the contribution of each component to a confidence score.
type ScoreBreakdown struct {
	Amount         float64 `json:"amount"`
	Date           float64 `json:"date"`
	Description    float64 `json:"description"`
	ReferenceBonus float64 `json:"reference_bonus"`
	Total          float64 `json:"total"`
}

// MatchCandidate is a scored ledger entry proposed for a bank transaction.
type MatchCandidate struct {
	EntryID     uuid.UUID
	Date        time.Time
	Description string
	Amount      decimal.Decimal // debit for inflows, credit for outflows
	DocumentRef *string
	Confidence  float64
	Breakdown   ScoreBreakdown
	DayDistance int
}

// ReconciliationSummary contains per-status counts for a venue.
type ReconciliationSummary struct {
	VenueID uuid.UUID
	Counts  map[ReconciliationStatus]int
	Total   int
}

// BatchItemResult describes what a batch run did with one transaction.
type BatchItemResult struct {
	TransactionID uuid.UUID
	Status        ReconciliationStatus
	EntryID       *uuid.UUID
	Confidence    *float64
	Skipped       bool
}

// BatchResult is the outcome of one batch reconciliation run.
type BatchResult struct {
	VenueID        uuid.UUID
	MatchedCount   int
	ToReviewCount  int
	UnmatchedCount int
	SkippedCount   int
	Results        []BatchItemResult
}

// Record adds item to the result and bumps the matching counter.
func (r *BatchResult) Record(item BatchItemResult) {
	r.Results = append(r.Results, item)
	if item.Skipped {
		r.SkippedCount++
		return
	}
	switch item.Status {
	case StatusMatched:
		r.MatchedCount++
	case StatusToReview:
		r.ToReviewCount++
	case StatusUnmatched:
		r.UnmatchedCount++
	}
}

// Processed returns how many transactions were classified (skips excluded).
func (r *BatchResult) Processed() int {
	return r.MatchedCount + r.ToReviewCount + r.UnmatchedCount
}
