// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/matching"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// FindCandidatesInput represents the input for ranking ledger entries for a transaction.
type FindCandidatesInput struct {
	Transaction *entity.BankTransaction
	VenueID     uuid.UUID   // defaults to the transaction's venue
	Limit       int         // defaults to the configured candidate limit
	Exclude     []uuid.UUID // entries claimed earlier in a batch run
}

// FindCandidatesUseCase ranks eligible ledger entries for one bank transaction.
// It never mutates persisted state.
type FindCandidatesUseCase struct {
	ledgerRepo adapter.LedgerRepository
	configs    adapter.MatchingConfigProvider
}

// NewFindCandidatesUseCase creates a new FindCandidatesUseCase instance.
func NewFindCandidatesUseCase(ledgerRepo adapter.LedgerRepository, configs adapter.MatchingConfigProvider) *FindCandidatesUseCase {
	return &FindCandidatesUseCase{
		ledgerRepo: ledgerRepo,
		configs:    configs,
	}
}

// Execute returns at most Limit candidates ordered by confidence descending, then
// by date proximity, then by entry ID.
func (uc *FindCandidatesUseCase) Execute(ctx context.Context, input FindCandidatesInput) ([]valueobject.MatchCandidate, error) {
	tx := input.Transaction
	venueID := input.VenueID
	if venueID == uuid.Nil {
		venueID = tx.VenueID
	}

	cfg := uc.configs.ForVenue(venueID)
	limit := input.Limit
	if limit <= 0 {
		limit = cfg.CandidateLimit
	}

	day := truncateToDay(tx.TransactionDate)
	entries, err := uc.ledgerRepo.FindEligible(ctx, adapter.EligibleEntriesQuery{
		VenueID:          venueID,
		From:             day.AddDate(0, 0, -cfg.WindowDays),
		To:               day.AddDate(0, 0, cfg.WindowDays+1).Add(-time.Nanosecond),
		ForTransactionID: tx.ID,
		Exclude:          input.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	scorer := matching.NewScorer(cfg)
	candidates := make([]valueobject.MatchCandidate, 0, len(entries))
	for _, entry := range entries {
		distance := matching.DayDistance(tx.TransactionDate, entry.Date)
		if distance > cfg.WindowDays {
			continue
		}

		breakdown := scorer.Breakdown(tx, entry)
		if breakdown.Total <= cfg.CandidateFloor {
			continue
		}

		candidates = append(candidates, valueobject.MatchCandidate{
			EntryID:     entry.ID,
			Date:        entry.Date,
			Description: entry.Description,
			Amount:      matching.LedgerAmountFor(tx, entry),
			DocumentRef: entry.DocumentRef,
			Confidence:  breakdown.Total,
			Breakdown:   breakdown,
			DayDistance: distance,
		})
	}

	sortCandidates(candidates)

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func sortCandidates(candidates []valueobject.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.DayDistance != b.DayDistance {
			return a.DayDistance < b.DayDistance
		}
		return bytes.Compare(a.EntryID[:], b.EntryID[:]) < 0
	})
}

// truncateToDay returns midnight UTC of t's calendar day.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
