// Package valueobject contains domain value objects for the reconciliation engine.
package valueobject

import (
	"fmt"
	"math"

	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

// ScoringWeights holds the component weights of the confidence score.
type ScoringWeights struct {
	Amount         float64 // 0.40
	Date           float64 // 0.30
	Description    float64 // 0.30
	ReferenceBonus float64 // flat bonus, 0.10
}

// MatchingConfig contains the configuration for bank-to-ledger matching.
type MatchingConfig struct {
	Weights ScoringWeights

	// Classification thresholds
	AutoMatchThreshold float64 // >= this is MATCHED
	ReviewThreshold    float64 // >= this is TO_REVIEW

	// Candidate search
	CandidateFloor float64 // candidates at or below this are noise
	WindowDays     int     // +- calendar days around the transaction date
	CandidateLimit int
}

// DefaultMatchingConfig returns the default matching configuration.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		Weights: ScoringWeights{
			Amount:         0.40,
			Date:           0.30,
			Description:    0.30,
			ReferenceBonus: 0.10,
		},
		AutoMatchThreshold: 0.90,
		ReviewThreshold:    0.70,
		CandidateFloor:     0.30,
		WindowDays:         7,
		CandidateLimit:     5,
	}
}

// weightEpsilon absorbs float noise when summing weights.
const weightEpsilon = 1e-9

// Validate checks that weights sum to 1.0 and thresholds are ordered.
func (c MatchingConfig) Validate() error {
	sum := c.Weights.Amount + c.Weights.Date + c.Weights.Description
	if math.Abs(sum-1.0) > weightEpsilon {
		return invalidConfig(fmt.Sprintf("amount, date and description weights must sum to 1.0, got %.4f", sum))
	}
	if c.Weights.Amount < 0 || c.Weights.Date < 0 || c.Weights.Description < 0 || c.Weights.ReferenceBonus < 0 {
		return invalidConfig("weights must not be negative")
	}
	if c.AutoMatchThreshold <= c.ReviewThreshold {
		return invalidConfig("auto-match threshold must be greater than review threshold")
	}
	if c.AutoMatchThreshold > 1 || c.ReviewThreshold < 0 {
		return invalidConfig("thresholds must lie in [0,1]")
	}
	if c.CandidateFloor < 0 || c.CandidateFloor >= 1 {
		return invalidConfig("candidate floor must lie in [0,1)")
	}
	if c.WindowDays < 0 {
		return invalidConfig("window days must not be negative")
	}
	if c.CandidateLimit <= 0 {
		return invalidConfig("candidate limit must be positive")
	}
	return nil
}

func invalidConfig(message string) error {
	return domainerror.NewReconciliationError(
		domainerror.ErrCodeInvalidMatchingConfig,
		message,
		domainerror.ErrInvalidMatchingConfig,
	)
}
