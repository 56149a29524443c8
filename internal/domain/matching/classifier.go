package matching

import "github.com/ledger-recon/backend/internal/domain/valueobject"

// Classifier maps a confidence score to a reconciliation status.
type Classifier struct {
	autoMatch float64
	review    float64
}

// NewClassifier creates a Classifier with the thresholds of config.
func NewClassifier(config valueobject.MatchingConfig) *Classifier {
	return &Classifier{
		autoMatch: config.AutoMatchThreshold,
		review:    config.ReviewThreshold,
	}
}

// Classify returns MATCHED, TO_REVIEW or UNMATCHED for confidence.
// The confidence is rounded to two decimals before comparison.
func (c *Classifier) Classify(confidence float64) valueobject.ReconciliationStatus {
	rounded := RoundConfidence(confidence)
	switch {
	case rounded >= c.autoMatch:
		return valueobject.StatusMatched
	case rounded >= c.review:
		return valueobject.StatusToReview
	default:
		return valueobject.StatusUnmatched
	}
}
