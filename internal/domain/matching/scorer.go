package matching

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

var (
	oneCent = decimal.NewFromFloat(0.01)
	oneUnit = decimal.NewFromInt(1)
)

// Scorer computes the confidence that a ledger entry records a bank transaction.
type Scorer struct {
	weights valueobject.ScoringWeights
}

// NewScorer creates a Scorer using the weights of config.
func NewScorer(config valueobject.MatchingConfig) *Scorer {
	return &Scorer{weights: config.Weights}
}

// Score returns the confidence in [0,1], rounded to two decimals.
func (s *Scorer) Score(tx *entity.BankTransaction, entry *entity.LedgerEntry) float64 {
	return s.Breakdown(tx, entry).Total
}

// Breakdown returns the per-component contributions along with the rounded total.
func (s *Scorer) Breakdown(tx *entity.BankTransaction, entry *entity.LedgerEntry) valueobject.ScoreBreakdown {
	b := valueobject.ScoreBreakdown{
		Amount:      s.weights.Amount * amountFactor(tx.Amount.Abs(), LedgerAmountFor(tx, entry)),
		Date:        s.weights.Date * dateFactor(DayDistance(tx.TransactionDate, entry.Date)),
		Description: s.weights.Description * Similarity(tx.Description, entry.Description),
	}
	if referenceFound(entry.DocumentRef, tx.Description) {
		b.ReferenceBonus = s.weights.ReferenceBonus
	}

	total := b.Amount + b.Date + b.Description + b.ReferenceBonus
	if total > 1.0 {
		total = 1.0
	}
	b.Total = RoundConfidence(total)
	return b
}

// LedgerAmountFor returns the side of entry that corresponds to tx: the debit amount
// for inflows and the credit amount otherwise. A missing amount counts as zero.
func LedgerAmountFor(tx *entity.BankTransaction, entry *entity.LedgerEntry) decimal.Decimal {
	side := entry.CreditAmount
	if tx.Amount.IsPositive() {
		side = entry.DebitAmount
	}
	if side == nil {
		return decimal.Zero
	}
	return *side
}

// DayDistance returns the absolute number of calendar days between a and b.
func DayDistance(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(math.Round(da.Sub(db).Hours() / 24))
	if days < 0 {
		return -days
	}
	return days
}

// RoundConfidence rounds a score to two decimals.
func RoundConfidence(v float64) float64 {
	return math.Round(v*100) / 100
}

func amountFactor(bank, ledger decimal.Decimal) float64 {
	diff := bank.Sub(ledger).Abs()
	switch {
	case diff.IsZero():
		return 1.0
	case diff.LessThanOrEqual(oneCent):
		return 0.95
	case diff.LessThanOrEqual(oneUnit):
		return 0.5
	default:
		return 0
	}
}

func dateFactor(days int) float64 {
	switch {
	case days == 0:
		return 1.0
	case days == 1:
		return 0.8
	case days == 2:
		return 0.5
	case days <= 5:
		return 0.2
	default:
		return 0
	}
}

func referenceFound(ref *string, description string) bool {
	if ref == nil {
		return false
	}
	needle := alphanumericFold(*ref)
	if needle == "" {
		return false
	}
	return strings.Contains(alphanumericFold(description), needle)
}

// alphanumericFold lowercases s and drops everything but letters and digits.
func alphanumericFold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
