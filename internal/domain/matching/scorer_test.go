package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func bankTx(amount string, date time.Time, description string) *entity.BankTransaction {
	return entity.NewBankTransaction(uuid.New(), date, description, decimal.RequireFromString(amount))
}

func debitEntry(amount string, date time.Time, description string) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ID:          uuid.New(),
		Date:        date,
		Description: description,
		DebitAmount: dec(amount),
		Register:    entity.RegisterBank,
	}
}

func TestScorerScore(t *testing.T) {
	scorer := NewScorer(valueobject.DefaultMatchingConfig())
	ref := "FT-2024/123"
	emptyRef := " - "

	tests := []struct {
		name     string
		tx       *entity.BankTransaction
		entry    *entity.LedgerEntry
		expected float64
	}{
		{
			name:     "exact amount and date with containment",
			tx:       bankTx("150.00", day(10), "PAGAMENTO FORNITORE ACME SRL"),
			entry:    debitEntry("150.00", day(10), "ACME SRL"),
			expected: 0.94,
		},
		{
			name:     "exact amount and date with weak description overlap",
			tx:       bankTx("150.00", day(10), "PAGAMENTO FORNITORE ACME SRL"),
			entry:    debitEntry("150.00", day(10), "ACME SRL fattura 123"),
			expected: 0.79,
		},
		{
			name:     "five days apart with different description",
			tx:       bankTx("150.00", day(10), "PAGAMENTO FORNITORE ACME SRL"),
			entry:    debitEntry("150.00", day(15), "Pagamento fornitore diverso"),
			expected: 0.70,
		},
		{
			name:     "amount off by fifty cents and five days apart",
			tx:       bankTx("150.00", day(10), "PAGAMENTO FORNITORE ACME SRL"),
			entry:    debitEntry("149.50", day(15), "Pagamento fornitore diverso"),
			expected: 0.50,
		},
		{
			name:     "rounding tolerance one day apart",
			tx:       bankTx("150.00", day(10), "Affitto marzo"),
			entry:    debitEntry("150.01", day(11), "Affitto aprile"),
			expected: 0.81,
		},
		{
			name: "reference bonus on stripped document ref",
			tx:   bankTx("150.00", day(10), "BONIFICO FT-2024/123 ROSSI"),
			entry: &entity.LedgerEntry{
				ID: uuid.New(), Date: day(10), Description: "Fattura Rossi",
				DebitAmount: dec("150.00"), DocumentRef: &ref, Register: entity.RegisterBank,
			},
			expected: 0.89,
		},
		{
			name: "reference bonus is capped at one",
			tx:   bankTx("150.00", day(10), "BONIFICO FT2024123 ROSSI"),
			entry: &entity.LedgerEntry{
				ID: uuid.New(), Date: day(10), Description: "BONIFICO FT2024123 ROSSI",
				DebitAmount: dec("150.00"), DocumentRef: &ref, Register: entity.RegisterBank,
			},
			expected: 1.0,
		},
		{
			name: "document ref without alphanumerics gives no bonus",
			tx:   bankTx("150.00", day(10), "PAGAMENTO FORNITORE ACME SRL"),
			entry: &entity.LedgerEntry{
				ID: uuid.New(), Date: day(10), Description: "ACME SRL",
				DebitAmount: dec("150.00"), DocumentRef: &emptyRef, Register: entity.RegisterBank,
			},
			expected: 0.94,
		},
		{
			name: "outflow compares credit side",
			tx:   bankTx("-80.00", day(10), "Utenze luce"),
			entry: &entity.LedgerEntry{
				ID: uuid.New(), Date: day(10), Description: "Utenze luce",
				DebitAmount: dec("999.00"), CreditAmount: dec("80.00"), Register: entity.RegisterBank,
			},
			expected: 1.0,
		},
		{
			name: "missing side counts as zero",
			tx:   bankTx("-80.00", day(10), "Utenze luce"),
			entry: &entity.LedgerEntry{
				ID: uuid.New(), Date: day(10), Description: "Utenze luce",
				DebitAmount: dec("80.00"), Register: entity.RegisterBank,
			},
			expected: 0.60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.tx, tt.entry)
			if got != tt.expected {
				t.Errorf("Score() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScorerAmountMonotonic(t *testing.T) {
	scorer := NewScorer(valueobject.DefaultMatchingConfig())
	tx := bankTx("100.00", day(10), "Bonifico")

	prev := -1.0
	for _, ledger := range []string{"98.00", "98.50", "99.00", "99.50", "99.99", "100.00"} {
		got := scorer.Score(tx, debitEntry(ledger, day(10), "Bonifico"))
		if got < prev {
			t.Errorf("score decreased to %v at ledger amount %s (previous %v)", got, ledger, prev)
		}
		prev = got
	}
	if prev != 1.0 {
		t.Errorf("exact amount score = %v, want 1.0", prev)
	}
}

func TestScorerDateMonotonic(t *testing.T) {
	scorer := NewScorer(valueobject.DefaultMatchingConfig())
	tx := bankTx("100.00", day(10), "Bonifico")

	prev := -1.0
	for days := 7; days >= 0; days-- {
		got := scorer.Score(tx, debitEntry("100.00", day(10+days), "Bonifico"))
		if got < prev {
			t.Errorf("score decreased to %v at %d days (previous %v)", got, days, prev)
		}
		prev = got
	}
}

func TestScorerBreakdown(t *testing.T) {
	scorer := NewScorer(valueobject.DefaultMatchingConfig())
	b := scorer.Breakdown(
		bankTx("150.00", day(10), "PAGAMENTO FORNITORE ACME SRL"),
		debitEntry("150.00", day(11), "ACME SRL"),
	)

	if b.Amount != 0.40 {
		t.Errorf("Amount = %v, want 0.40", b.Amount)
	}
	if RoundConfidence(b.Date) != 0.24 {
		t.Errorf("Date = %v, want 0.24", b.Date)
	}
	if RoundConfidence(b.Description) != 0.24 {
		t.Errorf("Description = %v, want 0.24", b.Description)
	}
	if b.ReferenceBonus != 0 {
		t.Errorf("ReferenceBonus = %v, want 0", b.ReferenceBonus)
	}
	if b.Total != 0.88 {
		t.Errorf("Total = %v, want 0.88", b.Total)
	}
}

func TestLedgerAmountFor(t *testing.T) {
	entry := &entity.LedgerEntry{DebitAmount: dec("10.00"), CreditAmount: dec("20.00")}

	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{name: "inflow uses debit", amount: "10.00", expected: "10"},
		{name: "outflow uses credit", amount: "-20.00", expected: "20"},
		{name: "zero uses credit", amount: "0", expected: "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := bankTx(tt.amount, day(1), "x")
			got := LedgerAmountFor(tx, entry)
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("LedgerAmountFor() = %s, want %s", got, tt.expected)
			}
		})
	}

	if got := LedgerAmountFor(bankTx("5", day(1), "x"), &entity.LedgerEntry{}); !got.IsZero() {
		t.Errorf("LedgerAmountFor() with nil debit = %s, want 0", got)
	}
}

func TestDayDistance(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		rome = time.FixedZone("CET", 3600)
	}

	tests := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected int
	}{
		{name: "same day different hours", a: time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC), b: time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC), expected: 0},
		{name: "order does not matter", a: day(15), b: day(10), expected: 5},
		{name: "across month boundary", a: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), b: day(1), expected: 2},
		{name: "calendar day in own location", a: time.Date(2024, 3, 31, 0, 30, 0, 0, rome), b: time.Date(2024, 3, 30, 12, 0, 0, 0, time.UTC), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("DayDistance() = %d, want %d", got, tt.expected)
			}
		})
	}
}
