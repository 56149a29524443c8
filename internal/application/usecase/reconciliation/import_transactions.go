// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

// DateLayout is the accepted format of imported transaction dates.
const DateLayout = "2006-01-02"

// ImportRecord is one normalized statement line.
type ImportRecord struct {
	Date        string
	Description string
	Amount      string // signed: positive inflow, negative outflow
}

// ImportTransactionsInput represents the input for importing statement lines.
type ImportTransactionsInput struct {
	VenueID uuid.UUID
	Records []ImportRecord
}

// ImportTransactionsOutput represents the output of an import.
type ImportTransactionsOutput struct {
	ImportedCount int
	Transactions  []*entity.BankTransaction
}

// ImportTransactionsUseCase inserts statement lines as PENDING transactions.
// Duplicate detection is the caller's responsibility.
type ImportTransactionsUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	now             Clock
}

// NewImportTransactionsUseCase creates a new ImportTransactionsUseCase instance.
func NewImportTransactionsUseCase(transactionRepo adapter.BankTransactionRepository) *ImportTransactionsUseCase {
	return &ImportTransactionsUseCase{
		transactionRepo: transactionRepo,
		now:             utcNow,
	}
}

// Execute validates every record and inserts all of them, or none when any is malformed.
func (uc *ImportTransactionsUseCase) Execute(ctx context.Context, input ImportTransactionsInput) (*ImportTransactionsOutput, error) {
	if input.VenueID == uuid.Nil {
		return nil, malformed("venue_id is required")
	}
	if len(input.Records) == 0 {
		return nil, malformed("at least one record is required")
	}

	now := uc.now()
	transactions := make([]*entity.BankTransaction, 0, len(input.Records))
	for i, record := range input.Records {
		tx, err := parseRecord(input.VenueID, record)
		if err != nil {
			return nil, malformed(fmt.Sprintf("record %d: %s", i+1, err.Error()))
		}
		tx.CreatedAt = now
		tx.UpdatedAt = now
		transactions = append(transactions, tx)
	}

	if err := uc.transactionRepo.CreateBatch(ctx, transactions); err != nil {
		return nil, fmt.Errorf("failed to store bank transactions: %w", err)
	}

	slog.Info("Imported bank transactions", "venueID", input.VenueID, "count", len(transactions))

	return &ImportTransactionsOutput{
		ImportedCount: len(transactions),
		Transactions:  transactions,
	}, nil
}

func parseRecord(venueID uuid.UUID, record ImportRecord) (*entity.BankTransaction, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(record.Date))
	if err != nil {
		return nil, errors.New("date must be in YYYY-MM-DD format")
	}

	description := strings.TrimSpace(record.Description)
	if description == "" {
		return nil, errors.New("description is required")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record.Amount))
	if err != nil {
		return nil, errors.New("amount is not a number")
	}
	if amount.IsZero() {
		return nil, errors.New("amount must not be zero")
	}

	return entity.NewBankTransaction(venueID, date, description, amount), nil
}

func malformed(message string) error {
	return domainerror.NewReconciliationError(
		domainerror.ErrCodeMalformedInput,
		message,
		domainerror.ErrMalformedInput,
	)
}
