// Package reconciliation contains bank-to-ledger reconciliation use cases.
package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
)

// GetAuditInput represents the input for reading a transaction's audit trail.
type GetAuditInput struct {
	TransactionID uuid.UUID
}

// GetAuditUseCase returns the state changes recorded for a transaction.
type GetAuditUseCase struct {
	transactionRepo adapter.BankTransactionRepository
	auditRepo       adapter.AuditRepository
}

// NewGetAuditUseCase creates a new GetAuditUseCase instance.
func NewGetAuditUseCase(transactionRepo adapter.BankTransactionRepository, auditRepo adapter.AuditRepository) *GetAuditUseCase {
	return &GetAuditUseCase{
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
	}
}

// Execute lists the audit trail, oldest first.
func (uc *GetAuditUseCase) Execute(ctx context.Context, input GetAuditInput) ([]*entity.AuditEntry, error) {
	if _, err := loadTransaction(ctx, uc.transactionRepo, input.TransactionID); err != nil {
		return nil, err
	}
	return uc.auditRepo.ListByTransaction(ctx, input.TransactionID)
}
