package dto

import (
	"time"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// ImportTransactionDTO is one statement line in an import request.
type ImportTransactionDTO struct {
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
}

// ImportTransactionsRequest represents the request body for importing statement lines.
type ImportTransactionsRequest struct {
	Transactions []ImportTransactionDTO `json:"transactions" binding:"required,min=1,dive"`
}

// ImportTransactionsResponse represents the response of an import.
type ImportTransactionsResponse struct {
	ImportedCount int                       `json:"imported_count"`
	Transactions  []BankTransactionResponse `json:"transactions"`
}

// RunReconciliationRequest represents the request body for a batch run.
type RunReconciliationRequest struct {
	DateFrom      *string `json:"date_from,omitempty"`
	DateTo        *string `json:"date_to,omitempty"`
	AutoMatchOnly bool    `json:"auto_match_only"`
}

// ManualMatchRequest represents the request body for a manual match.
type ManualMatchRequest struct {
	EntryID string `json:"entry_id" binding:"required,uuid"`
}

// BankTransactionResponse represents a bank transaction.
type BankTransactionResponse struct {
	ID              string   `json:"id"`
	VenueID         string   `json:"venue_id"`
	TransactionDate string   `json:"transaction_date"`
	Description     string   `json:"description"`
	Amount          string   `json:"amount"`
	Status          string   `json:"status"`
	MatchedEntryID  *string  `json:"matched_entry_id"`
	MatchConfidence *float64 `json:"match_confidence"`
	ReconciledBy    *string  `json:"reconciled_by"`
	ReconciledAt    *string  `json:"reconciled_at"`
}

// LedgerEntryResponse represents a ledger entry.
type LedgerEntryResponse struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
	DebitAmount  *string `json:"debit_amount"`
	CreditAmount *string `json:"credit_amount"`
	DocumentRef  *string `json:"document_ref"`
}

// CandidateResponse represents a scored ledger entry proposed for a transaction.
type CandidateResponse struct {
	EntryID     string                     `json:"entry_id"`
	Date        string                     `json:"date"`
	Description string                     `json:"description"`
	Amount      string                     `json:"amount"`
	DocumentRef *string                    `json:"document_ref"`
	Confidence  float64                    `json:"confidence"`
	DayDistance int                        `json:"day_distance"`
	Breakdown   valueobject.ScoreBreakdown `json:"breakdown"`
}

// ReviewResponse represents the review view of a transaction.
type ReviewResponse struct {
	Transaction BankTransactionResponse `json:"transaction"`
	LinkedEntry *LedgerEntryResponse    `json:"linked_entry"`
	Candidates  []CandidateResponse     `json:"candidates"`
}

// BatchItemResponse describes what a batch run did with one transaction.
type BatchItemResponse struct {
	TransactionID string   `json:"transaction_id"`
	Status        string   `json:"status"`
	EntryID       *string  `json:"entry_id"`
	Confidence    *float64 `json:"confidence"`
	Skipped       bool     `json:"skipped,omitempty"`
}

// BatchResultResponse represents the outcome of a batch run.
type BatchResultResponse struct {
	VenueID        string              `json:"venue_id"`
	MatchedCount   int                 `json:"matched_count"`
	ToReviewCount  int                 `json:"to_review_count"`
	UnmatchedCount int                 `json:"unmatched_count"`
	SkippedCount   int                 `json:"skipped_count"`
	Results        []BatchItemResponse `json:"results"`
}

// SummaryResponse contains per-status counts for a venue.
type SummaryResponse struct {
	VenueID string         `json:"venue_id"`
	Counts  map[string]int `json:"counts"`
	Total   int            `json:"total"`
}

// AuditEntryResponse represents one audit trail row.
type AuditEntryResponse struct {
	ID             string                      `json:"id"`
	Action         string                      `json:"action"`
	PreviousStatus string                      `json:"previous_status"`
	NewStatus      string                      `json:"new_status"`
	PreviousEntry  *string                     `json:"previous_entry_id"`
	NewEntry       *string                     `json:"new_entry_id"`
	Confidence     *float64                    `json:"confidence"`
	Actor          *string                     `json:"actor"`
	Breakdown      *valueobject.ScoreBreakdown `json:"breakdown,omitempty"`
	CreatedAt      string                      `json:"created_at"`
}

// ToImportRecords converts the request into use case records.
func (r ImportTransactionsRequest) ToImportRecords() []reconciliation.ImportRecord {
	records := make([]reconciliation.ImportRecord, len(r.Transactions))
	for i, t := range r.Transactions {
		records[i] = reconciliation.ImportRecord{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
		}
	}
	return records
}

// ToBankTransactionResponse converts a domain BankTransaction to its DTO.
func ToBankTransactionResponse(tx *entity.BankTransaction) BankTransactionResponse {
	resp := BankTransactionResponse{
		ID:              tx.ID.String(),
		VenueID:         tx.VenueID.String(),
		TransactionDate: tx.TransactionDate.Format(dateLayout),
		Description:     tx.Description,
		Amount:          tx.Amount.StringFixed(2),
		Status:          string(tx.Status),
		MatchConfidence: tx.MatchConfidence,
	}
	if tx.MatchedEntryID != nil {
		id := tx.MatchedEntryID.String()
		resp.MatchedEntryID = &id
	}
	if tx.ReconciledBy != nil {
		by := tx.ReconciledBy.String()
		resp.ReconciledBy = &by
	}
	if tx.ReconciledAt != nil {
		at := tx.ReconciledAt.UTC().Format(time.RFC3339)
		resp.ReconciledAt = &at
	}
	return resp
}

// ToBankTransactionResponses converts a list of transactions.
func ToBankTransactionResponses(txs []*entity.BankTransaction) []BankTransactionResponse {
	out := make([]BankTransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = ToBankTransactionResponse(tx)
	}
	return out
}

// ToLedgerEntryResponse converts a domain LedgerEntry to its DTO.
func ToLedgerEntryResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:          e.ID.String(),
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		DocumentRef: e.DocumentRef,
	}
	if e.DebitAmount != nil {
		debit := e.DebitAmount.StringFixed(2)
		resp.DebitAmount = &debit
	}
	if e.CreditAmount != nil {
		credit := e.CreditAmount.StringFixed(2)
		resp.CreditAmount = &credit
	}
	return resp
}

// ToReviewResponse converts the review use case output.
func ToReviewResponse(out *reconciliation.GetReviewOutput) ReviewResponse {
	resp := ReviewResponse{
		Transaction: ToBankTransactionResponse(out.Transaction),
		Candidates:  make([]CandidateResponse, len(out.Candidates)),
	}
	if out.LinkedEntry != nil {
		linked := ToLedgerEntryResponse(out.LinkedEntry)
		resp.LinkedEntry = &linked
	}
	for i, c := range out.Candidates {
		resp.Candidates[i] = CandidateResponse{
			EntryID:     c.EntryID.String(),
			Date:        c.Date.Format(dateLayout),
			Description: c.Description,
			Amount:      c.Amount.StringFixed(2),
			DocumentRef: c.DocumentRef,
			Confidence:  c.Confidence,
			DayDistance: c.DayDistance,
			Breakdown:   c.Breakdown,
		}
	}
	return resp
}

// ToBatchResultResponse converts a batch result.
func ToBatchResultResponse(r *valueobject.BatchResult) BatchResultResponse {
	resp := BatchResultResponse{
		VenueID:        r.VenueID.String(),
		MatchedCount:   r.MatchedCount,
		ToReviewCount:  r.ToReviewCount,
		UnmatchedCount: r.UnmatchedCount,
		SkippedCount:   r.SkippedCount,
		Results:        make([]BatchItemResponse, len(r.Results)),
	}
	for i, item := range r.Results {
		resp.Results[i] = BatchItemResponse{
			TransactionID: item.TransactionID.String(),
			Status:        string(item.Status),
			Confidence:    item.Confidence,
			Skipped:       item.Skipped,
		}
		if item.EntryID != nil {
			id := item.EntryID.String()
			resp.Results[i].EntryID = &id
		}
	}
	return resp
}

// ToSummaryResponse converts a reconciliation summary.
func ToSummaryResponse(s *valueobject.ReconciliationSummary) SummaryResponse {
	counts := make(map[string]int, len(s.Counts))
	for status, n := range s.Counts {
		counts[string(status)] = n
	}
	return SummaryResponse{
		VenueID: s.VenueID.String(),
		Counts:  counts,
		Total:   s.Total,
	}
}

// ToAuditEntryResponses converts an audit trail.
func ToAuditEntryResponses(entries []*entity.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			ID:             e.ID.String(),
			Action:         string(e.Action),
			PreviousStatus: string(e.PreviousStatus),
			NewStatus:      string(e.NewStatus),
			PreviousEntry:  uuidString(e.PreviousEntry),
			NewEntry:       uuidString(e.NewEntry),
			Confidence:     e.Confidence,
			Actor:          uuidString(e.Actor),
			Breakdown:      e.Breakdown,
			CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}
