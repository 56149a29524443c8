// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ledger-recon/backend/internal/application/usecase/reconciliation"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/dto"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/middleware"
)

// ReconciliationUseCases groups the use cases served by ReconciliationController.
type ReconciliationUseCases struct {
	Import      *reconciliation.ImportTransactionsUseCase
	List        *reconciliation.ListTransactionsUseCase
	Batch       *reconciliation.BatchReconcileUseCase
	Summary     *reconciliation.GetSummaryUseCase
	Review      *reconciliation.GetReviewUseCase
	Audit       *reconciliation.GetAuditUseCase
	Confirm     *reconciliation.ConfirmUseCase
	ManualMatch *reconciliation.ManualMatchUseCase
	Ignore      *reconciliation.IgnoreUseCase
	Unmatch     *reconciliation.UnmatchUseCase
}

// ReconciliationController handles reconciliation endpoints.
type ReconciliationController struct {
	uc ReconciliationUseCases
}

// NewReconciliationController creates a new reconciliation controller instance.
func NewReconciliationController(useCases ReconciliationUseCases) *ReconciliationController {
	return &ReconciliationController{uc: useCases}
}

// ImportTransactions handles POST /venues/:venue_id/bank-transactions/import requests.
func (c *ReconciliationController) ImportTransactions(ctx *gin.Context) {
	venueID, ok := parseUUIDParam(ctx, "venue_id")
	if !ok {
		return
	}

	var req dto.ImportTransactionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", err)
		return
	}

	output, err := c.uc.Import.Execute(ctx.Request.Context(), reconciliation.ImportTransactionsInput{
		VenueID: venueID,
		Records: req.ToImportRecords(),
	})
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ImportTransactionsResponse{
		ImportedCount: output.ImportedCount,
		Transactions:  dto.ToBankTransactionResponses(output.Transactions),
	})
}

// ListTransactions handles GET /venues/:venue_id/bank-transactions requests.
func (c *ReconciliationController) ListTransactions(ctx *gin.Context) {
	venueID, ok := parseUUIDParam(ctx, "venue_id")
	if !ok {
		return
	}

	input := reconciliation.ListTransactionsInput{VenueID: venueID}
	if s := ctx.Query("status"); s != "" {
		status := valueobject.ReconciliationStatus(s)
		input.Status = &status
	}

	var err error
	if input.DateFrom, err = parseDateQuery(ctx.Query("date_from")); err != nil {
		badRequest(ctx, "Invalid date_from", err)
		return
	}
	if input.DateTo, err = parseDateQuery(ctx.Query("date_to")); err != nil {
		badRequest(ctx, "Invalid date_to", err)
		return
	}

	txs, err := c.uc.List.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBankTransactionResponses(txs))
}

// RunBatch handles POST /venues/:venue_id/reconciliation/run requests.
func (c *ReconciliationController) RunBatch(ctx *gin.Context) {
	venueID, ok := parseUUIDParam(ctx, "venue_id")
	if !ok {
		return
	}

	var req dto.RunReconciliationRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "Invalid request body", err)
			return
		}
	}

	input := reconciliation.BatchReconcileInput{
		VenueID:       venueID,
		AutoMatchOnly: req.AutoMatchOnly,
	}

	var err error
	if input.DateFrom, err = parseDatePtr(req.DateFrom); err != nil {
		badRequest(ctx, "Invalid date_from", err)
		return
	}
	if input.DateTo, err = parseDatePtr(req.DateTo); err != nil {
		badRequest(ctx, "Invalid date_to", err)
		return
	}

	result, err := c.uc.Batch.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBatchResultResponse(result))
}

// GetSummary handles GET /venues/:venue_id/reconciliation/summary requests.
func (c *ReconciliationController) GetSummary(ctx *gin.Context) {
	venueID, ok := parseUUIDParam(ctx, "venue_id")
	if !ok {
		return
	}

	summary, err := c.uc.Summary.Execute(ctx.Request.Context(), reconciliation.GetSummaryInput{VenueID: venueID})
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToSummaryResponse(summary))
}

// GetReview handles GET /reconciliation/transactions/:id requests.
func (c *ReconciliationController) GetReview(ctx *gin.Context) {
	txID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	limit := 0
	if limitStr := ctx.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			badRequest(ctx, "limit must be a positive integer", err)
			return
		}
		limit = l
	}

	output, err := c.uc.Review.Execute(ctx.Request.Context(), reconciliation.GetReviewInput{
		TransactionID: txID,
		Limit:         limit,
	})
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToReviewResponse(output))
}

// GetAudit handles GET /reconciliation/transactions/:id/audit requests.
func (c *ReconciliationController) GetAudit(ctx *gin.Context) {
	txID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	entries, err := c.uc.Audit.Execute(ctx.Request.Context(), reconciliation.GetAuditInput{TransactionID: txID})
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToAuditEntryResponses(entries))
}

// Confirm handles POST /reconciliation/transactions/:id/confirm requests.
func (c *ReconciliationController) Confirm(ctx *gin.Context) {
	txID, actorID, ok := actionParams(ctx)
	if !ok {
		return
	}

	output, err := c.uc.Confirm.Execute(ctx.Request.Context(), reconciliation.ConfirmInput{
		TransactionID: txID,
		ActorID:       actorID,
	})
	c.respondAction(ctx, output, err)
}

// ManualMatch handles POST /reconciliation/transactions/:id/match requests.
func (c *ReconciliationController) ManualMatch(ctx *gin.Context) {
	txID, actorID, ok := actionParams(ctx)
	if !ok {
		return
	}

	var req dto.ManualMatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "entry_id is required", err)
		return
	}
	entryID, err := uuid.Parse(req.EntryID)
	if err != nil {
		badRequest(ctx, "Invalid entry_id", err)
		return
	}

	output, err := c.uc.ManualMatch.Execute(ctx.Request.Context(), reconciliation.ManualMatchInput{
		TransactionID: txID,
		EntryID:       entryID,
		ActorID:       actorID,
	})
	c.respondAction(ctx, output, err)
}

// Ignore handles POST /reconciliation/transactions/:id/ignore requests.
func (c *ReconciliationController) Ignore(ctx *gin.Context) {
	txID, actorID, ok := actionParams(ctx)
	if !ok {
		return
	}

	output, err := c.uc.Ignore.Execute(ctx.Request.Context(), reconciliation.IgnoreInput{
		TransactionID: txID,
		ActorID:       actorID,
	})
	c.respondAction(ctx, output, err)
}

// Unmatch handles POST /reconciliation/transactions/:id/unmatch requests.
func (c *ReconciliationController) Unmatch(ctx *gin.Context) {
	txID, actorID, ok := actionParams(ctx)
	if !ok {
		return
	}

	output, err := c.uc.Unmatch.Execute(ctx.Request.Context(), reconciliation.UnmatchInput{
		TransactionID: txID,
		ActorID:       actorID,
	})
	c.respondAction(ctx, output, err)
}

func (c *ReconciliationController) respondAction(ctx *gin.Context, output *reconciliation.ActionOutput, err error) {
	if err != nil {
		c.handleReconciliationError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToBankTransactionResponse(output.Transaction))
}

// actionParams extracts the transaction ID and the authenticated actor.
func actionParams(ctx *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return uuid.Nil, uuid.Nil, false
	}

	txID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return txID, actorID, true
}

func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		badRequest(ctx, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func parseDateQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	return parseDatePtr(&value)
}

func parseDatePtr(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(reconciliation.DateLayout, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func badRequest(ctx *gin.Context, message string, err error) {
	resp := dto.ErrorResponse{
		Error: message,
		Code:  string(domainerror.ErrCodeMalformedInput),
	}
	if err != nil {
		resp.Details = err.Error()
	}
	ctx.JSON(http.StatusBadRequest, resp)
}

// handleReconciliationError handles reconciliation errors and returns appropriate HTTP responses.
func (c *ReconciliationController) handleReconciliationError(ctx *gin.Context, err error) {
	var recErr *domainerror.ReconciliationError
	if errors.As(err, &recErr) {
		ctx.JSON(statusCodeForReconciliationError(recErr.Code), dto.ErrorResponse{
			Error:         recErr.Message,
			Code:          string(recErr.Code),
			CurrentStatus: recErr.CurrentStatus,
		})
		return
	}

	slog.Error("Reconciliation request failed", "path", ctx.FullPath(), "error", err)
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// statusCodeForReconciliationError maps error codes to HTTP status codes.
func statusCodeForReconciliationError(code domainerror.ReconciliationErrorCode) int {
	switch code {
	case domainerror.ErrCodeTransactionNotFound,
		domainerror.ErrCodeLedgerEntryNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeInvalidStateTransition,
		domainerror.ErrCodeNothingToConfirm,
		domainerror.ErrCodeExclusivityViolation,
		domainerror.ErrCodeBatchInProgress:
		return http.StatusConflict
	case domainerror.ErrCodeMalformedInput,
		domainerror.ErrCodeInvalidDateRange:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
