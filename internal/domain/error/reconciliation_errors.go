// Package error defines domain-specific errors for the reconciliation engine.
package error

import "errors"

// Reconciliation domain errors.
var (
	// ErrTransactionNotFound is returned when a bank transaction does not exist.
	ErrTransactionNotFound = errors.New("bank transaction not found")

	// ErrLedgerEntryNotFound is returned when a ledger entry does not exist or is not
	// an eligible bank-register entry of the transaction's venue.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// ErrInvalidStateTransition is returned when an action is not permitted from the
	// transaction's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrExclusivityViolation is returned when a ledger entry is already linked to a
	// different bank transaction.
	ErrExclusivityViolation = errors.New("ledger entry already linked to another transaction")

	// ErrStaleStatus is returned by conditional updates when the stored status no longer
	// equals the status the caller observed.
	ErrStaleStatus = errors.New("bank transaction status changed concurrently")

	// ErrMalformedInput is returned when an imported record is missing required fields.
	ErrMalformedInput = errors.New("malformed input")

	// ErrBatchInProgress is returned when another batch run holds the venue lock.
	ErrBatchInProgress = errors.New("reconciliation batch already running for venue")

	// ErrInvalidMatchingConfig is returned when weights or thresholds are inconsistent.
	ErrInvalidMatchingConfig = errors.New("invalid matching configuration")
)

// ReconciliationErrorCode defines error codes for reconciliation errors.
// Format: REC-XXYYYY where XX is category and YYYY is specific error.
type ReconciliationErrorCode string

const (
	// Lookup errors (01XXXX)
	ErrCodeTransactionNotFound ReconciliationErrorCode = "REC-010001"
	ErrCodeLedgerEntryNotFound ReconciliationErrorCode = "REC-010002"

	// State errors (02XXXX)
	ErrCodeInvalidStateTransition ReconciliationErrorCode = "REC-020001"
	ErrCodeNothingToConfirm       ReconciliationErrorCode = "REC-020002"
	ErrCodeExclusivityViolation   ReconciliationErrorCode = "REC-020003"
	ErrCodeBatchInProgress        ReconciliationErrorCode = "REC-020004"

	// Validation errors (03XXXX)
	ErrCodeMalformedInput        ReconciliationErrorCode = "REC-030001"
	ErrCodeInvalidDateRange      ReconciliationErrorCode = "REC-030002"
	ErrCodeInvalidMatchingConfig ReconciliationErrorCode = "REC-030003"
)

// ReconciliationError represents a reconciliation error with code and message.
// CurrentStatus is set for state errors so callers can decide whether to unmatch first.
type ReconciliationError struct {
	Code          ReconciliationErrorCode
	Message       string
	CurrentStatus string
	Err           error
}

// Error implements the error interface.
func (e *ReconciliationError) Error() string {
	msg := e.Message
	if e.CurrentStatus != "" {
		msg += " (current status " + e.CurrentStatus + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// NewReconciliationError creates a new ReconciliationError with the given code and message.
func NewReconciliationError(code ReconciliationErrorCode, message string, err error) *ReconciliationError {
	return &ReconciliationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewStateError creates an ErrInvalidStateTransition error carrying the current status.
func NewStateError(code ReconciliationErrorCode, message, currentStatus string) *ReconciliationError {
	return &ReconciliationError{
		Code:          code,
		Message:       message,
		CurrentStatus: currentStatus,
		Err:           ErrInvalidStateTransition,
	}
}
