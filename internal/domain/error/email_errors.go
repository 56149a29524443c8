// Package error defines domain-specific errors for the reconciliation engine.
package error

import "errors"

// EmailErrorCode classifies review digest delivery failures.
type EmailErrorCode string

const (
	ErrCodeEmailSendFailed       EmailErrorCode = "EMAIL-020001"
	ErrCodePermanentEmailFailure EmailErrorCode = "EMAIL-020002"
	ErrCodeTemporaryEmailFailure EmailErrorCode = "EMAIL-020003"

	ErrCodeTemplateRenderFailed EmailErrorCode = "EMAIL-030002"
)

// EmailError wraps a delivery or rendering failure with its code.
type EmailError struct {
	Code    EmailErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *EmailError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *EmailError) Unwrap() error {
	return e.Err
}

// NewEmailError creates a new EmailError with the given code and message.
func NewEmailError(code EmailErrorCode, message string, err error) *EmailError {
	return &EmailError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsPermanent reports whether err is a permanent email failure.
func IsPermanent(err error) bool {
	var emailErr *EmailError
	if errors.As(err, &emailErr) {
		return emailErr.Code == ErrCodePermanentEmailFailure
	}
	return false
}
