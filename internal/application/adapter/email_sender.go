// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"
)

// SendEmailInput represents the input for sending an email.
type SendEmailInput struct {
	To      string
	Name    string
	Subject string
	HTML    string
	Text    string
}

// SendEmailResult represents the result of sending an email.
type SendEmailResult struct {
	ResendID string
}

// EmailSender defines the interface for sending emails via an external provider.
type EmailSender interface {
	// Send sends an email via the email provider (e.g., Resend).
	Send(ctx context.Context, input SendEmailInput) (*SendEmailResult, error)
}

// ReviewDigestItem is one transaction awaiting review.
type ReviewDigestItem struct {
	TransactionID uuid.UUID
	Description   string
	Amount        string
	Confidence    float64
}

// ReviewDigestInput summarizes a batch run that left transactions to review.
type ReviewDigestInput struct {
	VenueID        uuid.UUID
	MatchedCount   int
	ToReviewCount  int
	UnmatchedCount int
	Items          []ReviewDigestItem
}

// ReviewNotifier tells reviewers that a batch run left work for them.
type ReviewNotifier interface {
	// NotifyReviewPending sends the review digest.
	NotifyReviewPending(ctx context.Context, input ReviewDigestInput) error
}
