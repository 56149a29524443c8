package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledger-recon/backend/internal/application/adapter"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/integration/email/templates"
)

// maxDigestRows caps the transactions listed in one digest.
const maxDigestRows = 20

// NotifierConfig configures the review digest notifier.
type NotifierConfig struct {
	Recipients  []string
	AppBaseURL  string
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultNotifierConfig returns the default retry policy with no recipients.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

// ReviewDigestNotifier implements adapter.ReviewNotifier by email.
type ReviewDigestNotifier struct {
	sender   adapter.EmailSender
	renderer *templates.Renderer
	config   NotifierConfig
}

// NewReviewDigestNotifier creates a new ReviewDigestNotifier.
func NewReviewDigestNotifier(sender adapter.EmailSender, renderer *templates.Renderer, config NotifierConfig) *ReviewDigestNotifier {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &ReviewDigestNotifier{
		sender:   sender,
		renderer: renderer,
		config:   config,
	}
}

// NotifyReviewPending emails the digest to every configured reviewer.
// Temporary failures are retried; the first recipient that cannot be reached aborts the run.
func (n *ReviewDigestNotifier) NotifyReviewPending(ctx context.Context, input adapter.ReviewDigestInput) error {
	if len(n.config.Recipients) == 0 {
		slog.Debug("No reviewers configured, skipping review digest", "venueID", input.VenueID)
		return nil
	}

	html, text, err := n.renderer.Render(templates.ReviewDigest, n.digestData(input))
	if err != nil {
		return domainerror.NewEmailError(domainerror.ErrCodeTemplateRenderFailed, "failed to render review digest", err)
	}

	subject := fmt.Sprintf("%d transactions to review", input.ToReviewCount)
	for _, to := range n.config.Recipients {
		msg := adapter.SendEmailInput{
			To:      to,
			Subject: subject,
			HTML:    html,
			Text:    text,
		}
		if err := n.sendWithRetry(ctx, msg); err != nil {
			return err
		}
	}

	return nil
}

func (n *ReviewDigestNotifier) sendWithRetry(ctx context.Context, msg adapter.SendEmailInput) error {
	var lastErr error
	for attempt := 1; attempt <= n.config.MaxAttempts; attempt++ {
		result, err := n.sender.Send(ctx, msg)
		if err == nil {
			slog.Info("Review digest sent", "recipient", msg.To, "resendID", result.ResendID, "attempt", attempt)
			return nil
		}

		if domainerror.IsPermanent(err) {
			return err
		}
		lastErr = err
		if attempt == n.config.MaxAttempts {
			break
		}

		slog.Warn("Review digest delivery failed, retrying", "recipient", msg.To, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.config.RetryDelay * time.Duration(attempt)):
		}
	}

	return domainerror.NewEmailError(domainerror.ErrCodeEmailSendFailed, "failed to send review digest to "+msg.To, lastErr)
}

func (n *ReviewDigestNotifier) digestData(input adapter.ReviewDigestInput) templates.ReviewDigestData {
	base := strings.TrimRight(n.config.AppBaseURL, "/")
	data := templates.ReviewDigestData{
		VenueID:        input.VenueID.String(),
		MatchedCount:   input.MatchedCount,
		ToReviewCount:  input.ToReviewCount,
		UnmatchedCount: input.UnmatchedCount,
		ReviewURL:      fmt.Sprintf("%s/venues/%s/reconciliation?status=TO_REVIEW", base, input.VenueID),
	}

	for i, item := range input.Items {
		if i == maxDigestRows {
			data.Omitted = len(input.Items) - maxDigestRows
			break
		}
		data.Rows = append(data.Rows, templates.ReviewDigestRow{
			TransactionID: item.TransactionID.String(),
			Description:   item.Description,
			Amount:        item.Amount,
			Confidence:    fmt.Sprintf("%.2f", item.Confidence),
			ReviewURL:     fmt.Sprintf("%s/venues/%s/reconciliation/%s", base, input.VenueID, item.TransactionID),
		})
	}

	return data
}

var _ adapter.ReviewNotifier = (*ReviewDigestNotifier)(nil)
