// Package email delivers reviewer notifications via Resend.
package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/resend/resend-go/v2"

	"github.com/ledger-recon/backend/internal/application/adapter"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

// ResendClient implements the adapter.EmailSender interface using Resend.
type ResendClient struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendClient creates a new Resend client.
func NewResendClient(apiKey, fromName, fromEmail string) *ResendClient {
	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SetBaseURL points the client at another Resend-compatible endpoint.
func (c *ResendClient) SetBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid Resend base URL %q: %w", raw, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.client.BaseURL = u
	return nil
}

// Send sends an email via Resend.
func (c *ResendClient) Send(ctx context.Context, input adapter.SendEmailInput) (*adapter.SendEmailResult, error) {
	to := input.To
	if input.Name != "" {
		to = fmt.Sprintf("%s <%s>", input.Name, input.To)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{to},
		Subject: input.Subject,
		Html:    input.HTML,
		Text:    input.Text,
	}

	resp, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return nil, classifySendError(err)
	}

	return &adapter.SendEmailResult{ResendID: resp.Id}, nil
}

// classifySendError maps a Resend failure to a permanent or temporary EmailError.
// 401, 403 and 422 responses will not succeed on retry; 429 and 5xx may.
func classifySendError(err error) error {
	if isPermanentError(err) {
		return domainerror.NewEmailError(domainerror.ErrCodePermanentEmailFailure, "permanent email failure", err)
	}
	return domainerror.NewEmailError(domainerror.ErrCodeTemporaryEmailFailure, "temporary email failure", err)
}

var permanentPatterns = []string{
	"401",
	"403",
	"422",
	"unauthorized",
	"forbidden",
	"validation",
	"invalid",
	"bad request",
}

func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range permanentPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// RecordingSender is an in-memory adapter.EmailSender for tests and local runs.
// Failures can be scripted per call with FailNext.
type RecordingSender struct {
	mu       sync.Mutex
	sent     []adapter.SendEmailInput
	failures []error
}

// NewRecordingSender creates a new RecordingSender.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

// Send records input, or returns the next scripted failure.
func (s *RecordingSender) Send(_ context.Context, input adapter.SendEmailInput) (*adapter.SendEmailResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return nil, err
	}

	s.sent = append(s.sent, input)
	return &adapter.SendEmailResult{ResendID: fmt.Sprintf("local-%d", len(s.sent))}, nil
}

// FailNext makes the next len(errs) calls fail with errs, in order.
func (s *RecordingSender) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

// Sent returns a copy of the delivered emails.
func (s *RecordingSender) Sent() []adapter.SendEmailInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]adapter.SendEmailInput(nil), s.sent...)
}

// Reset clears delivered emails and scripted failures.
func (s *RecordingSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.failures = nil
}

var (
	_ adapter.EmailSender = (*ResendClient)(nil)
	_ adapter.EmailSender = (*RecordingSender)(nil)
)
