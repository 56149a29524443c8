package dependency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-recon/backend/config"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/infra/db"
	"github.com/ledger-recon/backend/internal/integration/adapters"
	"github.com/ledger-recon/backend/internal/integration/email"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/dto"
	"github.com/ledger-recon/backend/internal/integration/persistence"
)

const testSecret = "test-secret"

type apiEnv struct {
	t       *testing.T
	engine  *gin.Engine
	venueID uuid.UUID
	userID  uuid.UUID
	token   string
	sender  *email.RecordingSender
}

func newAPIEnv(t *testing.T, mutate func(*config.Config)) *apiEnv {
	t.Helper()

	database, err := db.NewSQLiteConnection(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test", RunRateLimit: 10},
		JWT:    config.JWTConfig{Secret: testSecret},
		Email: config.EmailConfig{
			AppBaseURL:     "https://recon.example.com",
			ReviewerEmails: []string{"reviewer@example.com"},
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	sender := email.NewRecordingSender()
	injector, err := NewInjector(cfg, database.DB(), Options{EmailSender: sender})
	require.NoError(t, err)

	e := &apiEnv{
		t:       t,
		engine:  injector.Router.Setup("test"),
		venueID: uuid.New(),
		userID:  uuid.New(),
		sender:  sender,
	}
	e.token = e.sign(time.Hour)

	debit := decimal.RequireFromString("150.00")
	require.NoError(t, persistence.SaveLedgerEntries(context.Background(), database.DB(), []*entity.LedgerEntry{{
		ID:          uuid.New(),
		VenueID:     e.venueID,
		Date:        time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		Description: "ACME SRL",
		DebitAmount: &debit,
		Register:    entity.RegisterBank,
		CreatedAt:   time.Now().UTC(),
	}}))

	return e
}

func (e *apiEnv) sign(ttl time.Duration) string {
	e.t.Helper()

	claims := adapters.CustomClaims{
		UserID:    e.userID.String(),
		Email:     "reviewer@example.com",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(e.t, err)
	return token
}

func (e *apiEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) venuePath(suffix string) string {
	return "/api/v1/venues/" + e.venueID.String() + suffix
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *apiEnv) importStatement() []dto.BankTransactionResponse {
	e.t.Helper()

	w := e.do(http.MethodPost, e.venuePath("/bank-transactions/import"), dto.ImportTransactionsRequest{
		Transactions: []dto.ImportTransactionDTO{
			{Date: "2024-03-10", Description: "PAGAMENTO FORNITORE ACME SRL", Amount: "150.00"},
			{Date: "2024-03-20", Description: "Commissioni", Amount: "-2.50"},
		},
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[dto.ImportTransactionsResponse](e.t, w)
	require.Equal(e.t, 2, resp.ImportedCount)
	return resp.Transactions
}

func TestAPI_ReconciliationFlow(t *testing.T) {
	e := newAPIEnv(t, nil)
	imported := e.importStatement()
	reviewID := imported[0].ID
	feeID := imported[1].ID

	w := e.do(http.MethodPost, e.venuePath("/reconciliation/run"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	batch := decode[dto.BatchResultResponse](t, w)
	assert.Equal(t, 1, batch.ToReviewCount)
	assert.Equal(t, 1, batch.UnmatchedCount)
	require.Len(t, batch.Results, 2)

	require.Len(t, e.sender.Sent(), 1, "reviewers get a digest")
	digest := e.sender.Sent()[0]
	assert.Equal(t, "reviewer@example.com", digest.To)
	assert.Equal(t, "1 transactions to review", digest.Subject)
	assert.Contains(t, digest.Text, "PAGAMENTO FORNITORE ACME SRL")

	w = e.do(http.MethodGet, e.venuePath("/bank-transactions?status=TO_REVIEW"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	queue := decode[[]dto.BankTransactionResponse](t, w)
	require.Len(t, queue, 1)
	assert.Equal(t, reviewID, queue[0].ID)

	w = e.do(http.MethodGet, "/api/v1/reconciliation/transactions/"+reviewID+"?limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	review := decode[dto.ReviewResponse](t, w)
	require.NotNil(t, review.LinkedEntry)
	require.Len(t, review.Candidates, 1)
	assert.InDelta(t, 0.79, review.Candidates[0].Confidence, 1e-9)

	w = e.do(http.MethodPost, "/api/v1/reconciliation/transactions/"+reviewID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmed := decode[dto.BankTransactionResponse](t, w)
	assert.Equal(t, "MATCHED", confirmed.Status)
	require.NotNil(t, confirmed.ReconciledBy)
	assert.Equal(t, e.userID.String(), *confirmed.ReconciledBy)

	w = e.do(http.MethodPost, "/api/v1/reconciliation/transactions/"+reviewID+"/ignore", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, "REC-020001", conflict.Code)
	assert.Equal(t, "MATCHED", conflict.CurrentStatus)

	w = e.do(http.MethodPost, "/api/v1/reconciliation/transactions/"+feeID+"/match", dto.ManualMatchRequest{
		EntryID: review.LinkedEntry.ID,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REC-020003", decode[dto.ErrorResponse](t, w).Code)

	w = e.do(http.MethodPost, "/api/v1/reconciliation/transactions/"+reviewID+"/unmatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", decode[dto.BankTransactionResponse](t, w).Status)

	w = e.do(http.MethodGet, "/api/v1/reconciliation/transactions/"+reviewID+"/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trail := decode[[]dto.AuditEntryResponse](t, w)
	assert.Len(t, trail, 3)

	w = e.do(http.MethodGet, e.venuePath("/reconciliation/summary"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[dto.SummaryResponse](t, w)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Counts["PENDING"])
	assert.Equal(t, 1, summary.Counts["UNMATCHED"])
	assert.Zero(t, summary.Counts["MATCHED"])
}

func TestAPI_Errors(t *testing.T) {
	e := newAPIEnv(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name: "unknown transaction", method: http.MethodPost,
			path:   "/api/v1/reconciliation/transactions/" + uuid.NewString() + "/confirm",
			status: http.StatusNotFound, code: "REC-010001",
		},
		{
			name: "bad transaction id", method: http.MethodGet,
			path:   "/api/v1/reconciliation/transactions/nope",
			status: http.StatusBadRequest, code: "REC-030001",
		},
		{
			name: "empty import", method: http.MethodPost,
			path:   e.venuePath("/bank-transactions/import"),
			body:   dto.ImportTransactionsRequest{},
			status: http.StatusBadRequest, code: "REC-030001",
		},
		{
			name: "malformed amount", method: http.MethodPost,
			path: e.venuePath("/bank-transactions/import"),
			body: dto.ImportTransactionsRequest{Transactions: []dto.ImportTransactionDTO{
				{Date: "2024-03-10", Description: "x", Amount: "abc"},
			}},
			status: http.StatusBadRequest, code: "REC-030001",
		},
		{
			name: "inverted run range", method: http.MethodPost,
			path:   e.venuePath("/reconciliation/run"),
			body:   map[string]string{"date_from": "2024-03-31", "date_to": "2024-03-01"},
			status: http.StatusBadRequest, code: "REC-030002",
		},
		{
			name: "unknown status filter", method: http.MethodGet,
			path:   e.venuePath("/bank-transactions?status=DONE"),
			status: http.StatusBadRequest, code: "REC-030001",
		},
		{
			name: "manual match needs an entry", method: http.MethodPost,
			path:   "/api/v1/reconciliation/transactions/" + uuid.NewString() + "/match",
			body:   map[string]string{},
			status: http.StatusBadRequest, code: "REC-030001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[dto.ErrorResponse](t, w).Code)
		})
	}
}

func TestAPI_Authentication(t *testing.T) {
	e := newAPIEnv(t, nil)

	e.token = ""
	w := e.do(http.MethodGet, e.venuePath("/reconciliation/summary"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	e.token = e.sign(-time.Minute)
	w = e.do(http.MethodGet, e.venuePath("/reconciliation/summary"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	e.token = ""
	w = e.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "database")
}

func TestAPI_RunRateLimitAndMetrics(t *testing.T) {
	e := newAPIEnv(t, func(cfg *config.Config) { cfg.Server.RunRateLimit = 1 })
	e.importStatement()

	w := e.do(http.MethodPost, e.venuePath("/reconciliation/run"), map[string]bool{"auto_match_only": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	batch := decode[dto.BatchResultResponse](t, w)
	assert.Zero(t, batch.ToReviewCount)
	assert.Equal(t, 2, batch.UnmatchedCount)
	assert.Empty(t, e.sender.Sent())

	w = e.do(http.MethodPost, e.venuePath("/reconciliation/run"), nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	e.token = ""
	w = e.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "reconciliation_batch_runs_total 1"), body)
	assert.Contains(t, body, `reconciliation_batch_outcomes_total{status="UNMATCHED"} 2`)
}
