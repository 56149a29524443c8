package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/integration/adapters"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/dto"
	"github.com/ledger-recon/backend/internal/integration/persistence"
	"github.com/ledger-recon/backend/internal/integration/persistence/model"
)

const dateLayout = "2006-01-02"

var tables = map[string]any{
	"bank_transactions":    &model.BankTransactionModel{},
	"ledger_entries":       &model.LedgerEntryModel{},
	"reconciliation_audit": &model.ReconciliationAuditModel{},
}

func contextOf(ctx context.Context) (*TestContext, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return nil, fmt.Errorf("test context not found")
	}
	return tc, nil
}

// Setup

func theAPIServerIsRunning(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	if tc.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func (tc *TestContext) sign(ttl time.Duration) (string, error) {
	claims := adapters.CustomClaims{
		UserID:    tc.userID.String(),
		Email:     reviewerEmail,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
}

func iAmAuthenticatedAsAReviewer(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tc.accessToken, err = tc.sign(time.Hour)
	return err
}

func iAmNotAuthenticated(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tc.accessToken = ""
	return nil
}

func myAccessTokenHasExpired(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tc.accessToken, err = tc.sign(-time.Minute)
	return err
}

func (tc *TestContext) saveEntry(ctx context.Context, date, description string, register entity.Register, debit, credit *decimal.Decimal) error {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return fmt.Errorf("invalid entry date %q: %w", date, err)
	}

	entry := &entity.LedgerEntry{
		ID:           uuid.New(),
		VenueID:      tc.venueID,
		Date:         d,
		Description:  description,
		DebitAmount:  debit,
		CreditAmount: credit,
		Register:     register,
		CreatedAt:    time.Now().UTC(),
	}
	if err := persistence.SaveLedgerEntries(ctx, testDB.DbConn, []*entity.LedgerEntry{entry}); err != nil {
		return err
	}
	tc.entries[description] = entry.ID
	return nil
}

func theLedgerHasABankEntry(ctx context.Context, date, description, side, amount string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	if side == "debiting" {
		return tc.saveEntry(ctx, date, description, entity.RegisterBank, &value, nil)
	}
	return tc.saveEntry(ctx, date, description, entity.RegisterBank, nil, &value)
}

func theLedgerHasACashRegisterEntry(ctx context.Context, date, description, amount string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	return tc.saveEntry(ctx, date, description, entity.RegisterCash, &value, nil)
}

// theBankStatementContains imports a date | description | amount table.
func theBankStatementContains(ctx context.Context, table *godog.Table) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	if len(table.Rows) < 2 {
		return fmt.Errorf("statement table needs a header and at least one row")
	}

	req := dto.ImportTransactionsRequest{}
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 3 {
			return fmt.Errorf("statement rows need date, description and amount")
		}
		req.Transactions = append(req.Transactions, dto.ImportTransactionDTO{
			Date:        row.Cells[0].Value,
			Description: row.Cells[1].Value,
			Amount:      row.Cells[2].Value,
		})
	}

	if err := tc.send(http.MethodPost, tc.venuePath("/bank-transactions/import"), req); err != nil {
		return err
	}
	if tc.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("import failed with status %d: %s", tc.response.StatusCode, tc.responseBody)
	}

	var resp dto.ImportTransactionsResponse
	if err := json.Unmarshal(tc.responseBody, &resp); err != nil {
		return fmt.Errorf("failed to parse import response: %w", err)
	}
	for _, tx := range resp.Transactions {
		tc.transactions[tx.Description] = uuid.MustParse(tx.ID)
	}
	return nil
}

func anotherBatchRunHoldsTheLock(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	return testRedis.Client.Set(ctx, "recon:batch-lock:"+tc.venueID.String(), "other-run", time.Minute).Err()
}

func theEmailAPIFailsWithStatus(status, times int) error {
	for i := 0; i < times; i++ {
		testResend.QueueResponse(http.MethodPost, "/emails", status, map[string]any{
			"statusCode": status,
			"name":       "application_error",
			"message":    "upstream unavailable",
		})
	}
	return nil
}

// Requests

func (tc *TestContext) venuePath(suffix string) string {
	return "/api/v1/venues/" + tc.venueID.String() + suffix
}

func (tc *TestContext) transactionPath(description, suffix string) (string, error) {
	id, ok := tc.transactions[description]
	if !ok {
		return "", fmt.Errorf("no imported transaction %q", description)
	}
	return "/api/v1/reconciliation/transactions/" + id.String() + suffix, nil
}

func (tc *TestContext) send(method, path string, body any) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	tc.response = resp
	tc.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

func iRunTheReconciliation(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	return tc.send(http.MethodPost, tc.venuePath("/reconciliation/run"), nil)
}

func iRunTheReconciliationWithBody(ctx context.Context, body *godog.DocString) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	return tc.send(http.MethodPost, tc.venuePath("/reconciliation/run"), body.Content)
}

func iApplyTheAction(ctx context.Context, action, description string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	path, err := tc.transactionPath(description, "/"+action)
	if err != nil {
		return err
	}
	return tc.send(http.MethodPost, path, nil)
}

func iMatchToTheEntry(ctx context.Context, description, entryDescription string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	path, err := tc.transactionPath(description, "/match")
	if err != nil {
		return err
	}
	entryID, ok := tc.entries[entryDescription]
	if !ok {
		return fmt.Errorf("no ledger entry %q", entryDescription)
	}
	return tc.send(http.MethodPost, path, dto.ManualMatchRequest{EntryID: entryID.String()})
}

func iRequestTheReviewOf(ctx context.Context, description string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	path, err := tc.transactionPath(description, "")
	if err != nil {
		return err
	}
	return tc.send(http.MethodGet, path, nil)
}

func iRequestTheAuditTrailOf(ctx context.Context, description string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	path, err := tc.transactionPath(description, "/audit")
	if err != nil {
		return err
	}
	return tc.send(http.MethodGet, path, nil)
}

func iRequestTheSummary(ctx context.Context) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	return tc.send(http.MethodGet, tc.venuePath("/reconciliation/summary"), nil)
}

// expandPath substitutes {venue} with the scenario's venue ID.
func (tc *TestContext) expandPath(path string) string {
	return strings.ReplaceAll(path, "{venue}", tc.venueID.String())
}

func iSendARequestTo(ctx context.Context, method, path string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	return tc.send(method, tc.expandPath(path), nil)
}

func iSendARequestToWithBody(ctx context.Context, method, path string, body *godog.DocString) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	return tc.send(method, tc.expandPath(path), body.Content)
}

// Response assertions

func theResponseStatusShouldBe(ctx context.Context, expected int) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}
	if tc.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expected, tc.response.StatusCode, tc.responseBody)
	}
	return nil
}

func theResponseShouldContain(ctx context.Context, expected string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(string(tc.responseBody), expected) {
		return fmt.Errorf("response does not contain '%s'. Body: %s", expected, tc.responseBody)
	}
	return nil
}

// lookup resolves a dotted path such as "results.0.status" in the response body.
func (tc *TestContext) lookup(path string) (any, error) {
	var current any
	if err := json.Unmarshal(tc.responseBody, &current); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if path == "" {
		return current, nil
	}

	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in response: %s", path, tc.responseBody)
			}
			current = value
		case []any:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(node) {
				return nil, fmt.Errorf("index '%s' out of range in '%s'", part, path)
			}
			current = node[index]
		default:
			return nil, fmt.Errorf("cannot descend into '%s' of '%s'", part, path)
		}
	}
	return current, nil
}

func theResponseFieldShouldBe(ctx context.Context, field, expected string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	value, err := tc.lookup(field)
	if err != nil {
		return err
	}

	actual := fmt.Sprintf("%v", value)
	if value == nil {
		actual = "null"
	}
	if actual != expected {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expected, actual)
	}
	return nil
}

func theResponseFieldShouldHaveItems(ctx context.Context, field string, count int) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	value, err := tc.lookup(field)
	if err != nil {
		return err
	}
	return hasItems(field, value, count)
}

func theResponseShouldHaveItems(ctx context.Context, count int) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	value, err := tc.lookup("")
	if err != nil {
		return err
	}
	return hasItems("response", value, count)
}

func hasItems(name string, value any, count int) error {
	items, ok := value.([]any)
	if !ok {
		if value == nil && count == 0 {
			return nil
		}
		return fmt.Errorf("'%s' is not a list", name)
	}
	if len(items) != count {
		return fmt.Errorf("'%s' expected %d items, got %d", name, count, len(items))
	}
	return nil
}

// State assertions

func (tc *TestContext) stored(ctx context.Context, description string) (*entity.BankTransaction, error) {
	id, ok := tc.transactions[description]
	if !ok {
		return nil, fmt.Errorf("no imported transaction %q", description)
	}
	return tc.txRepo.FindByID(ctx, id)
}

func theTransactionShouldHaveStatus(ctx context.Context, description, status string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tx, err := tc.stored(ctx, description)
	if err != nil {
		return err
	}
	if string(tx.Status) != status {
		return fmt.Errorf("transaction %q expected status %s, got %s", description, status, tx.Status)
	}
	return nil
}

func theTransactionShouldBeLinkedTo(ctx context.Context, description, entryDescription, confidence string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tx, err := tc.stored(ctx, description)
	if err != nil {
		return err
	}

	if tx.MatchedEntryID == nil || *tx.MatchedEntryID != tc.entries[entryDescription] {
		return fmt.Errorf("transaction %q is not linked to %q", description, entryDescription)
	}
	want, err := strconv.ParseFloat(confidence, 64)
	if err != nil {
		return err
	}
	if tx.MatchConfidence == nil || math.Abs(*tx.MatchConfidence-want) > 1e-9 {
		return fmt.Errorf("transaction %q expected confidence %s, got %v", description, confidence, tx.MatchConfidence)
	}
	return nil
}

func theTransactionShouldNotBeLinked(ctx context.Context, description string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tx, err := tc.stored(ctx, description)
	if err != nil {
		return err
	}
	if tx.MatchedEntryID != nil || tx.MatchConfidence != nil {
		return fmt.Errorf("transaction %q is still linked to %s", description, tx.MatchedEntryID)
	}
	return nil
}

func theTransactionShouldHaveBeenReconciledByMe(ctx context.Context, description string) error {
	tc, err := contextOf(ctx)
	if err != nil {
		return err
	}
	tx, err := tc.stored(ctx, description)
	if err != nil {
		return err
	}
	if tx.ReconciledBy == nil || *tx.ReconciledBy != tc.userID || tx.ReconciledAt == nil {
		return fmt.Errorf("transaction %q was not reconciled by %s", description, tc.userID)
	}
	return nil
}

func theDbShouldContainObjectsInTheTable(count int, table string) error {
	m, ok := tables[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	actual, err := testDB.Count(m)
	if err != nil {
		return err
	}
	if actual != int64(count) {
		return fmt.Errorf("expected %d rows in %s, got %d", count, table, actual)
	}
	return nil
}

func theEmailAPIShouldHaveReceivedRequests(count int) error {
	received := testResend.GetRequestBodies(http.MethodPost, "/emails")
	if len(received) != count {
		return fmt.Errorf("expected %d email requests, got %d", count, len(received))
	}
	return nil
}

func theLastEmailShouldHaveTheSubject(subject string) error {
	received := testResend.GetRequestBodies(http.MethodPost, "/emails")
	if len(received) == 0 {
		return fmt.Errorf("no email was sent")
	}
	if actual := received[len(received)-1]["subject"]; actual != subject {
		return fmt.Errorf("expected subject %q, got %v", subject, actual)
	}
	if auth := testResend.GetRequestHeaders(http.MethodPost, "/emails", len(received)-1).Get("Authorization"); auth != "Bearer re_test" {
		return fmt.Errorf("email request was not authenticated, got %q", auth)
	}
	return nil
}
