// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ledger-recon/backend/config"
	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/infra/dependency"
	"github.com/ledger-recon/backend/internal/integration/persistence"
	"github.com/ledger-recon/backend/test/integration/mock"
)

const (
	testJWTSecret = "test-jwt-secret-key-for-testing-purposes"
	reviewerEmail = "reviewer@example.com"
)

// Suite-wide collaborators, reset before every scenario.
var (
	testDB     *mock.Db
	testRedis  *mock.Redis
	testResend *mock.ApiMock
)

// TestContext holds the test state for each scenario.
type TestContext struct {
	server       *httptest.Server
	client       *http.Client
	response     *http.Response
	responseBody []byte

	accessToken string
	userID      uuid.UUID
	venueID     uuid.UUID

	// transactions and entries are keyed by description.
	transactions map[string]uuid.UUID
	entries      map[string]uuid.UUID

	txRepo adapter.BankTransactionRepository
	cfg    *config.Config
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)

		testDB = mock.NewDb()
		testRedis = mock.NewRedis()
		testResend = mock.NewApiServer()
		testResend.Start()
	})

	ctx.AfterSuite(func() {
		testResend.Close()
		testRedis.Close()
		_ = testDB.Close()
	})
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test", RunRateLimit: 5},
		Redis:  config.RedisConfig{LockTTL: time.Minute},
		JWT:    config.JWTConfig{Secret: testJWTSecret},
		Email: config.EmailConfig{
			ResendAPIKey:   "re_test",
			ResendBaseURL:  testResend.GetUrl(),
			FromName:       "Ledger Reconciliation",
			FromEmail:      "recon@example.com",
			AppBaseURL:     "https://recon.example.com",
			ReviewerEmails: []string{reviewerEmail},
			MaxAttempts:    2,
			RetryDelay:     time.Millisecond,
		},
	}
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		if err := testDB.ClearDB(); err != nil {
			return ctx, err
		}
		if err := testRedis.Clear(); err != nil {
			return ctx, err
		}
		testResend.Reset()
		testResend.SetDefaultResponse(http.MethodPost, "/emails", http.StatusOK, map[string]any{"id": uuid.NewString()})

		tc := &TestContext{
			client:       &http.Client{Timeout: 10 * time.Second},
			userID:       uuid.New(),
			venueID:      uuid.New(),
			transactions: map[string]uuid.UUID{},
			entries:      map[string]uuid.UUID{},
			txRepo:       persistence.NewBankTransactionRepository(testDB.DbConn),
			cfg:          newTestConfig(),
		}

		injector, err := dependency.NewInjector(tc.cfg, testDB.DbConn, dependency.Options{Redis: testRedis.Client})
		if err != nil {
			return ctx, fmt.Errorf("failed to wire application: %w", err)
		}
		tc.server = httptest.NewServer(injector.Router.Setup(tc.cfg.Server.Environment))

		return SetTestContext(ctx, tc), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc := GetTestContext(ctx); tc != nil && tc.server != nil {
			tc.server.Close()
		}
		return ctx, nil
	})

	registerSetupSteps(ctx)
	registerRequestSteps(ctx)
	registerResponseSteps(ctx)
	registerStateSteps(ctx)
}

func registerSetupSteps(ctx *godog.ScenarioContext) {
	ctx.Given(`^the API server is running$`, theAPIServerIsRunning)
	ctx.Given(`^I am authenticated as a reviewer$`, iAmAuthenticatedAsAReviewer)
	ctx.Given(`^I am not authenticated$`, iAmNotAuthenticated)
	ctx.Given(`^my access token has expired$`, myAccessTokenHasExpired)
	ctx.Given(`^the ledger has a bank entry on "([^"]*)" for "([^"]*)" (debiting|crediting) "([^"]*)"$`, theLedgerHasABankEntry)
	ctx.Given(`^the ledger has a cash register entry on "([^"]*)" for "([^"]*)" debiting "([^"]*)"$`, theLedgerHasACashRegisterEntry)
	ctx.Given(`^the bank statement contains:$`, theBankStatementContains)
	ctx.Given(`^another batch run holds the lock for the venue$`, anotherBatchRunHoldsTheLock)
	ctx.Given(`^the email API fails with status (\d+) (\d+) times?$`, theEmailAPIFailsWithStatus)
}

func registerRequestSteps(ctx *godog.ScenarioContext) {
	ctx.When(`^I run the reconciliation$`, iRunTheReconciliation)
	ctx.When(`^I run the reconciliation with body:$`, iRunTheReconciliationWithBody)
	ctx.When(`^I (confirm|ignore|unmatch) "([^"]*)"$`, iApplyTheAction)
	ctx.When(`^I match "([^"]*)" to the entry "([^"]*)"$`, iMatchToTheEntry)
	ctx.When(`^I request the review of "([^"]*)"$`, iRequestTheReviewOf)
	ctx.When(`^I request the audit trail of "([^"]*)"$`, iRequestTheAuditTrailOf)
	ctx.When(`^I request the summary$`, iRequestTheSummary)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, iSendARequestToWithBody)
}

func registerResponseSteps(ctx *godog.ScenarioContext) {
	ctx.Then(`^the response status should be (\d+)$`, theResponseStatusShouldBe)
	ctx.Then(`^the response should contain "([^"]*)"$`, theResponseShouldContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should have (\d+) items?$`, theResponseFieldShouldHaveItems)
	ctx.Then(`^the response should have (\d+) items?$`, theResponseShouldHaveItems)
}

func registerStateSteps(ctx *godog.ScenarioContext) {
	ctx.Then(`^the transaction "([^"]*)" should have status "([^"]*)"$`, theTransactionShouldHaveStatus)
	ctx.Then(`^the transaction "([^"]*)" should be linked to the entry "([^"]*)" with confidence "([^"]*)"$`, theTransactionShouldBeLinkedTo)
	ctx.Then(`^the transaction "([^"]*)" should not be linked to any entry$`, theTransactionShouldNotBeLinked)
	ctx.Then(`^the transaction "([^"]*)" should have been reconciled by me$`, theTransactionShouldHaveBeenReconciledByMe)
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, theDbShouldContainObjectsInTheTable)
	ctx.Then(`^the email API should have received (\d+) requests?$`, theEmailAPIShouldHaveReceivedRequests)
	ctx.Then(`^the last email should have the subject "([^"]*)"$`, theLastEmailShouldHaveTheSubject)
}
