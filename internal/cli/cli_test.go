package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/config"
	"github.com/ledger-recon/backend/internal/domain/entity"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
	"github.com/ledger-recon/backend/internal/infra/db"
	"github.com/ledger-recon/backend/internal/infra/dependency"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/controller"
	"github.com/ledger-recon/backend/internal/integration/persistence"
)

func TestReadStatement(t *testing.T) {
	records, err := readStatement(strings.NewReader(
		"Amount, Date, Description\n" +
			"-150.00, 2024-03-10, PAGAMENTO FORNITORE ACME SRL\n" +
			"\"1,200.50\", 2024-03-11, \"Incasso POS, cassa 2\"\n",
	))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2024-03-10", records[0].Date)
	assert.Equal(t, "PAGAMENTO FORNITORE ACME SRL", records[0].Description)
	assert.Equal(t, "-150.00", records[0].Amount)
	assert.Equal(t, "Incasso POS, cassa 2", records[1].Description)
	assert.Equal(t, "1,200.50", records[1].Amount)
}

func TestReadStatement_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "statement is empty"},
		{name: "missing column", input: "date,amount\n2024-03-10,1\n", wantErr: `missing column "description"`},
		{name: "ragged row", input: "date,description,amount\n2024-03-10,x\n", wantErr: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readStatement(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// cliEnv runs commands against one SQLite database shared by every invocation.
type cliEnv struct {
	t       *testing.T
	db      *gorm.DB
	venueID uuid.UUID
	open    OpenFunc
	opened  int
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)

	database, err := db.NewSQLiteConnection(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	e := &cliEnv{t: t, db: database.DB(), venueID: uuid.New()}
	e.open = func(context.Context) (*controller.ReconciliationUseCases, func(), error) {
		e.opened++
		injector, err := dependency.NewInjector(&config.Config{}, e.db, dependency.Options{})
		if err != nil {
			return nil, nil, err
		}
		return &injector.UseCases, func() {}, nil
	}
	return e
}

func (e *cliEnv) run(args ...string) error {
	e.t.Helper()

	cmd, closeSession := NewRootCmd(e.open)
	defer closeSession()

	cmd.SetArgs(args)
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	return cmd.ExecuteContext(context.Background())
}

func (e *cliEnv) statement(content string) string {
	e.t.Helper()

	path := filepath.Join(e.t.TempDir(), "statement.csv")
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *cliEnv) transactions() []*entity.BankTransaction {
	e.t.Helper()

	txs, err := persistence.NewBankTransactionRepository(e.db).FindByFilter(context.Background(), entity.BankTransactionFilter{VenueID: e.venueID})
	require.NoError(e.t, err)
	return txs
}

func TestCommands_ImportRunAndReview(t *testing.T) {
	e := newCLIEnv(t)

	debit := decimal.RequireFromString("150.00")
	require.NoError(t, persistence.SaveLedgerEntries(context.Background(), e.db, []*entity.LedgerEntry{
		{
			ID:          uuid.New(),
			VenueID:     e.venueID,
			Date:        time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
			Description: "ACME SRL",
			DebitAmount: &debit,
			Register:    entity.RegisterBank,
			CreatedAt:   time.Now().UTC(),
		},
	}))

	venue := e.venueID.String()
	path := e.statement("date,description,amount\n" +
		"2024-03-10,PAGAMENTO FORNITORE ACME SRL,150.00\n" +
		"2024-03-20,Commissioni,-2.50\n")

	require.NoError(t, e.run("import", path, "--venue", venue))
	require.Len(t, e.transactions(), 2)

	require.NoError(t, e.run("run", "--venue", venue, "--from", "2024-03-01", "--to", "2024-03-31"))

	txs := e.transactions()
	assert.Equal(t, valueobject.StatusToReview, txs[0].Status)
	assert.Equal(t, valueobject.StatusUnmatched, txs[1].Status)

	review := txs[0].ID.String()
	require.NoError(t, e.run("review", review, "--limit", "3"))
	require.NoError(t, e.run("summary", "--venue", venue))

	actor := uuid.NewString()
	require.NoError(t, e.run("confirm", review, "--actor", actor))
	require.NoError(t, e.run("ignore", txs[1].ID.String(), "-a", actor))

	txs = e.transactions()
	assert.Equal(t, valueobject.StatusMatched, txs[0].Status)
	assert.Equal(t, actor, txs[0].ReconciledBy.String())
	assert.Equal(t, valueobject.StatusIgnored, txs[1].Status)

	require.NoError(t, e.run("unmatch", review))
	assert.Equal(t, valueobject.StatusPending, e.transactions()[0].Status)
}

func TestCommands_Errors(t *testing.T) {
	e := newCLIEnv(t)
	venue := e.venueID.String()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "bad venue", args: []string{"run", "--venue", "nope"}, wantErr: "invalid venue ID"},
		{name: "bad date", args: []string{"run", "--venue", venue, "--from", "10/03/2024"}, wantErr: "--from"},
		{name: "actor required", args: []string{"confirm", uuid.NewString()}, wantErr: "actor"},
		{name: "unknown transaction", args: []string{"confirm", uuid.NewString(), "--actor", uuid.NewString()}, wantErr: "not found"},
		{name: "malformed statement", args: []string{"import", e.statement("date,description,amount\n2024-03-10,x,abc\n"), "--venue", venue}, wantErr: "record 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Empty(t, e.transactions())
}

func TestCommands_OpenOnlyWhenNeeded(t *testing.T) {
	e := newCLIEnv(t)

	require.Error(t, e.run("run", "--venue", "nope"))
	assert.Zero(t, e.opened, "flag errors do not touch the database")

	require.NoError(t, e.run("summary", "--venue", e.venueID.String()))
	assert.Equal(t, 1, e.opened)
}

func TestExecute_ReturnsExitCode(t *testing.T) {
	e := newCLIEnv(t)

	closed := 0
	open := func(ctx context.Context) (*controller.ReconciliationUseCases, func(), error) {
		useCases, _, err := e.open(ctx)
		return useCases, func() { closed++ }, err
	}

	args := os.Args
	t.Cleanup(func() { os.Args = args })

	os.Args = []string{"reconcile", "summary", "--venue", e.venueID.String()}
	assert.Equal(t, 0, Execute(context.Background(), open))
	assert.Equal(t, 1, closed)

	os.Args = []string{"reconcile", "confirm", "not-a-uuid", "--actor", uuid.NewString()}
	assert.Equal(t, 1, Execute(context.Background(), open))
}
