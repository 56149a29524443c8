package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/internal/application/adapter"
	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
	"github.com/ledger-recon/backend/internal/infra/db"
	"github.com/ledger-recon/backend/internal/integration/matchingconfig"
	"github.com/ledger-recon/backend/internal/integration/persistence"
)

var fixedNow = time.Date(2024, time.April, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func clockAt(offset time.Duration) Clock {
	return func() time.Time { return fixedNow.Add(offset) }
}

// env bundles a fresh SQLite store and the use cases wired on top of it.
type env struct {
	t       *testing.T
	db      *gorm.DB
	venueID uuid.UUID
	txRepo  adapter.BankTransactionRepository
	ledger  adapter.LedgerRepository
	audits  adapter.AuditRepository
	configs adapter.MatchingConfigProvider
	finder  *FindCandidatesUseCase
	metrics *recordingMetrics
}

func newEnv(t *testing.T) *env {
	t.Helper()

	database, err := db.NewSQLiteConnection(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	gdb := database.DB()
	ledger := persistence.NewLedgerRepository(gdb)
	configs := matchingconfig.NewStaticProvider(valueobject.DefaultMatchingConfig())

	return &env{
		t:       t,
		db:      gdb,
		venueID: uuid.New(),
		txRepo:  persistence.NewBankTransactionRepository(gdb),
		ledger:  ledger,
		audits:  persistence.NewAuditRepository(gdb),
		configs: configs,
		finder:  NewFindCandidatesUseCase(ledger, configs),
		metrics: &recordingMetrics{},
	}
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

// entry seeds a bank-register ledger entry with a debit amount.
func (e *env) entry(d time.Time, description, debit string) *entity.LedgerEntry {
	e.t.Helper()

	le := &entity.LedgerEntry{
		ID:          uuid.New(),
		VenueID:     e.venueID,
		Date:        d,
		Description: description,
		DebitAmount: money(debit),
		Register:    entity.RegisterBank,
		CreatedAt:   fixedNow,
	}
	require.NoError(e.t, persistence.SaveLedgerEntries(context.Background(), e.db, []*entity.LedgerEntry{le}))
	return le
}

// transaction seeds a PENDING bank transaction.
func (e *env) transaction(d time.Time, description, amount string) *entity.BankTransaction {
	e.t.Helper()

	tx := entity.NewBankTransaction(e.venueID, d, description, decimal.RequireFromString(amount))
	require.NoError(e.t, e.txRepo.CreateBatch(context.Background(), []*entity.BankTransaction{tx}))
	return tx
}

func (e *env) reload(id uuid.UUID) *entity.BankTransaction {
	e.t.Helper()

	tx, err := e.txRepo.FindByID(context.Background(), id)
	require.NoError(e.t, err)
	return tx
}

func (e *env) batch(repo adapter.BankTransactionRepository, locker adapter.VenueLocker, notifier adapter.ReviewNotifier) *BatchReconcileUseCase {
	if repo == nil {
		repo = e.txRepo
	}
	finder := NewFindCandidatesUseCase(e.ledger, e.configs)
	uc := NewBatchReconcileUseCase(repo, finder, e.configs, locker, notifier, e.metrics)
	uc.now = fixedClock
	return uc
}

func (e *env) confirm() *ConfirmUseCase {
	uc := NewConfirmUseCase(e.txRepo, e.metrics)
	uc.now = fixedClock
	return uc
}

func (e *env) manualMatch() *ManualMatchUseCase {
	uc := NewManualMatchUseCase(e.txRepo, e.ledger, e.configs, e.metrics)
	uc.now = fixedClock
	return uc
}

func (e *env) ignore() *IgnoreUseCase {
	uc := NewIgnoreUseCase(e.txRepo, e.metrics)
	uc.now = fixedClock
	return uc
}

func (e *env) unmatch() *UnmatchUseCase {
	uc := NewUnmatchUseCase(e.txRepo, e.metrics)
	uc.now = fixedClock
	return uc
}

func requireCode(t *testing.T, err error, code domainerror.ReconciliationErrorCode) *domainerror.ReconciliationError {
	t.Helper()

	require.Error(t, err)
	var recErr *domainerror.ReconciliationError
	require.True(t, errors.As(err, &recErr), "expected a ReconciliationError, got %v", err)
	require.Equal(t, code, recErr.Code)
	return recErr
}

type actionObservation struct {
	action  valueobject.ReconciliationAction
	outcome string
}

type recordingMetrics struct {
	mu      sync.Mutex
	batches []*valueobject.BatchResult
	actions []actionObservation
}

func (m *recordingMetrics) ObserveBatch(result *valueobject.BatchResult, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, result)
}

func (m *recordingMetrics) ObserveAction(action valueobject.ReconciliationAction, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, actionObservation{action: action, outcome: outcome})
}

type recordingNotifier struct {
	inputs []adapter.ReviewDigestInput
	err    error
}

func (n *recordingNotifier) NotifyReviewPending(_ context.Context, input adapter.ReviewDigestInput) error {
	n.inputs = append(n.inputs, input)
	return n.err
}

// interferingRepo injects the outcome of a concurrent writer into ApplyChange.
type interferingRepo struct {
	adapter.BankTransactionRepository

	// linkedElsewhere entries fail with ErrExclusivityViolation.
	linkedElsewhere map[uuid.UUID]bool
	// staleTransactions fail with ErrStaleStatus.
	staleTransactions map[uuid.UUID]bool
	// afterApply runs after every successful write.
	afterApply func()
}

func (r *interferingRepo) ApplyChange(ctx context.Context, change entity.StatusChange, audit *entity.AuditEntry) error {
	if change.EntryID != nil && r.linkedElsewhere[*change.EntryID] {
		return domainerror.ErrExclusivityViolation
	}
	if r.staleTransactions[change.TransactionID] {
		return domainerror.ErrStaleStatus
	}
	if err := r.BankTransactionRepository.ApplyChange(ctx, change, audit); err != nil {
		return err
	}
	if r.afterApply != nil {
		r.afterApply()
	}
	return nil
}
