package reconciliation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-recon/backend/internal/domain/entity"
	domainerror "github.com/ledger-recon/backend/internal/domain/error"
	"github.com/ledger-recon/backend/internal/domain/valueobject"
	"github.com/ledger-recon/backend/internal/integration/persistence"
)

func TestImportTransactions(t *testing.T) {
	e := newEnv(t)
	uc := NewImportTransactionsUseCase(e.txRepo)
	uc.now = fixedClock

	out, err := uc.Execute(context.Background(), ImportTransactionsInput{
		VenueID: e.venueID,
		Records: []ImportRecord{
			{Date: "2024-03-10", Description: "  PAGAMENTO FORNITORE ACME SRL ", Amount: "-150.00"},
			{Date: "2024-03-11", Description: "Incasso POS", Amount: "1200.5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.ImportedCount)

	listed, err := NewListTransactionsUseCase(e.txRepo).Execute(context.Background(), ListTransactionsInput{VenueID: e.venueID})
	require.NoError(t, err)
	require.Len(t, listed, 2)

	first := listed[0]
	assert.Equal(t, valueobject.StatusPending, first.Status)
	assert.Equal(t, "PAGAMENTO FORNITORE ACME SRL", first.Description)
	assert.Equal(t, "-150.00", first.Amount.StringFixed(2))
	assert.True(t, first.TransactionDate.Equal(day(time.March, 10)))
	assert.True(t, first.CreatedAt.Equal(fixedNow))
	assert.Nil(t, first.MatchedEntryID)
}

func TestImportTransactions_RejectsWholeBatch(t *testing.T) {
	valid := ImportRecord{Date: "2024-03-10", Description: "Bonifico", Amount: "10.00"}

	tests := []struct {
		name     string
		nilVenue bool
		records  []ImportRecord
		message  string
	}{
		{name: "no records", records: nil, message: "at least one record"},
		{name: "missing venue", nilVenue: true, records: []ImportRecord{valid}, message: "venue_id"},
		{name: "bad date", records: []ImportRecord{valid, {Date: "10/03/2024", Description: "x", Amount: "1"}}, message: "record 2: date"},
		{name: "blank description", records: []ImportRecord{valid, {Date: "2024-03-10", Description: "  ", Amount: "1"}}, message: "record 2: description"},
		{name: "bad amount", records: []ImportRecord{{Date: "2024-03-10", Description: "x", Amount: "1,50"}}, message: "record 1: amount"},
		{name: "zero amount", records: []ImportRecord{valid, {Date: "2024-03-10", Description: "x", Amount: "0.00"}}, message: "must not be zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			venueID := e.venueID
			if tt.nilVenue {
				venueID = uuid.Nil
			}

			_, err := NewImportTransactionsUseCase(e.txRepo).Execute(context.Background(), ImportTransactionsInput{
				VenueID: venueID,
				Records: tt.records,
			})
			requireCode(t, err, domainerror.ErrCodeMalformedInput)
			assert.ErrorIs(t, err, domainerror.ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.message)

			listed, err := NewListTransactionsUseCase(e.txRepo).Execute(context.Background(), ListTransactionsInput{VenueID: e.venueID})
			require.NoError(t, err)
			assert.Empty(t, listed, "nothing is stored when any record is malformed")
		})
	}
}

func TestListTransactions_FiltersByStatusAndDate(t *testing.T) {
	e := newEnv(t)
	review, _ := e.proposed()
	march := e.transaction(day(time.March, 25), "Incasso POS", "90.00")
	e.transaction(day(time.April, 5), "Incasso POS", "95.00")

	uc := NewListTransactionsUseCase(e.txRepo)

	status := valueobject.StatusToReview
	queue, err := uc.Execute(context.Background(), ListTransactionsInput{VenueID: e.venueID, Status: &status})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, review.ID, queue[0].ID)

	from, to := day(time.March, 20), day(time.March, 31)
	inMarch, err := uc.Execute(context.Background(), ListTransactionsInput{VenueID: e.venueID, DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, inMarch, 1)
	assert.Equal(t, march.ID, inMarch[0].ID)

	other, err := uc.Execute(context.Background(), ListTransactionsInput{VenueID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListTransactions_Validation(t *testing.T) {
	e := newEnv(t)
	uc := NewListTransactionsUseCase(e.txRepo)

	bogus := valueobject.ReconciliationStatus("DONE")
	_, err := uc.Execute(context.Background(), ListTransactionsInput{VenueID: e.venueID, Status: &bogus})
	requireCode(t, err, domainerror.ErrCodeMalformedInput)

	from, to := day(time.March, 31), day(time.March, 1)
	_, err = uc.Execute(context.Background(), ListTransactionsInput{VenueID: e.venueID, DateFrom: &from, DateTo: &to})
	requireCode(t, err, domainerror.ErrCodeInvalidDateRange)
}

func TestGetSummary_ReportsEveryStatus(t *testing.T) {
	e := newEnv(t)
	review, _ := e.proposed()
	ignored := e.transaction(day(time.March, 25), "Commissioni", "-2.50")
	e.transaction(day(time.March, 26), "Incasso POS", "90.00")

	_, err := e.ignore().Execute(context.Background(), IgnoreInput{TransactionID: ignored.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	summary, err := NewGetSummaryUseCase(e.txRepo).Execute(context.Background(), GetSummaryInput{VenueID: e.venueID})
	require.NoError(t, err)

	assert.Equal(t, e.venueID, summary.VenueID)
	assert.Equal(t, 3, summary.Total)
	assert.Len(t, summary.Counts, len(valueobject.AllStatuses))
	assert.Equal(t, 1, summary.Counts[valueobject.StatusToReview])
	assert.Equal(t, 1, summary.Counts[valueobject.StatusIgnored])
	assert.Equal(t, 1, summary.Counts[valueobject.StatusPending])
	assert.Zero(t, summary.Counts[valueobject.StatusMatched])
	assert.Equal(t, valueobject.StatusToReview, e.reload(review.ID).Status)
}

func TestGetReview_CandidatesAndLinkedEntry(t *testing.T) {
	e := newEnv(t)
	holder, linked := e.proposed()
	sameDay := e.entry(day(time.March, 10), "ACME SRL", "150.00")
	other := e.transaction(day(time.March, 10), supplierPayment, "150.00")

	uc := NewGetReviewUseCase(e.txRepo, e.ledger, e.finder)

	out, err := uc.Execute(context.Background(), GetReviewInput{TransactionID: holder.ID})
	require.NoError(t, err)
	assert.Equal(t, holder.ID, out.Transaction.ID)
	require.NotNil(t, out.LinkedEntry)
	assert.Equal(t, linked.ID, out.LinkedEntry.ID)
	require.Len(t, out.Candidates, 2, "the transaction's own link stays eligible")
	assert.Equal(t, sameDay.ID, out.Candidates[0].EntryID)
	assert.InDelta(t, 0.94, out.Candidates[0].Confidence, 1e-9)
	assert.Equal(t, linked.ID, out.Candidates[1].EntryID)

	out, err = uc.Execute(context.Background(), GetReviewInput{TransactionID: other.ID})
	require.NoError(t, err)
	assert.Nil(t, out.LinkedEntry)
	require.Len(t, out.Candidates, 1, "entries linked to other transactions are hidden")
	assert.Equal(t, sameDay.ID, out.Candidates[0].EntryID)

	out, err = uc.Execute(context.Background(), GetReviewInput{TransactionID: holder.ID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.Candidates, 1)

	_, err = uc.Execute(context.Background(), GetReviewInput{TransactionID: uuid.New()})
	requireCode(t, err, domainerror.ErrCodeTransactionNotFound)
}

func TestFindCandidates_WindowRegisterAndFloor(t *testing.T) {
	e := newEnv(t)
	tx := e.transaction(day(time.March, 10), supplierPayment, "150.00")

	inside := e.entry(day(time.March, 17), "ACME SRL", "150.00")
	e.entry(day(time.March, 18), "ACME SRL", "150.00")       // 8 days away
	e.entry(day(time.March, 17), "Affitto locale", "999.00") // noise

	foreign := &entity.LedgerEntry{
		ID: uuid.New(), VenueID: uuid.New(), Date: day(time.March, 10),
		Description: "ACME SRL", DebitAmount: money("150.00"), Register: entity.RegisterBank, CreatedAt: fixedNow,
	}
	cash := &entity.LedgerEntry{
		ID: uuid.New(), VenueID: e.venueID, Date: day(time.March, 10),
		Description: "ACME SRL", DebitAmount: money("150.00"), Register: entity.RegisterCash, CreatedAt: fixedNow,
	}
	require.NoError(t, persistence.SaveLedgerEntries(context.Background(), e.db, []*entity.LedgerEntry{foreign, cash}))

	candidates, err := e.finder.Execute(context.Background(), FindCandidatesInput{Transaction: tx})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, inside.ID, candidates[0].EntryID)
	assert.Equal(t, 7, candidates[0].DayDistance)
	assert.InDelta(t, 0.64, candidates[0].Confidence, 1e-9)
}

func TestFindCandidates_OrderAndLimit(t *testing.T) {
	e := newEnv(t)
	tx := e.transaction(day(time.March, 10), "ACME SRL", "150.00")

	fiveDays := e.entry(day(time.March, 5), "ACME SRL", "150.00")
	threeDays := e.entry(day(time.March, 13), "ACME SRL", "150.00")
	exact := e.entry(day(time.March, 10), "ACME SRL", "150.00")

	candidates, err := e.finder.Execute(context.Background(), FindCandidatesInput{Transaction: tx})
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, exact.ID, candidates[0].EntryID)
	assert.InDelta(t, 1.0, candidates[0].Confidence, 1e-9)
	// Equal scores fall back to date proximity.
	assert.InDelta(t, candidates[1].Confidence, candidates[2].Confidence, 1e-9)
	assert.Equal(t, threeDays.ID, candidates[1].EntryID)
	assert.Equal(t, fiveDays.ID, candidates[2].EntryID)

	limited, err := e.finder.Execute(context.Background(), FindCandidatesInput{Transaction: tx, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	excluded, err := e.finder.Execute(context.Background(), FindCandidatesInput{Transaction: tx, Exclude: []uuid.UUID{exact.ID}})
	require.NoError(t, err)
	require.Len(t, excluded, 2)
	assert.Equal(t, threeDays.ID, excluded[0].EntryID)
}

func TestFindCandidates_OutflowUsesCreditSide(t *testing.T) {
	e := newEnv(t)
	tx := e.transaction(day(time.March, 10), supplierPayment, "-150.00")

	entry := &entity.LedgerEntry{
		ID: uuid.New(), VenueID: e.venueID, Date: day(time.March, 10),
		Description: "ACME SRL", CreditAmount: money("150.00"), Register: entity.RegisterBank, CreatedAt: fixedNow,
	}
	require.NoError(t, persistence.SaveLedgerEntries(context.Background(), e.db, []*entity.LedgerEntry{entry}))

	candidates, err := e.finder.Execute(context.Background(), FindCandidatesInput{Transaction: tx})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "150.00", candidates[0].Amount.StringFixed(2))
	assert.InDelta(t, 0.94, candidates[0].Confidence, 1e-9)
}

func TestGetAudit(t *testing.T) {
	e := newEnv(t)
	tx, entry := e.proposed()
	actor := uuid.New()

	confirm := e.confirm()
	confirm.now = clockAt(time.Minute)
	_, err := confirm.Execute(context.Background(), ConfirmInput{TransactionID: tx.ID, ActorID: actor})
	require.NoError(t, err)

	uc := NewGetAuditUseCase(e.txRepo, e.audits)
	trail, err := uc.Execute(context.Background(), GetAuditInput{TransactionID: tx.ID})
	require.NoError(t, err)
	require.Len(t, trail, 2)

	assert.Equal(t, valueobject.ActionClassifyToReview, trail[0].Action)
	assert.Nil(t, trail[0].Actor)
	assert.Equal(t, valueobject.ActionConfirm, trail[1].Action)
	assert.Equal(t, valueobject.StatusToReview, trail[1].PreviousStatus)
	assert.Equal(t, valueobject.StatusMatched, trail[1].NewStatus)
	assert.Equal(t, entry.ID, *trail[1].PreviousEntry)
	assert.Equal(t, actor, *trail[1].Actor)

	_, err = uc.Execute(context.Background(), GetAuditInput{TransactionID: uuid.New()})
	requireCode(t, err, domainerror.ErrCodeTransactionNotFound)
}
