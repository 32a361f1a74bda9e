package splitmatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/apperr"
	"split-reconciliation-backend/internal/logger"
	"split-reconciliation-backend/internal/models"
	"split-reconciliation-backend/internal/repository"
	"split-reconciliation-backend/internal/testutil"
)

type fixture struct {
	db       *gorm.DB
	store    *repository.Store
	svc      *Service
	tenant   uuid.UUID
	invoices map[string]models.Invoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	return &fixture{
		db:       db,
		store:    store,
		svc:      NewService(store, DefaultDefaults(), logger.Discard()),
		tenant:   uuid.New(),
		invoices: make(map[string]models.Invoice),
	}
}

// standardPool creates inv-1..inv-5 with balances 50000, 30000, 20000,
// 15000 and 10000 cents.
func (f *fixture) standardPool(t *testing.T) {
	t.Helper()
	for i, amount := range []int64{50000, 30000, 20000, 15000, 10000} {
		f.invoice(t, fmt.Sprintf("inv-%d", i+1), amount)
	}
}

func (f *fixture) invoice(t *testing.T, number string, cents int64) models.Invoice {
	t.Helper()
	inv := testutil.Invoice(t, f.db, f.tenant, number, cents)
	f.invoices[number] = inv
	return inv
}

func (f *fixture) numbers(t *testing.T, m models.SplitMatch) []string {
	t.Helper()
	byID := make(map[uuid.UUID]string, len(f.invoices))
	for number, inv := range f.invoices {
		byID[inv.ID] = number
	}
	out := make([]string, 0, len(m.Components))
	for _, c := range m.Components {
		out = append(out, byID[c.InvoiceID])
	}
	return out
}

func (f *fixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func int64Ptr(v int64) *int64 { return &v }

func assertInvariants(t *testing.T, m models.SplitMatch) {
	t.Helper()

	var sum int64
	seen := make(map[uuid.UUID]bool)
	for _, c := range m.Components {
		assert.Positive(t, c.AmountCents)
		assert.False(t, seen[c.InvoiceID], "invoice %s repeated", c.InvoiceID)
		seen[c.InvoiceID] = true
		sum += c.AmountCents
	}
	assert.Equal(t, sum, m.MatchedAmountCents)
	assert.Equal(t, models.AbsCents(m.TotalAmountCents-m.MatchedAmountCents), m.RemainderCents)
}

func TestSuggest_ExactPair(t *testing.T) {
	f := newFixture(t)
	f.standardPool(t)
	bankTx := testutil.BankTransaction(t, f.db, f.tenant, 80000)
	ctx := context.Background()

	res, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{
		BankTransactionID: bankTx.ID,
		ToleranceCents:    int64Ptr(100),
	})
	require.NoError(t, err)
	require.Len(t, res.SplitMatches, 2)
	assert.Equal(t, 5, res.CandidateCount)
	assert.False(t, res.BudgetExceeded)

	top := res.SplitMatches[0]
	assert.Equal(t, []string{"inv-1", "inv-2"}, f.numbers(t, top))
	assert.Equal(t, int64(0), top.RemainderCents)
	assert.Equal(t, int64(80000), top.TotalAmountCents)
	assert.Equal(t, models.SplitMatchStatusPending, top.Status)
	assert.Equal(t, models.MatchTypeOneToMany, top.MatchType)
	assert.Equal(t, 0, top.Rank)
	assert.Equal(t, []string{"inv-1", "inv-3", "inv-5"}, f.numbers(t, res.SplitMatches[1]))

	stored, err := f.svc.Get(ctx, f.tenant, top.ID)
	require.NoError(t, err)
	assertInvariants(t, *stored)
	assert.JSONEq(t, `{"target_cents":80000,"tolerance_cents":100,"max_components":5,"min_components":2,"candidate_count":5,"nodes_visited":`+
		fmt.Sprint(res.NodesVisited)+`,"budget_exceeded":false}`, string(stored.SearchDetails))

	history, err := f.svc.History(ctx, f.tenant, top.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.AuditActionSuggested, history[0].Action)
	assert.Zero(t, f.paymentCount(t), "suggesting never pays")
}

func TestSuggest_UndershootWithinTolerance(t *testing.T) {
	f := newFixture(t)
	f.standardPool(t)

	// The transaction is not stored; the amount comes from the caller.
	res, err := f.svc.Suggest(context.Background(), f.tenant, SuggestInput{
		BankTransactionID: uuid.New(),
		AmountCents:       80050,
		ToleranceCents:    int64Ptr(100),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.SplitMatches)
	assert.Equal(t, []string{"inv-1", "inv-2"}, f.numbers(t, res.SplitMatches[0]))
	assert.Equal(t, int64(50), res.SplitMatches[0].RemainderCents)
	for _, m := range res.SplitMatches {
		assert.LessOrEqual(t, m.RemainderCents, int64(100))
		assertInvariants(t, m)
	}
}

func TestSuggest_TargetAbovePool(t *testing.T) {
	f := newFixture(t)
	f.standardPool(t)

	res, err := f.svc.Suggest(context.Background(), f.tenant, SuggestInput{
		BankTransactionID: uuid.New(),
		AmountCents:       500000,
		ToleranceCents:    int64Ptr(100),
	})
	require.NoError(t, err)
	assert.Empty(t, res.SplitMatches)
	assert.Equal(t, int64(0), res.NodesVisited)

	page, err := f.svc.List(context.Background(), f.tenant, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestSuggest_FewerThanTwoInvoices(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, "only", 80000)

	res, err := f.svc.Suggest(context.Background(), f.tenant, SuggestInput{
		BankTransactionID: uuid.New(),
		AmountCents:       80000,
	})
	require.NoError(t, err)
	assert.Empty(t, res.SplitMatches)
	assert.Equal(t, 0, res.CandidateCount)
	assert.Equal(t, int64(0), res.NodesVisited)

	t.Run("single invoice allowed", func(t *testing.T) {
		res, err := f.svc.Suggest(context.Background(), f.tenant, SuggestInput{
			BankTransactionID:  uuid.New(),
			AmountCents:        80000,
			AllowSingleInvoice: true,
		})
		require.NoError(t, err)
		require.Len(t, res.SplitMatches, 1)
		assert.Equal(t, []string{"only"}, f.numbers(t, res.SplitMatches[0]))
	})
}

func TestSuggest_MaxComponentsCap(t *testing.T) {
	f := newFixture(t)
	for _, inv := range []struct {
		number string
		cents  int64
	}{{"a", 45000}, {"b", 30000}, {"c", 24000}, {"d", 15000}, {"e", 10000}} {
		f.invoice(t, inv.number, inv.cents)
	}

	res, err := f.svc.Suggest(context.Background(), f.tenant, SuggestInput{
		BankTransactionID: uuid.New(),
		AmountCents:       100000,
		ToleranceCents:    int64Ptr(2000),
		MaxComponents:     3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.SplitMatches)
	for _, m := range res.SplitMatches {
		assert.LessOrEqual(t, len(m.Components), 3)
	}
	assert.Equal(t, []string{"a", "b", "c"}, f.numbers(t, res.SplitMatches[0]))
	assert.Equal(t, int64(1000), res.SplitMatches[0].RemainderCents)
}

func TestSuggest_TenantSettingsAndCallOverrides(t *testing.T) {
	f := newFixture(t)
	f.standardPool(t)
	ctx := context.Background()

	require.NoError(t, f.store.Settings().Upsert(ctx, &models.TenantMatchSettings{TenantID: f.tenant, ToleranceCents: 0}))

	res, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{BankTransactionID: uuid.New(), AmountCents: 80050})
	require.NoError(t, err)
	assert.Empty(t, res.SplitMatches, "tenant tolerance of zero means exact only")

	res, err = f.svc.Suggest(ctx, f.tenant, SuggestInput{BankTransactionID: uuid.New(), AmountCents: 80050, ToleranceCents: int64Ptr(100)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SplitMatches)
}

func TestSuggest_BudgetExhaustionReturnsPartialResults(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 40; i++ {
		f.invoice(t, fmt.Sprintf("inv-%02d", i), 1000)
	}
	defaults := DefaultDefaults()
	defaults.NodeBudget = 10
	svc := NewService(f.store, defaults, logger.Discard())

	res, err := svc.Suggest(context.Background(), f.tenant, SuggestInput{
		BankTransactionID: uuid.New(),
		AmountCents:       3000,
		ToleranceCents:    int64Ptr(0),
	})
	require.NoError(t, err)
	assert.True(t, res.BudgetExceeded)
	assert.Equal(t, int64(10), res.NodesVisited)
	require.NotEmpty(t, res.SplitMatches)
	assert.Len(t, res.SplitMatches[0].Components, 3)
}

func TestSuggest_Errors(t *testing.T) {
	f := newFixture(t)
	f.standardPool(t)
	ctx := context.Background()

	t.Run("unknown transaction without amount", func(t *testing.T) {
		_, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{BankTransactionID: uuid.New()})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("missing transaction id", func(t *testing.T) {
		_, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{AmountCents: 100})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("negative tolerance", func(t *testing.T) {
		_, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{BankTransactionID: uuid.New(), AmountCents: 100, ToleranceCents: int64Ptr(-1)})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("already matched transaction", func(t *testing.T) {
		bankTx := testutil.BankTransaction(t, f.db, f.tenant, 80000)
		require.NoError(t, f.store.BankTransactions().MarkStatus(ctx, f.tenant, bankTx.ID, models.TransactionStatusMatched))

		_, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{BankTransactionID: bankTx.ID})
		assert.True(t, apperr.IsConflict(err))
	})
}

func suggestStandard(t *testing.T, f *fixture) (models.BankTransaction, []models.SplitMatch) {
	t.Helper()
	f.standardPool(t)
	bankTx := testutil.BankTransaction(t, f.db, f.tenant, 80000)

	res, err := f.svc.Suggest(context.Background(), f.tenant, SuggestInput{BankTransactionID: bankTx.ID})
	require.NoError(t, err)
	require.Len(t, res.SplitMatches, 2)
	return bankTx, res.SplitMatches
}

func TestConfirm_SuggestedComponents(t *testing.T) {
	f := newFixture(t)
	bankTx, matches := suggestStandard(t, f)
	ctx := context.Background()

	res, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, res.PaymentsCreated)
	assert.Equal(t, models.SplitMatchStatusConfirmed, res.SplitMatch.Status)
	require.NotNil(t, res.SplitMatch.ConfirmedBy)
	assert.Equal(t, "alice", *res.SplitMatch.ConfirmedBy)
	assert.NotNil(t, res.SplitMatch.ConfirmedAt)

	stored, err := f.svc.Get(ctx, f.tenant, matches[0].ID)
	require.NoError(t, err)
	assertInvariants(t, *stored)
	assert.Equal(t, models.SplitMatchStatusConfirmed, stored.Status)

	payments, err := f.store.Payments().ListBySplitMatch(ctx, f.tenant, stored.ID)
	require.NoError(t, err)
	require.Len(t, payments, len(stored.Components))
	for i, c := range stored.Components {
		require.NotNil(t, c.PaymentID)
		assert.Equal(t, payments[i].ID, *c.PaymentID)
		assert.Equal(t, c.AmountCents, payments[i].AmountCents)
		assert.Equal(t, bankTx.ReferenceNumber, payments[i].Reference)
		assert.Equal(t, models.PaymentSourceSplitMatch, payments[i].Source)
	}

	for _, number := range []string{"inv-1", "inv-2"} {
		inv := testutil.ReloadInvoice(t, f.db, f.invoices[number].ID)
		assert.Equal(t, models.InvoiceStatusPaid, inv.Status, number)
		assert.Equal(t, inv.TotalCents, inv.AmountPaidCents, number)
	}
	untouched := testutil.ReloadInvoice(t, f.db, f.invoices["inv-3"].ID)
	assert.Equal(t, int64(0), untouched.AmountPaidCents)

	storedTx, err := f.store.BankTransactions().GetByID(ctx, f.tenant, bankTx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusMatched, storedTx.Status)
}

func TestConfirm_OverrideComponents(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()

	res, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{
		SplitMatchID: matches[0].ID,
		Components: []ComponentInput{
			{InvoiceID: f.invoices["inv-1"].ID, AmountCents: 50000},
			{InvoiceID: f.invoices["inv-3"].ID, AmountCents: 20000},
		},
	}, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, res.PaymentsCreated)
	assert.Equal(t, int64(70000), res.SplitMatch.MatchedAmountCents)
	assert.Equal(t, int64(10000), res.SplitMatch.RemainderCents)

	stored, err := f.svc.Get(ctx, f.tenant, matches[0].ID)
	require.NoError(t, err)
	assertInvariants(t, *stored)
	assert.Equal(t, []string{"inv-1", "inv-3"}, f.numbers(t, *stored))

	inv2 := testutil.ReloadInvoice(t, f.db, f.invoices["inv-2"].ID)
	assert.Equal(t, int64(0), inv2.AmountPaidCents, "replaced component is not paid")
}

func TestConfirm_PartialPayment(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)

	_, err := f.svc.Confirm(context.Background(), f.tenant, ConfirmInput{
		SplitMatchID: matches[0].ID,
		Components: []ComponentInput{
			{InvoiceID: f.invoices["inv-1"].ID, AmountCents: 50000},
			{InvoiceID: f.invoices["inv-2"].ID, AmountCents: 12000},
		},
	}, "alice")
	require.NoError(t, err)

	inv2 := testutil.ReloadInvoice(t, f.db, f.invoices["inv-2"].ID)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv2.Status)
	assert.Equal(t, int64(12000), inv2.AmountPaidCents)
	assert.Nil(t, inv2.PaidAt)
}

func TestConfirm_SupersedesSiblings(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	require.NoError(t, err)

	sibling, err := f.svc.Get(ctx, f.tenant, matches[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SplitMatchStatusRejected, sibling.Status)
	require.NotNil(t, sibling.RejectedReason)
	assert.Equal(t, "superseded by "+matches[0].ID.String(), *sibling.RejectedReason)

	history, err := f.svc.History(ctx, f.tenant, sibling.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.AuditActionSuperseded, history[1].Action)

	_, err = f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: sibling.ID}, "bob")
	assert.True(t, apperr.IsConflict(err))
}

func TestConfirm_IsAtMostOnce(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	require.NoError(t, err)
	payments := f.paymentCount(t)

	_, err = f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, payments, f.paymentCount(t))

	_, err = f.svc.Reject(ctx, f.tenant, matches[0].ID, "", "alice")
	assert.True(t, apperr.IsConflict(err))
}

func TestConfirm_ConcurrentAttempts(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)

	const attempts = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(actor string) {
			defer wg.Done()
			_, err := f.svc.Confirm(context.Background(), f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, actor)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperr.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("actor-%d", i))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, int64(2), f.paymentCount(t))
}

func TestConfirm_ValidationHappensBeforeWrites(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()
	foreign := testutil.Invoice(t, f.db, uuid.New(), "foreign", 50000)

	tests := []struct {
		name       string
		components []ComponentInput
	}{
		{"empty override", []ComponentInput{}},
		{"zero amount", []ComponentInput{{InvoiceID: f.invoices["inv-1"].ID, AmountCents: 0}}},
		{"negative amount", []ComponentInput{{InvoiceID: f.invoices["inv-1"].ID, AmountCents: -5}}},
		{"duplicate invoice", []ComponentInput{
			{InvoiceID: f.invoices["inv-1"].ID, AmountCents: 100},
			{InvoiceID: f.invoices["inv-1"].ID, AmountCents: 200},
		}},
		{"invoice of another tenant", []ComponentInput{{InvoiceID: foreign.ID, AmountCents: 100}}},
		{"unknown invoice", []ComponentInput{{InvoiceID: uuid.New(), AmountCents: 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID, Components: tt.components}, "alice")
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err), "got %v", err)

			stored, err := f.svc.Get(ctx, f.tenant, matches[0].ID)
			require.NoError(t, err)
			assert.Equal(t, models.SplitMatchStatusPending, stored.Status)
			assert.Len(t, stored.Components, 2)
			assert.Zero(t, f.paymentCount(t))
		})
	}

	t.Run("missing actor", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, " ")
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("amount above outstanding balance", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{
			SplitMatchID: matches[0].ID,
			Components:   []ComponentInput{{InvoiceID: f.invoices["inv-2"].ID, AmountCents: 30001}},
		}, "alice")
		assert.True(t, apperr.IsConflict(err))
		assert.Zero(t, f.paymentCount(t))
	})
}

func TestConfirm_NotFound(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: uuid.New()}, "alice")
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.Confirm(ctx, uuid.New(), ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	assert.True(t, apperr.IsNotFound(err), "another tenant cannot confirm")
}

// failingLedger fails the n-th payment it is asked to create.
type failingLedger struct {
	repository.PaymentLedger
	calls  int
	failOn int
}

func (l *failingLedger) CreatePayment(ctx context.Context, p *models.Payment) error {
	l.calls++
	if l.calls == l.failOn {
		return apperr.Internal(errors.New("ledger unavailable"), "create payment")
	}
	return l.PaymentLedger.CreatePayment(ctx, p)
}

type failingTx struct {
	repository.Tx
	ledger *failingLedger
}

func (t *failingTx) Payments() repository.PaymentLedger { return t.ledger }

type failingUnitOfWork struct {
	repository.UnitOfWork
	failOn int
}

func (u *failingUnitOfWork) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := u.UnitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, ledger: &failingLedger{PaymentLedger: tx.Payments(), failOn: u.failOn}}, nil
}

func TestConfirm_RollsBackWhenPaymentFails(t *testing.T) {
	f := newFixture(t)
	bankTx, matches := suggestStandard(t, f)
	ctx := context.Background()

	svc := NewService(&failingUnitOfWork{UnitOfWork: f.store, failOn: 2}, DefaultDefaults(), logger.Discard())

	_, err := svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger unavailable")

	stored, err := f.svc.Get(ctx, f.tenant, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SplitMatchStatusPending, stored.Status)
	for _, c := range stored.Components {
		assert.Nil(t, c.PaymentID)
	}
	assert.Zero(t, f.paymentCount(t))

	for _, number := range []string{"inv-1", "inv-2"} {
		inv := testutil.ReloadInvoice(t, f.db, f.invoices[number].ID)
		assert.Equal(t, int64(0), inv.AmountPaidCents, number)
		assert.Equal(t, models.InvoiceStatusSent, inv.Status, number)
	}

	sibling, err := f.svc.Get(ctx, f.tenant, matches[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SplitMatchStatusPending, sibling.Status)

	storedTx, err := f.store.BankTransactions().GetByID(ctx, f.tenant, bankTx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, storedTx.Status)

	// The same split match confirms cleanly once the ledger recovers.
	res, err := f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[0].ID}, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, res.PaymentsCreated)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()

	rejected, err := f.svc.Reject(ctx, f.tenant, matches[1].ID, "  wrong customer ", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.SplitMatchStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedReason)
	assert.Equal(t, "wrong customer", *rejected.RejectedReason)
	assert.NotNil(t, rejected.RejectedAt)

	_, err = f.svc.Reject(ctx, f.tenant, matches[1].ID, "", "bob")
	assert.True(t, apperr.IsConflict(err))

	_, err = f.svc.Confirm(ctx, f.tenant, ConfirmInput{SplitMatchID: matches[1].ID}, "bob")
	assert.True(t, apperr.IsConflict(err))

	_, err = f.svc.Reject(ctx, f.tenant, uuid.New(), "", "bob")
	assert.True(t, apperr.IsNotFound(err))

	assert.Zero(t, f.paymentCount(t))
	for _, inv := range f.invoices {
		assert.Equal(t, int64(0), testutil.ReloadInvoice(t, f.db, inv.ID).AmountPaidCents)
	}

	t.Run("without a reason", func(t *testing.T) {
		m, err := f.svc.Reject(ctx, f.tenant, matches[0].ID, "", "bob")
		require.NoError(t, err)
		assert.Nil(t, m.RejectedReason)
	})
}

func TestListAndStats(t *testing.T) {
	f := newFixture(t)
	_, matches := suggestStandard(t, f)
	ctx := context.Background()

	_, err := f.svc.Suggest(ctx, f.tenant, SuggestInput{BankTransactionID: uuid.New(), AmountCents: 45000, ToleranceCents: int64Ptr(0)})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, f.tenant, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Len(t, page.Data, 2)
	total := page.Total
	assert.GreaterOrEqual(t, total, int64(3))
	assert.Equal(t, int((total+1)/2), page.TotalPages)

	page, err = f.svc.List(ctx, f.tenant, ListFilter{Page: page.TotalPages, Limit: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, page.Data)

	page, err = f.svc.List(ctx, f.tenant, ListFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)

	page, err = f.svc.List(ctx, f.tenant, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.Limit)

	_, err = f.svc.Reject(ctx, f.tenant, matches[1].ID, "", "bob")
	require.NoError(t, err)

	page, err = f.svc.List(ctx, f.tenant, ListFilter{Status: models.SplitMatchStatusRejected})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, matches[1].ID, page.Data[0].ID)
	assert.NotEmpty(t, page.Data[0].Components)

	page, err = f.svc.List(ctx, f.tenant, ListFilter{MatchType: models.MatchTypeManyToOne})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 0, page.TotalPages)

	_, err = f.svc.List(ctx, f.tenant, ListFilter{Status: "MAYBE"})
	assert.True(t, apperr.IsValidation(err))

	stats, err := f.svc.Stats(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[models.SplitMatchStatusRejected].Count)
	assert.Equal(t, total-1, stats[models.SplitMatchStatusPending].Count)
	assert.Equal(t, int64(0), stats[models.SplitMatchStatusConfirmed].Count)

	other, err := f.svc.List(ctx, uuid.New(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other.Data)
}

func TestMatchSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.MatchSettings(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.ToleranceCents)
	assert.Equal(t, 5, got.MaxComponents)

	_, err = f.svc.UpdateMatchSettings(ctx, f.tenant, -1, 3)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.UpdateMatchSettings(ctx, f.tenant, 250, 3)
	require.NoError(t, err)

	got, err = f.svc.MatchSettings(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.ToleranceCents)
	assert.Equal(t, 3, got.MaxComponents)
}
