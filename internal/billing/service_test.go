// AngelaMos | 2026
// service_test.go

package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/product"
	"github.com/carterperez-dev/balaoui/internal/settings"
	"github.com/carterperez-dev/balaoui/internal/user"
)

type fakeUsers struct {
	user.Repository
	users map[string]*user.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDForUpdate(ctx context.Context, id string) (*user.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUsers) Credit(_ context.Context, id string, amount money.Amount) (money.Amount, error) {
	u, ok := f.users[id]
	if !ok {
		return 0, core.ErrNotFound
	}
	u.Balance += amount
	return u.Balance, nil
}

func (f *fakeUsers) Debit(_ context.Context, id string, amount money.Amount) (money.Amount, error) {
	u := f.users[id]
	if u.Balance < amount {
		return 0, core.ErrInsufficientFunds
	}
	u.Balance -= amount
	return u.Balance, nil
}

func (f *fakeUsers) SetPro(_ context.Context, id string, isPro bool, expiresAt *time.Time) (*user.User, error) {
	u := f.users[id]
	u.IsPro = isPro
	u.ProExpiresAt = expiresAt
	cp := *u
	return &cp, nil
}

type fakeProducts struct {
	product.Repository
	products map[string]*product.Product
}

func (f *fakeProducts) GetForUpdate(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) SetBoost(_ context.Context, id string, featured bool, until *time.Time) (*product.Product, error) {
	p := f.products[id]
	p.IsFeatured = featured
	p.BoostedUntil = until
	cp := *p
	return &cp, nil
}

type fakeLedger struct {
	ledger.Repository
	rows []ledger.Transaction
}

func (f *fakeLedger) Append(_ context.Context, t *ledger.Transaction) error {
	f.rows = append(f.rows, *t)
	return nil
}

type fixedSettings struct {
	s settings.AppSettings
}

func (f fixedSettings) AppSettings(context.Context) (settings.AppSettings, error) {
	return f.s, nil
}

type inlineTx struct{}

func (inlineTx) WithTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type harness struct {
	svc      *Service
	users    *fakeUsers
	products *fakeProducts
	ledger   *fakeLedger
	now      time.Time
}

func newHarness(methods ...string) *harness {
	if len(methods) == 0 {
		methods = []string{settings.PaymentCard, settings.PaymentBalance}
	}

	h := &harness{
		users: &fakeUsers{users: map[string]*user.User{
			"seller": {ID: "seller", Balance: money.FromMAD(60)},
			"other":  {ID: "other"},
		}},
		products: &fakeProducts{products: map[string]*product.Product{
			"p1": {ID: "p1", SellerID: "seller", Status: product.StatusApproved},
			"p2": {ID: "p2", SellerID: "seller", Status: product.StatusPending},
		}},
		ledger: &fakeLedger{},
		now:    time.Date(2026, 8, 10, 18, 0, 0, 0, time.UTC),
	}

	cfg := settings.AppSettings{
		BumpPrice:            money.FromMAD(10),
		FeaturePrice:         money.FromMAD(50),
		ProSubscriptionPrice: money.FromMAD(99),
		PaymentMethods:       methods,
	}

	h.svc = NewService(h.users, inlineTx{}, func(core.DBTX) Stores {
		return Stores{Users: h.users, Products: h.products, Ledger: h.ledger}
	}, fixedSettings{s: cfg})
	h.svc.now = func() time.Time { return h.now }
	return h
}

func TestDeposit(t *testing.T) {
	h := newHarness()

	u, err := h.svc.Deposit(context.Background(), "other", money.FromMAD(250))
	require.NoError(t, err)
	assert.Equal(t, money.FromMAD(250), u.Balance)

	require.Len(t, h.ledger.rows, 1)
	assert.Equal(t, ledger.TypeDeposit, h.ledger.rows[0].Type)

	_, err = h.svc.Deposit(context.Background(), "other", 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = h.svc.Deposit(context.Background(), "other", MaxDeposit+1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestBumpWithBalance(t *testing.T) {
	h := newHarness()

	resp, err := h.svc.Boost(context.Background(), "seller", "p1",
		BoostRequest{Kind: product.BoostBump, PaymentMethod: settings.PaymentBalance})
	require.NoError(t, err)

	require.NotNil(t, resp.BoostedUntil)
	assert.Equal(t, h.now.Add(24*time.Hour), *resp.BoostedUntil)
	assert.False(t, resp.IsFeatured)
	assert.Equal(t, money.FromMAD(50), h.users.users["seller"].Balance)

	require.Len(t, h.ledger.rows, 1)
	assert.Equal(t, ledger.TypeBump, h.ledger.rows[0].Type)
	assert.Equal(t, money.FromMAD(10), h.ledger.rows[0].Amount)
}

func TestFeatureRules(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Boost(ctx, "seller", "p1", BoostRequest{Kind: product.BoostFeature, PaymentMethod: settings.PaymentBalance})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Empty(t, h.ledger.rows)

	resp, err := h.svc.Boost(ctx, "seller", "p1", BoostRequest{Kind: product.BoostFeature, PaymentMethod: settings.PaymentCard})
	require.NoError(t, err)
	assert.True(t, resp.IsFeatured)
	assert.Equal(t, money.FromMAD(60), h.users.users["seller"].Balance, "card is not charged to the balance")

	_, err = h.svc.Boost(ctx, "seller", "p1", BoostRequest{Kind: product.BoostFeature, PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = h.svc.Boost(ctx, "other", "p1", BoostRequest{Kind: product.BoostBump, PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = h.svc.Boost(ctx, "seller", "p2", BoostRequest{Kind: product.BoostBump, PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestBoostRejectsDisabledPaymentMethod(t *testing.T) {
	h := newHarness(settings.PaymentBalance)

	_, err := h.svc.Boost(context.Background(), "seller", "p1",
		BoostRequest{Kind: product.BoostBump, PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSubscribeProExtendsRunningPeriod(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.SubscribePro(ctx, "seller")
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	h.users.users["seller"].Balance = money.FromMAD(200)

	u, err := h.svc.SubscribePro(ctx, "seller")
	require.NoError(t, err)
	assert.True(t, u.IsPro)
	assert.Equal(t, h.now.Add(user.ProPeriod), *u.ProExpiresAt)

	u, err = h.svc.SubscribePro(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, h.now.Add(2*user.ProPeriod), *u.ProExpiresAt)
	assert.Equal(t, money.FromMAD(2), u.Balance)

	require.Len(t, h.ledger.rows, 2)
	assert.Equal(t, ledger.TypeSubscription, h.ledger.rows[1].Type)
}
