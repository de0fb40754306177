// AngelaMos | 2026
// service_test.go

package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/product"
	"github.com/carterperez-dev/balaoui/internal/settings"
	"github.com/carterperez-dev/balaoui/internal/user"
)

type fakeOrders struct {
	Repository
	orders map[string]*Order
}

func (f *fakeOrders) Create(_ context.Context, o *Order) error {
	for _, existing := range f.orders {
		if existing.ProductID == o.ProductID && existing.Status != StatusCancelled {
			return core.ErrConflict
		}
	}
	o.Version = 1
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeOrders) Save(_ context.Context, o *Order) error {
	if f.orders[o.ID].Version != o.Version {
		return core.ErrConflict
	}
	o.Version++
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

type fakeProducts struct {
	product.Repository
	products map[string]*product.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) GetForUpdate(ctx context.Context, id string) (*product.Product, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeProducts) SetStatus(_ context.Context, id string, from, to product.Status, version int) (*product.Product, error) {
	p := f.products[id]
	if p.Status != from || p.Version != version {
		return nil, core.ErrConflict
	}
	p.Status = to
	p.Version++
	cp := *p
	return &cp, nil
}

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

func (f *fakeUsers) Debit(_ context.Context, id string, amount money.Amount) (money.Amount, error) {
	u := f.users[id]
	if u.Balance < amount {
		return 0, core.ErrInsufficientFunds
	}
	u.Balance -= amount
	return u.Balance, nil
}

func (f *fakeUsers) Credit(_ context.Context, id string, amount money.Amount) (money.Amount, error) {
	u := f.users[id]
	u.Balance += amount
	return u.Balance, nil
}

type fakeLedger struct {
	ledger.Repository
	rows []ledger.Transaction
}

func (f *fakeLedger) Append(_ context.Context, t *ledger.Transaction) error {
	f.rows = append(f.rows, *t)
	return nil
}

func (f *fakeLedger) CompleteSale(_ context.Context, orderID string) (money.Amount, error) {
	var total money.Amount
	for i := range f.rows {
		r := &f.rows[i]
		if r.Type == ledger.TypeSale && r.OrderID != nil && *r.OrderID == orderID && r.Status == ledger.StatusPending {
			r.Status = ledger.StatusCompleted
			total += r.Amount
		}
	}
	return total, nil
}

func (f *fakeLedger) CancelOrder(_ context.Context, orderID string) error {
	for i := range f.rows {
		r := &f.rows[i]
		if r.OrderID == nil || *r.OrderID != orderID {
			continue
		}
		pendingSale := r.Type == ledger.TypeSale && r.Status == ledger.StatusPending
		protection := r.Type == ledger.TypeBuyerProtection && r.Status == ledger.StatusCompleted
		if pendingSale || protection {
			r.Status = ledger.StatusCancelled
		}
	}
	return nil
}

type fakeOutbox struct {
	notify.Outbox
	events []notify.Event
}

func (f *fakeOutbox) Enqueue(_ context.Context, events ...notify.Event) error {
	f.events = append(f.events, events...)
	return nil
}

type inlineTx struct{}

func (inlineTx) WithTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type fixedSettings settings.AppSettings

func (f fixedSettings) AppSettings(context.Context) (settings.AppSettings, error) {
	return settings.AppSettings(f), nil
}

type harness struct {
	svc      *Service
	orders   *fakeOrders
	products *fakeProducts
	users    *fakeUsers
	ledger   *fakeLedger
	outbox   *fakeOutbox
}

func newHarness() *harness {
	h := &harness{
		orders: &fakeOrders{orders: map[string]*Order{}},
		products: &fakeProducts{products: map[string]*product.Product{
			"p1": {ID: "p1", SellerID: "seller", Title: "Robe d'été fleurie", Price: money.FromMAD(150), Status: product.StatusApproved, Version: 1},
		}},
		users: &fakeUsers{users: map[string]*user.User{
			"buyer":  {ID: "buyer", Role: user.RoleUser, Balance: money.FromMAD(500)},
			"seller": {ID: "seller", Role: user.RoleUser},
			"poor":   {ID: "poor", Role: user.RoleUser, Balance: money.FromMAD(100)},
			"banned": {ID: "banned", Role: user.RoleUser, IsBanned: true},
		}},
		ledger: &fakeLedger{},
		outbox: &fakeOutbox{},
	}

	cfg := fixedSettings{
		CommissionRate:            decimal.NewFromInt(5),
		ProCommissionRate:         decimal.NewFromInt(2),
		BuyerProtectionFeePercent: decimal.NewFromInt(5),
		BuyerProtectionFeeFixed:   money.FromMAD(5),
		ShippingFee:               money.FromMAD(35),
		PaymentMethods:            []string{settings.PaymentCard, settings.PaymentBalance},
	}

	h.svc = NewService(h.orders, h.products, inlineTx{}, func(core.DBTX) Stores {
		return Stores{
			Orders:   h.orders,
			Products: h.products,
			Users:    h.users,
			Ledger:   h.ledger,
			Outbox:   h.outbox,
		}
	}, cfg)
	return h
}

func (h *harness) checkout(t *testing.T, buyer, method string) *Order {
	t.Helper()
	o, err := h.svc.Checkout(context.Background(), buyer, CheckoutRequest{ProductID: "p1", PaymentMethod: method})
	require.NoError(t, err)
	return o
}

func TestCheckoutComputesTotal(t *testing.T) {
	h := newHarness()

	o := h.checkout(t, "buyer", settings.PaymentCard)

	assert.Equal(t, StatusPaid, o.Status)
	assert.Equal(t, "12.50", o.BuyerProtectionFee.String())
	assert.Equal(t, "35.00", o.ShippingFee.String())
	assert.Equal(t, "197.50", o.TotalAmount.String())
	assert.Equal(t, o.Price+o.BuyerProtectionFee+o.ShippingFee, o.TotalAmount)
	assert.Equal(t, "seller", o.SellerID)
	assert.Equal(t, product.StatusSold, h.products.products["p1"].Status)
	assert.Equal(t, money.FromMAD(500), h.users.users["buyer"].Balance, "card payments leave the balance alone")

	require.Len(t, h.ledger.rows, 2)
	assert.Equal(t, ledger.TypeBuyerProtection, h.ledger.rows[0].Type)
	assert.Equal(t, ledger.TypeSale, h.ledger.rows[1].Type)
	assert.Equal(t, "142.50", h.ledger.rows[1].Amount.String())
	assert.Equal(t, ledger.StatusPending, h.ledger.rows[1].Status)
}

func TestCheckoutWithBalanceDebitsBuyer(t *testing.T) {
	h := newHarness()

	h.checkout(t, "buyer", settings.PaymentBalance)
	assert.Equal(t, "302.50", h.users.users["buyer"].Balance.String())
}

func TestCheckoutInsufficientFunds(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Checkout(context.Background(), "poor", CheckoutRequest{ProductID: "p1", PaymentMethod: settings.PaymentBalance})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
}

func TestCheckoutRejections(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Checkout(ctx, "seller", CheckoutRequest{ProductID: "p1", PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = h.svc.Checkout(ctx, "banned", CheckoutRequest{ProductID: "p1", PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrBanned)

	_, err = h.svc.Checkout(ctx, "buyer", CheckoutRequest{ProductID: "p1", PaymentMethod: "cash"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	h.checkout(t, "buyer", settings.PaymentCard)
	_, err = h.svc.Checkout(ctx, "poor", CheckoutRequest{ProductID: "p1", PaymentMethod: settings.PaymentCard})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestLifecycleReleasesFunds(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	buyer := Actor{ID: "buyer"}
	seller := Actor{ID: "seller"}

	o := h.checkout(t, "buyer", settings.PaymentCard)

	_, err := h.svc.Deliver(ctx, buyer, o.ID, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition, "cannot deliver before shipping")

	shipped, err := h.svc.Ship(ctx, seller, o.ID, ShipRequest{TrackingNumber: "AM123456789MA", ShippingProvider: "Amana"})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)

	delivered, err := h.svc.Deliver(ctx, buyer, o.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)

	completed, err := h.svc.Complete(ctx, buyer, o.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, "142.50", h.users.users["seller"].Balance.String())
	assert.Equal(t, ledger.StatusCompleted, h.ledger.rows[1].Status)

	var shippedEvent, releasedEvent *notify.Event
	for i := range h.outbox.events {
		switch e := &h.outbox.events[i]; {
		case e.Kind == notify.KindOrderShipped:
			shippedEvent = e
		case e.Kind == notify.KindOrderStatus && e.Status == string(StatusCompleted):
			releasedEvent = e
		}
	}
	require.NotNil(t, shippedEvent)
	assert.Equal(t, "buyer", shippedEvent.RecipientID)
	assert.Equal(t, "AM123456789MA", shippedEvent.TrackingNumber)
	assert.Equal(t, "Amana", shippedEvent.ShippingProvider)
	require.NotNil(t, releasedEvent)
	assert.Equal(t, "seller", releasedEvent.RecipientID)
}

func TestCompletedOrderIsTerminal(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	admin := Actor{ID: "admin", IsAdmin: true}

	o := h.checkout(t, "buyer", settings.PaymentCard)
	_, err := h.svc.UpdateStatus(ctx, admin, o.ID, StatusCompleted, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition, "paid cannot jump to completed")

	_, err = h.svc.UpdateStatus(ctx, admin, o.ID, StatusDisputed, nil)
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, admin, o.ID, StatusCompleted, nil)
	require.NoError(t, err)

	for _, to := range []Status{StatusPaid, StatusShipped, StatusDelivered, StatusCancelled, StatusDisputed} {
		_, err := h.svc.UpdateStatus(ctx, admin, o.ID, to, nil)
		assert.ErrorIs(t, err, core.ErrInvalidTransition, "completed -> %s", to)
	}

	_, err = h.svc.Cancel(ctx, Actor{ID: "buyer"}, o.ID, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	h := newHarness()
	o := h.checkout(t, "buyer", settings.PaymentCard)
	eventsBefore := len(h.outbox.events)

	got, err := h.svc.UpdateStatus(context.Background(), Actor{ID: "admin", IsAdmin: true}, o.ID, StatusPaid, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	assert.Equal(t, o.Version, got.Version)
	assert.Len(t, h.outbox.events, eventsBefore)
}

func TestCancelRelistsAndRefunds(t *testing.T) {
	h := newHarness()
	o := h.checkout(t, "buyer", settings.PaymentBalance)

	cancelled, err := h.svc.Cancel(context.Background(), Actor{ID: "buyer"}, o.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, product.StatusApproved, h.products.products["p1"].Status)
	assert.Equal(t, money.FromMAD(500), h.users.users["buyer"].Balance)
	assert.Equal(t, ledger.StatusCancelled, h.ledger.rows[0].Status, "refunded protection fee is not revenue")
	assert.Equal(t, ledger.StatusCancelled, h.ledger.rows[1].Status)

	last := h.outbox.events[len(h.outbox.events)-1]
	assert.Equal(t, "seller", last.RecipientID)

	again := h.checkout(t, "poor", settings.PaymentCard)
	assert.Equal(t, StatusPaid, again.Status)
}

func TestCancelVoidsProtectionFeeForCardPayments(t *testing.T) {
	h := newHarness()
	o := h.checkout(t, "buyer", settings.PaymentCard)

	_, err := h.svc.Cancel(context.Background(), Actor{ID: "seller"}, o.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, money.FromMAD(500), h.users.users["buyer"].Balance, "card payments are not refunded to the balance")
	for _, row := range h.ledger.rows {
		assert.Equal(t, ledger.StatusCancelled, row.Status, "%s row", row.Type)
	}
}

func TestPartiesCannotCancelAfterShipping(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	o := h.checkout(t, "buyer", settings.PaymentCard)

	_, err := h.svc.Ship(ctx, Actor{ID: "seller"}, o.ID, ShipRequest{TrackingNumber: "DHL-42", ShippingProvider: "DHL"})
	require.NoError(t, err)

	_, err = h.svc.Cancel(ctx, Actor{ID: "buyer"}, o.ID, nil)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = h.svc.Ship(ctx, Actor{ID: "buyer"}, o.ID, ShipRequest{TrackingNumber: "x", ShippingProvider: "DHL"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = h.svc.Get(ctx, Actor{ID: "stranger"}, o.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStaleVersionConflicts(t *testing.T) {
	h := newHarness()
	o := h.checkout(t, "buyer", settings.PaymentCard)

	stale := o.Version + 1
	_, err := h.svc.Cancel(context.Background(), Actor{ID: "buyer"}, o.ID, &stale)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPaid, StatusShipped))
	assert.True(t, CanTransition(StatusDisputed, StatusCancelled))
	assert.False(t, CanTransition(StatusShipped, StatusPaid))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPaid))
	assert.True(t, StatusCompleted.Terminal())
	assert.Equal(t, "En litige", StatusDisputed.Label())
}
