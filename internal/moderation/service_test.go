// AngelaMos | 2026
// service_test.go

package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/order"
	"github.com/carterperez-dev/balaoui/internal/product"
)

type memReports struct {
	ReportRepository
	reports map[string]*Report
}

func (m *memReports) Create(_ context.Context, r *Report) error {
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memReports) GetForUpdate(_ context.Context, id string) (*Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) SetStatus(_ context.Context, id string, from, to ReportStatus) (*Report, error) {
	r := m.reports[id]
	if r.Status != from {
		return nil, core.ErrConflict
	}
	r.Status = to
	cp := *r
	return &cp, nil
}

type memDisputes struct {
	DisputeRepository
	disputes map[string]*Dispute
}

func (m *memDisputes) Create(_ context.Context, d *Dispute) error {
	for _, existing := range m.disputes {
		if existing.OrderID == d.OrderID && existing.Status == DisputeOpen {
			return core.ErrConflict
		}
	}
	cp := *d
	m.disputes[d.ID] = &cp
	return nil
}

func (m *memDisputes) GetForUpdate(_ context.Context, id string) (*Dispute, error) {
	d, ok := m.disputes[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDisputes) Close(_ context.Context, id string, to DisputeStatus, resolution *string) (*Dispute, error) {
	d := m.disputes[id]
	if d.Status != DisputeOpen {
		return nil, core.ErrConflict
	}
	d.Status = to
	d.Resolution = resolution
	cp := *d
	return &cp, nil
}

type memOrders struct {
	order.Repository
	orders map[string]*order.Order
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *memOrders) Save(_ context.Context, o *order.Order) error {
	if m.orders[o.ID].Version != o.Version {
		return core.ErrConflict
	}
	o.Version++
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

type memProducts struct {
	product.Repository
	products map[string]*product.Product
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memOutbox struct {
	notify.Outbox
	events []notify.Event
}

func (m *memOutbox) Enqueue(_ context.Context, events ...notify.Event) error {
	m.events = append(m.events, events...)
	return nil
}

type inlineTx struct{}

func (inlineTx) WithTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type harness struct {
	svc      *Service
	reports  *memReports
	disputes *memDisputes
	orders   *memOrders
	outbox   *memOutbox
}

func newHarness() *harness {
	h := &harness{
		reports:  &memReports{reports: map[string]*Report{}},
		disputes: &memDisputes{disputes: map[string]*Dispute{}},
		orders: &memOrders{orders: map[string]*order.Order{
			"o1": {ID: "o1", ProductID: "p1", BuyerID: "buyer", SellerID: "seller", Status: order.StatusShipped, Version: 2},
			"o2": {ID: "o2", ProductID: "p1", BuyerID: "buyer", SellerID: "seller", Status: order.StatusCompleted, Version: 4},
		}},
		outbox: &memOutbox{},
	}
	products := &memProducts{products: map[string]*product.Product{
		"p1": {ID: "p1", SellerID: "seller", Title: "Djellaba en lin", Status: product.StatusSold},
	}}

	h.svc = NewService(h.reports, h.disputes, products, inlineTx{}, func(core.DBTX) Stores {
		return Stores{
			Reports:  h.reports,
			Disputes: h.disputes,
			Orders:   h.orders,
			Products: products,
			Outbox:   h.outbox,
		}
	})
	return h
}

func TestResolvedReportNotifiesReporter(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	rep, err := h.svc.CreateReport(ctx, "reporter", CreateReportRequest{ProductID: "p1", Reason: "Arnaque"})
	require.NoError(t, err)
	assert.Equal(t, ReportPending, rep.Status)

	resolved, err := h.svc.ResolveReport(ctx, "admin", rep.ID, ReportResolved)
	require.NoError(t, err)
	assert.Equal(t, ReportResolved, resolved.Status)

	require.Len(t, h.outbox.events, 1)
	ev := h.outbox.events[0]
	assert.Equal(t, notify.KindReportStatus, ev.Kind)
	assert.Equal(t, "reporter", ev.RecipientID)
	assert.Equal(t, "Djellaba en lin", ev.ProductTitle)
	require.NotNil(t, ev.ProductID)
	assert.Equal(t, "p1", *ev.ProductID)

	_, err = h.svc.ResolveReport(ctx, "admin", rep.ID, ReportDismissed)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Len(t, h.outbox.events, 1)
}

func TestCreateReportValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.CreateReport(ctx, "seller", CreateReportRequest{ProductID: "p1", Reason: "Autre"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = h.svc.CreateReport(ctx, "reporter", CreateReportRequest{ProductID: "nope", Reason: "Autre"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.svc.CreateReport(ctx, "reporter", CreateReportRequest{ProductID: "p1", Reason: "  "})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = h.svc.ResolveReport(ctx, "admin", "r1", ReportPending)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestOpenDisputeFreezesOrder(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	d, err := h.svc.OpenDispute(ctx, "buyer", OpenDisputeRequest{OrderID: "o1", Reason: "Article non conforme"})
	require.NoError(t, err)
	assert.Equal(t, DisputeOpen, d.Status)
	assert.Equal(t, order.StatusDisputed, h.orders.orders["o1"].Status)
	assert.Equal(t, 3, h.orders.orders["o1"].Version)

	require.Len(t, h.outbox.events, 1)
	assert.Equal(t, "seller", h.outbox.events[0].RecipientID)
	assert.Equal(t, "disputed", h.outbox.events[0].Status)
}

func TestOpenDisputeRules(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.OpenDispute(ctx, "stranger", OpenDisputeRequest{OrderID: "o1", Reason: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.svc.OpenDispute(ctx, "buyer", OpenDisputeRequest{OrderID: "o2", Reason: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = h.svc.OpenDispute(ctx, "buyer", OpenDisputeRequest{OrderID: "o1", Reason: ""})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResolveDisputeEchoesResolution(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	d, err := h.svc.OpenDispute(ctx, "buyer", OpenDisputeRequest{OrderID: "o1", Reason: "Colis abîmé"})
	require.NoError(t, err)

	_, err = h.svc.ResolveDispute(ctx, "admin", d.ID, ResolveDisputeRequest{Status: DisputeResolved})
	assert.ErrorIs(t, err, core.ErrInvalidInput, "a resolution text is required")

	settled, err := h.svc.ResolveDispute(ctx, "admin", d.ID, ResolveDisputeRequest{
		Status:     DisputeResolved,
		Resolution: "Remboursement intégral",
	})
	require.NoError(t, err)
	require.NotNil(t, settled.Resolution)
	assert.Equal(t, "Remboursement intégral", *settled.Resolution)

	require.Len(t, h.outbox.events, 2)
	ev := h.outbox.events[1]
	assert.Equal(t, notify.KindDisputeStatus, ev.Kind)
	assert.Equal(t, "buyer", ev.RecipientID)
	assert.Equal(t, "Remboursement intégral", ev.Resolution)

	_, err = h.svc.ResolveDispute(ctx, "admin", d.ID, ResolveDisputeRequest{Status: DisputeClosed})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}
