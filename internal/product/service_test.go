// AngelaMos | 2026
// service_test.go

package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/notify"
)

type memRepo struct {
	Repository
	products map[string]*Product
}

func (m *memRepo) Create(_ context.Context, p *Product) error {
	p.Version = 1
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id string) (*Product, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) Update(_ context.Context, p *Product) error {
	cur := m.products[p.ID]
	if cur.Version != p.Version {
		return core.ErrConflict
	}
	p.Version++
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memRepo) SetStatus(_ context.Context, id string, from, to Status, version int) (*Product, error) {
	p := m.products[id]
	if p.Status != from || p.Version != version {
		return nil, core.ErrConflict
	}
	p.Status = to
	p.Version++
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

func newTestService(products ...*Product) (*Service, *memRepo, *memOutbox) {
	repo := &memRepo{products: map[string]*Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	outbox := &memOutbox{}
	svc := NewService(repo, inlineTx{}, func(core.DBTX) Stores {
		return Stores{Products: repo, Outbox: outbox}
	})
	return svc, repo, outbox
}

func TestCreateStartsPending(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.Create(context.Background(), "seller", CreateProductRequest{
		Title:     "Robe d'été fleurie",
		Price:     money.FromMAD(150),
		Category:  "Robes",
		Condition: "Très bon état",
		City:      "Casablanca",
		Images:    []string{"https://picsum.photos/seed/p1a/600/800"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "seller", p.SellerID)
}

func TestCreateRejectsUnknownCondition(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), "seller", CreateProductRequest{Condition: "Comme neuf"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestModerateNotifiesSeller(t *testing.T) {
	svc, _, outbox := newTestService(&Product{
		ID: "p1", SellerID: "seller", Title: "Caftan moderne", Status: StatusPending, Version: 1,
	})

	p, err := svc.Moderate(context.Background(), "admin", "p1", StatusApproved, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, p.Status)

	require.Len(t, outbox.events, 1)
	e := outbox.events[0]
	assert.Equal(t, notify.KindProductStatus, e.Kind)
	assert.Equal(t, "admin", e.ActorID)
	assert.Equal(t, "seller", e.RecipientID)
	assert.Equal(t, "Caftan moderne", e.ProductTitle)
	assert.Equal(t, "approved", e.Status)
}

func TestModerateStaleVersionConflicts(t *testing.T) {
	svc, _, outbox := newTestService(&Product{ID: "p1", SellerID: "s", Status: StatusPending, Version: 2})

	_, err := svc.Moderate(context.Background(), "admin", "p1", StatusRejected, 1)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Empty(t, outbox.events)
}

func TestModerateOnlyFromPending(t *testing.T) {
	svc, _, _ := newTestService(&Product{ID: "p1", SellerID: "s", Status: StatusSold, Version: 1})

	_, err := svc.Moderate(context.Background(), "admin", "p1", StatusApproved, 1)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = svc.Moderate(context.Background(), "admin", "p1", StatusSold, 1)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateSendsListingBackToReview(t *testing.T) {
	svc, _, _ := newTestService(&Product{ID: "p1", SellerID: "s", Status: StatusApproved, Version: 1})

	title := "Caftan brodé"
	p, err := svc.Update(context.Background(), "s", "p1", UpdateProductRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "Caftan brodé", p.Title)

	_, err = svc.Update(context.Background(), "intruder", "p1", UpdateProductRequest{Title: &title})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestGetHidesUnapprovedListings(t *testing.T) {
	svc, _, _ := newTestService(&Product{ID: "p1", SellerID: "s", Status: StatusPending})

	_, err := svc.Get(context.Background(), "p1", "visitor", false)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(context.Background(), "p1", "s", false)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "p1", "", true)
	assert.NoError(t, err)
}

func TestImageListScan(t *testing.T) {
	var l ImageList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, ImageList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	v, err := ImageList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestBoosted(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	p := Product{BoostedUntil: &later}
	assert.True(t, p.Boosted(now))
	assert.False(t, p.Boosted(later.Add(time.Second)))
}
