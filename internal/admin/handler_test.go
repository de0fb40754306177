// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/order"
	"github.com/carterperez-dev/balaoui/internal/product"
)

type users map[string]int

func (u users) CountByRole(context.Context) (map[string]int, error) { return u, nil }

type products map[product.Status]int

func (p products) CountByStatus(context.Context) (map[product.Status]int, error) { return p, nil }

type orders struct {
	counts map[order.Status]int
	err    error
}

func (o orders) CountByStatus(context.Context) (map[order.Status]int, error) { return o.counts, o.err }

type totals map[ledger.Type]money.Amount

func (t totals) TotalsByType(context.Context) (map[ledger.Type]money.Amount, error) { return t, nil }

type outbox map[notify.OutboxStatus]int

func (o outbox) CountByStatus(context.Context) (map[notify.OutboxStatus]int, error) { return o, nil }

type queue struct{ reports, disputes int }

func (q queue) Pending(context.Context) (int, int, error) { return q.reports, q.disputes, nil }

func TestOverview(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Users:    users{"user": 40, "admin": 2},
		Products: products{product.StatusPending: 3, product.StatusApproved: 20},
		Orders:   orders{counts: map[order.Status]int{order.StatusPaid: 5}},
		Ledger: totals{
			ledger.TypeSale:            money.FromMAD(1000),
			ledger.TypeBuyerProtection: money.FromMAD(50),
			ledger.TypeBump:            money.FromMAD(10),
			ledger.TypeDeposit:         money.FromMAD(500),
		},
		Outbox:     outbox{notify.OutboxPending: 1, notify.OutboxFailed: 2},
		Moderation: queue{reports: 4, disputes: 1},
	})

	rec := httptest.NewRecorder()
	h.GetOverview(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/overview", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			UsersByRole      map[string]int `json:"users_by_role"`
			ProductsByStatus map[string]int `json:"products_by_status"`
			OrdersByStatus   map[string]int `json:"orders_by_status"`
			PlatformRevenue  json.Number    `json:"platform_revenue"`
			Notifications    map[string]int `json:"notifications"`
			PendingReports   int            `json:"pending_reports"`
			OpenDisputes     int            `json:"open_disputes"`
		} `json:"data"`
	}
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&body))

	assert.Equal(t, 40, body.Data.UsersByRole["user"])
	assert.Equal(t, 3, body.Data.ProductsByStatus["pending"])
	assert.Equal(t, 5, body.Data.OrdersByStatus["paid"])
	assert.Equal(t, "60", body.Data.PlatformRevenue.String())
	assert.Equal(t, 2, body.Data.Notifications["failed"])
	assert.Equal(t, 4, body.Data.PendingReports)
	assert.Equal(t, 1, body.Data.OpenDisputes)
}

func TestOverviewFailsWhenACounterFails(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Users:  users{"user": 1},
		Orders: orders{err: errors.New("pool exhausted")},
	})

	rec := httptest.NewRecorder()
	h.GetOverview(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/overview", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
