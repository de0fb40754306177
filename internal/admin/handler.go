// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/money"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/order"
	"github.com/carterperez-dev/balaoui/internal/product"
)

type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

type ProductCounter interface {
	CountByStatus(ctx context.Context) (map[product.Status]int, error)
}

type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[order.Status]int, error)
}

type LedgerTotals interface {
	TotalsByType(ctx context.Context) (map[ledger.Type]money.Amount, error)
}

type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[notify.OutboxStatus]int, error)
}

type ModerationQueue interface {
	Pending(ctx context.Context) (reports, disputes int, err error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error

	users      UserCounter
	products   ProductCounter
	orders     OrderCounter
	ledger     LedgerTotals
	outbox     OutboxCounter
	moderation ModerationQueue
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error

	Users      UserCounter
	Products   ProductCounter
	Orders     OrderCounter
	Ledger     LedgerTotals
	Outbox     OutboxCounter
	Moderation ModerationQueue
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
		users:      cfg.Users,
		products:   cfg.Products,
		orders:     cfg.Orders,
		ledger:     cfg.Ledger,
		outbox:     cfg.Outbox,
		moderation: cfg.Moderation,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/overview", h.GetOverview)
		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

// GetOverview feeds the dashboard cards and charts.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	var (
		resp OverviewResponse
		g, ctx = errgroup.WithContext(r.Context())
	)

	if h.users != nil {
		g.Go(func() error {
			counts, err := h.users.CountByRole(ctx)
			resp.UsersByRole = counts
			return err
		})
	}

	if h.products != nil {
		g.Go(func() error {
			counts, err := h.products.CountByStatus(ctx)
			resp.ProductsByStatus = stringKeys(counts)
			return err
		})
	}

	if h.orders != nil {
		g.Go(func() error {
			counts, err := h.orders.CountByStatus(ctx)
			resp.OrdersByStatus = stringKeys(counts)
			return err
		})
	}

	if h.ledger != nil {
		g.Go(func() error {
			totals, err := h.ledger.TotalsByType(ctx)
			resp.LedgerTotals = stringKeys(totals)
			for t, amount := range totals {
				switch t {
				case ledger.TypeBuyerProtection, ledger.TypeBump, ledger.TypeFeature, ledger.TypeSubscription:
					resp.PlatformRevenue += amount
				}
			}
			return err
		})
	}

	if h.outbox != nil {
		g.Go(func() error {
			counts, err := h.outbox.CountByStatus(ctx)
			resp.Notifications = stringKeys(counts)
			return err
		})
	}

	if h.moderation != nil {
		g.Go(func() error {
			reports, disputes, err := h.moderation.Pending(ctx)
			resp.PendingReports = reports
			resp.OpenDisputes = disputes
			return err
		})
	}

	if err := g.Wait(); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntime(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntime())
}

func readRuntime() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

func stringKeys[K ~string, V any](in map[K]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}
