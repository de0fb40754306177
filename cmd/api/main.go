// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/balaoui/internal/admin"
	"github.com/carterperez-dev/balaoui/internal/auth"
	"github.com/carterperez-dev/balaoui/internal/billing"
	"github.com/carterperez-dev/balaoui/internal/chat"
	"github.com/carterperez-dev/balaoui/internal/config"
	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/events"
	"github.com/carterperez-dev/balaoui/internal/health"
	"github.com/carterperez-dev/balaoui/internal/ledger"
	"github.com/carterperez-dev/balaoui/internal/middleware"
	"github.com/carterperez-dev/balaoui/internal/moderation"
	"github.com/carterperez-dev/balaoui/internal/notify"
	"github.com/carterperez-dev/balaoui/internal/order"
	"github.com/carterperez-dev/balaoui/internal/product"
	"github.com/carterperez-dev/balaoui/internal/realtime"
	"github.com/carterperez-dev/balaoui/internal/review"
	"github.com/carterperez-dev/balaoui/internal/server"
	"github.com/carterperez-dev/balaoui/internal/settings"
	"github.com/carterperez-dev/balaoui/internal/user"
)

const (
	drainDelay         = 5 * time.Second
	tokenPurgeInterval = time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("genkeys", false, "write a new ES256 key pair to the configured paths and exit")
	flag.Parse()

	if *genKeys {
		if err := generateKeys(*configPath); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func generateKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
		return err
	}
	slog.Info("key pair written",
		"private", cfg.JWT.PrivateKeyPath,
		"public", cfg.JWT.PublicKeyPath,
	)
	return nil
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	version, err := core.Migrate(cfg.Database.URL)
	if err != nil {
		return err
	}
	logger.Info("database schema up to date", "version", version)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	publisher, err := events.New(cfg.Kafka)
	if err != nil {
		return err
	}
	logger.Info("event mirror ready", "kafka", cfg.Kafka.Enabled, "topic", cfg.Kafka.Topic)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	settingsSvc := settings.NewService(
		settings.NewRepository(db.DB),
		redis,
		settings.DefaultsFromConfig(cfg.Marketplace),
		cfg.Marketplace.SettingsCacheTTL,
	)
	if err := settingsSvc.Seed(ctx); err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)

	revocations := auth.NewRedisRevocations(redis.Client, cfg.JWT.RefreshTokenExpire)
	verifier := auth.NewSessionVerifier(jwtManager, revocations)

	authSvc := auth.NewService(auth.NewRepository(db.DB), jwtManager, userSvc, revocations)
	userSvc.UseSessionRevoker(authSvc)

	productRepo := product.NewRepository(db.DB)
	productSvc := product.NewService(productRepo, db, product.TxStores)

	orderSvc := order.NewService(order.NewRepository(db.DB), productRepo, db, order.TxStores, settingsSvc)
	ledgerSvc := ledger.NewService(ledger.NewRepository(db.DB))

	broker := realtime.NewBroker(redis.Client, cfg.Realtime.ChannelPrefix)
	chatSvc := chat.NewService(chat.NewRepository(db.DB), db, chat.TxStores, broker)

	modSvc := moderation.NewService(
		moderation.NewReportRepository(db.DB),
		moderation.NewDisputeRepository(db.DB),
		productRepo,
		db,
		moderation.TxStores,
	)

	reviewSvc := review.NewService(review.NewRepository(db.DB), db, review.TxStores)

	billingSvc := billing.NewService(userRepo, db, billing.TxStores, settingsSvc)

	dispatcher := notify.NewDispatcher(chatSvc, broker,
		notify.WithMirror(publisher),
		notify.WithMailer(notify.NewMailer(cfg.SMTP), userSvc),
	)
	relay := notify.NewRelay(db, notify.NewOutbox, dispatcher, cfg.Outbox)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
		health.Check{Name: "kafka", Checker: publisher, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Users:      userRepo,
		Products:   productSvc,
		Orders:     orderSvc,
		Ledger:     ledgerSvc,
		Outbox:     notify.NewOutbox(db.DB),
		Moderation: modSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.Trace)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)
	adminOnly := middleware.RequireAdmin

	tiered := middleware.TieredRateLimiter(redis.Client, middleware.DefaultTiers)
	sellerAuth := func(next http.Handler) http.Handler {
		return authenticator(tiered(next))
	}

	router.Route("/v1", func(r chi.Router) {
		auth.NewHandler(authSvc).RegisterRoutes(r, authenticator)

		userHandler := user.NewHandler(userSvc)
		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		productHandler := product.NewHandler(productSvc)
		productHandler.RegisterRoutes(r, sellerAuth, optionalAuth)
		productHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		orderHandler := order.NewHandler(orderSvc)
		orderHandler.RegisterRoutes(r, authenticator)
		orderHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		ledgerHandler := ledger.NewHandler(ledgerSvc)
		ledgerHandler.RegisterRoutes(r, authenticator)
		ledgerHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		chat.NewHandler(chatSvc).RegisterRoutes(r, authenticator)
		realtime.NewHandler(broker, chatSvc, cfg.Realtime.Heartbeat).RegisterRoutes(r, authenticator)

		modHandler := moderation.NewHandler(modSvc)
		modHandler.RegisterRoutes(r, authenticator)
		modHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		review.NewHandler(reviewSvc).RegisterRoutes(r, authenticator)

		billing.NewHandler(billingSvc).RegisterRoutes(r, sellerAuth)
		settings.NewHandler(settingsSvc).RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	workers, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		relay.Run(workers)
	}()
	go func() {
		defer wg.Done()
		purgeTokens(workers, authSvc)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	var runErr error
	select {
	case runErr = <-errChan:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}

	stopWorkers()
	wg.Wait()

	publisher.Close()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return runErr
}

func purgeTokens(ctx context.Context, svc *auth.Service) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				slog.WarnContext(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired refresh tokens purged", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
