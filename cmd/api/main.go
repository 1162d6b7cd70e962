package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/precocerto-backend/internal/modules/alert"
	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/modules/auth"
	"github.com/georgemunganga/precocerto-backend/internal/modules/catalog"
	"github.com/georgemunganga/precocerto-backend/internal/modules/comparison"
	"github.com/georgemunganga/precocerto-backend/internal/modules/contribution"
	"github.com/georgemunganga/precocerto-backend/internal/modules/notification"
	"github.com/georgemunganga/precocerto-backend/internal/modules/plan"
	"github.com/georgemunganga/precocerto-backend/internal/modules/policy"
	"github.com/georgemunganga/precocerto-backend/internal/modules/ratelimit"
	"github.com/georgemunganga/precocerto-backend/internal/modules/report"
	"github.com/georgemunganga/precocerto-backend/internal/modules/store"
	"github.com/georgemunganga/precocerto-backend/internal/modules/suggestion"
	"github.com/georgemunganga/precocerto-backend/internal/modules/user"
	"github.com/georgemunganga/precocerto-backend/internal/modules/webhook"
	"github.com/georgemunganga/precocerto-backend/internal/platform/cache"
	"github.com/georgemunganga/precocerto-backend/internal/platform/config"
	"github.com/georgemunganga/precocerto-backend/internal/platform/database"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/logger"
	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	db, err := database.Open(ctx, database.Options{
		URL:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	zlog.Info("connected to the database")

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db, zlog); err != nil {
			return err
		}
	}

	rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Rate limiting fails open and the cache is advisory, so keep serving.
		zlog.Warn("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	queryCache := cache.NewRedisCache(rdb)

	m := metrics.New()
	events := analytics.New(cfg.KafkaBrokers, cfg.KafkaAnalyticsTopic)
	defer events.Close()

	// ── Policy & gates ──────────────────────────────────────
	policies := policy.NewStore(db, rdb)
	planGate := plan.NewGate(policies, zlog)
	limiter := ratelimit.NewGate(policies, ratelimit.Options{
		MaxAttempts: cfg.RateLimitMaxAttempts,
		Window:      cfg.RateLimitWindow,
		Block:       cfg.RateLimitBlock,
	}, m, zlog)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.SessionTTL)
	authMiddleware := auth.NewMiddleware(authService, policies, zlog)

	var clerkVerifier webhook.Verifier
	if cfg.ClerkWebhook != "" {
		if clerkVerifier, err = webhook.NewClerkVerifier(cfg.ClerkWebhook); err != nil {
			return err
		}
	} else {
		zlog.Warn("CLERK_WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	// ── Catalog ─────────────────────────────────────────────
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db), queryCache, cfg.QueryCacheTTL, zlog)
	storeService := store.NewService(store.NewPostgresRepository(db), queryCache, cfg.QueryCacheTTL, zlog)

	// ── Prices, alerts & notifications ──────────────────────
	notificationService := notification.NewService(
		notification.NewPostgresRepository(db),
		notification.NewWebPushSender(notification.VAPIDConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subscriber: cfg.VAPIDSubscriber,
		}),
		notification.NewEmailSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}),
		userService, m, zlog)

	alertService := alert.NewService(alert.NewPostgresRepository(db), planGate, policies,
		notificationService, events, m, zlog)
	defer alertService.Wait()

	contributionRepo := contribution.NewPostgresRepository(db)
	validator := contribution.NewValidator(contributionRepo, contribution.ValidatorOptions{
		OutlierThreshold: cfg.OutlierThreshold,
		Location:         cfg.Location(),
	}, zlog)
	contributionService := contribution.NewService(contributionRepo, validator, alertService, events,
		m, cfg.OfferRetentionDays, zlog)

	comparisonService := comparison.NewService(comparison.NewPostgresRepository(db), planGate, policies,
		contributionService, events, zlog)
	reportService := report.NewService(report.NewPostgresRepository(db))
	suggestionService := suggestion.NewService(suggestion.NewPostgresRepository(db))

	realIP, err := httpx.TrustedRealIP(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(realIP)
	router.Use(logger.RequestLogger(zlog))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "svix-id", "svix-timestamp", "svix-signature"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpx.RespondMessage(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", m.Handler())

	userHandler := user.NewHandler(userService, zlog)
	catalogHandler := catalog.NewHandler(catalogService, zlog)
	contributionHandler := contribution.NewHandler(contributionService, zlog)
	notificationHandler := notification.NewHandler(notificationService, cfg.VAPIDPublicKey, zlog)
	suggestionHandler := suggestion.NewHandler(suggestionService, zlog)
	authLimit := limiter.Middleware("auth", ratelimit.Options{})

	// Public
	router.Group(func(r chi.Router) {
		r.With(authLimit).Group(func(r chi.Router) {
			userHandler.RegisterPublicRoutes(r)
			auth.NewHandler(authService, zlog).RegisterRoutes(r)
		})
		catalogHandler.RegisterPublicRoutes(r)
		notificationHandler.RegisterPublicRoutes(r)
		webhook.NewHandler(clerkVerifier, userService, events, zlog).RegisterRoutes(r)
	})

	// Session
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireSession)

		userHandler.RegisterRoutes(r)
		plan.NewHandler(policies, zlog).RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
		store.NewHandler(storeService, zlog).RegisterRoutes(r)
		contributionHandler.RegisterRoutes(r, limiter.Middleware("product-prices", ratelimit.Options{}))
		comparison.NewHandler(comparisonService, zlog).RegisterRoutes(r)
		alert.NewHandler(alertService, zlog).RegisterRoutes(r)
		report.NewHandler(reportService, zlog).RegisterRoutes(r)
		suggestionHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)
			contributionHandler.RegisterAdminRoutes(r)
			suggestionHandler.RegisterAdminRoutes(r)
			userHandler.RegisterAdminRoutes(r)
		})
	})

	// ── Scheduler ───────────────────────────────────────────
	scheduler := cron.New(cron.WithLocation(cfg.Location()))
	if err := contribution.RegisterRetentionJob(scheduler, cfg.OfferCleanupCron, contributionService, zlog); err != nil {
		return err
	}

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("Preço Certo API server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
