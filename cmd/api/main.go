// Package main is the entry point for the exchange API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rupaykg/exchange/internal/api"
	"github.com/rupaykg/exchange/internal/audit"
	"github.com/rupaykg/exchange/internal/auth"
	"github.com/rupaykg/exchange/internal/config"
	"github.com/rupaykg/exchange/internal/fraud"
	"github.com/rupaykg/exchange/internal/health"
	"github.com/rupaykg/exchange/internal/idempotency"
	"github.com/rupaykg/exchange/internal/ledger"
	"github.com/rupaykg/exchange/internal/middleware"
	"github.com/rupaykg/exchange/internal/registry"
	"github.com/rupaykg/exchange/internal/tracing"
	"github.com/rupaykg/exchange/internal/upload"
	"github.com/rupaykg/exchange/internal/user"
	"github.com/rupaykg/exchange/internal/value"
	"github.com/rupaykg/exchange/internal/wallet"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("RupayKG Exchange API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "rupaykg-exchange",
		Enabled:      cfg.OTLPEndpoint != "",
		Environment:  cfg.Env,
		Protocol:     cfg.OTLPProtocol,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Storage. With DATABASE_URL records, accounts, credits, and the audit
	// trail go to Postgres; otherwise everything runs in memory, which is
	// enough for development and pilots.
	var (
		db             *sql.DB
		recordRepo     ledger.RecordRepository
		auditRepo      audit.Repository
		wallets        wallet.Ledger
		users          user.Repository
		creditRegistry registry.Registry
		dbChecker      api.HealthChecker
		redisClient    *redis.Client
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		recordRepo = ledger.NewPostgresRecordRepository(db, logger)
		auditRepo = audit.NewPostgresRepository(db, logger)
		wallets = wallet.NewPostgresLedger(db, logger)
		users = user.NewPostgresRepository(db, logger)
		creditRegistry = registry.NewPostgresRegistry(db, logger)
		dbChecker = health.NewDBChecker(db)
		logger.Info("using postgres storage")
	} else {
		recordRepo = ledger.NewInMemoryRecordRepository()
		auditRepo = audit.NewInMemoryRepository()
		wallets = wallet.NewInMemoryLedger()
		users = user.NewInMemoryRepository()
		creditRegistry = registry.NewInMemoryRegistry()
		logger.Info("using in-memory storage")
	}

	var redisChecker api.HealthChecker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		redisChecker = health.NewRedisChecker(redisClient)
	}

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ledgerMetrics := ledger.NewMetrics()
	if err := ledgerMetrics.Register(promRegistry); err != nil {
		logger.Error("failed to register ledger metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(promRegistry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}

	// Core service
	pool := wallet.NewPool(cfg.RailPoolSeed)
	broadcaster := audit.NewBroadcaster()

	svc := ledger.NewService(ledger.Deps{
		Records:  recordRepo,
		Users:    users,
		Wallets:  wallets,
		Pool:     pool,
		Registry: creditRegistry,
		Audit:    auditRepo,
		Engine:   value.NewEngine(cfg.CarbonPricePerKg),
		Screener: fraud.NewScreener(fraud.Config{
			MaxWeightKg:    cfg.FraudMaxWeightKg,
			MaxMoisturePct: cfg.FraudMaxMoisturePct,
		}),
		Broadcaster: broadcaster,
		Metrics:     ledgerMetrics,
		Logger:      logger,
	})

	var jwtService *auth.JWTService
	if cfg.JWTPreviousSecret != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	} else {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	var uploadHandlers *api.UploadHandlers
	if cfg.S3BucketName != "" {
		uploadService, err := upload.NewService(upload.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			MaxSizeMB:       cfg.S3MaxUploadSizeMB,
		})
		if err != nil {
			logger.Error("failed to initialize upload service", "error", err)
			os.Exit(1)
		}
		uploadHandlers = api.NewUploadHandlers(uploadService)
	}

	rateLimitStore := middleware.NewInMemoryRateLimitStore()

	mux := api.NewRouter(api.RouterConfig{
		Auth:    api.NewAuthHandlers(users, svc, jwtService),
		Records: api.NewRecordHandlers(svc),
		Wallet:  api.NewWalletHandlers(svc),
		Audit:   api.NewAuditHandlers(svc, broadcaster, cfg.WSAllowedOrigins),
		Upload:  uploadHandlers,
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:    dbChecker,
			RedisChecker: redisChecker,
		}),
		JWT: jwtService,
		MetricsHandler: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
		RateLimitStore: rateLimitStore,
		AuthLimit:      middleware.DefaultAuthLimit(),
	})

	globalLimit := middleware.DefaultGlobalLimit()
	if cfg.RateLimitPerMinute > 0 {
		globalLimit.RequestsPerWindow = cfg.RateLimitPerMinute
	}

	// Idempotency keys guard the endpoints that move money
	idemRepo := idempotency.NewInMemoryRepository()
	idemRoutes := map[string]bool{
		"/records":          true,
		"/credits/purchase": true,
	}
	idemStop := make(chan struct{})
	go idempotency.RunPeriodicCleanup(idemRepo, time.Hour, idempotency.DefaultExpiry, idemStop)

	// Middleware chain, outermost first
	var handler http.Handler = mux
	handler = middleware.Idempotency(idemRepo, idemRoutes)(handler)
	handler = middleware.RateLimiter(rateLimitStore, globalLimit, middleware.CallerKeyFunc())(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if tracerProvider.IsEnabled() {
		handler = middleware.Tracing("rupaykg-exchange")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired rate limit buckets accumulate without periodic cleanup
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				rateLimitStore.Cleanup()
			}
		}
	}()

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancelCleanup()
	close(idemStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Warn("failed to shut down tracer provider", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}

	logger.Info("server stopped")
}
