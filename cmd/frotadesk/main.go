package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frotadesk/frotadesk/internal/app"
	"github.com/frotadesk/frotadesk/internal/auth"
	"github.com/frotadesk/frotadesk/internal/authz"
	"github.com/frotadesk/frotadesk/internal/fleet"
	"github.com/frotadesk/frotadesk/internal/observability"
	"github.com/frotadesk/frotadesk/internal/platform/db"
	"github.com/frotadesk/frotadesk/internal/purchasing"
	"github.com/frotadesk/frotadesk/internal/shared"
	"github.com/frotadesk/frotadesk/internal/suppliers"
	"github.com/frotadesk/frotadesk/internal/uploads"
	"github.com/frotadesk/frotadesk/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "frotadesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	authzMiddleware := authz.Middleware{Logger: logger}

	invoiceStore, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Error("prepare upload dir", slog.Any("error", err))
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	authService := auth.NewService(usersRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, authzMiddleware)

	purchasingRepo := purchasing.NewRepository(dbpool)
	insightsCache := purchasing.NewInsightsCache(redisClient)
	purchasingService := purchasing.NewService(purchasingRepo, approvalRecorder, auditLogger, insightsCache)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService, invoiceStore, authzMiddleware)

	fleetRepo := fleet.NewRepository(dbpool)
	fleetService := fleet.NewService(fleetRepo)
	fleetHandler := fleet.NewHandler(logger, fleetService, authzMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		SuppliersHandler:  suppliersHandler,
		PurchasingHandler: purchasingHandler,
		FleetHandler:      fleetHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
