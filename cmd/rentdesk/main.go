package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/dashboard"
	"github.com/rentdesk/rentdesk/internal/observability"
	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/platform/cache"
	"github.com/rentdesk/rentdesk/internal/quotations"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/rental"
	"github.com/rentdesk/rentdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client, err := backend.NewClient(cfg.BackendURL, backend.RequestCredentials{},
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger),
		backend.WithObserver(metrics),
	)
	if err != nil {
		logger.Error("init backend client", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache and job queue disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	ledger, closeLedger, err := app.NewLedger(ctx, cfg, redisClient, logger)
	if err != nil {
		logger.Error("init conversion ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeLedger()

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL, logger)
	formatter, err := dashboard.NewFormatter(cfg.DashboardCurrency, cfg.DashboardLocale)
	if err != nil {
		logger.Error("init dashboard formatter", slog.Any("error", err))
		os.Exit(1)
	}
	dashboardService := dashboard.NewService(client, dashboardCache, formatter, logger)

	notifiers := []orders.Notifier{
		orders.NotifierFunc(func(ctx context.Context, _ *orders.ConversionResult) error {
			return dashboardService.Invalidate(ctx)
		}),
	}
	var (
		jobHandler *jobs.Handler
		jobClient  *jobs.Client
	)
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient = jobs.NewClient(redisOpts, logger)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		notifiers = append(notifiers, jobClient)

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	guard := rental.NewGuard()
	quotationService := quotations.NewService(client, guard, logger)
	converter := orders.NewConverter(orders.ConverterConfig{
		Backend:   client,
		Ledger:    ledger,
		Guard:     guard,
		Logger:    logger,
		Notifiers: notifiers,
		Recorder:  metrics,
	})

	rbacMiddleware := rbac.Middleware{Resolver: client, Logger: logger}
	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		RBACMiddleware:    rbacMiddleware,
		QuotationsHandler: quotations.NewHandler(logger, quotationService, rbacMiddleware),
		OrdersHandler:     orders.NewHandler(logger, client, converter, rbacMiddleware),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardService),
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
