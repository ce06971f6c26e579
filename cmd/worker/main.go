package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/dashboard"
	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
	"github.com/rentdesk/rentdesk/internal/platform/cache"
	"github.com/rentdesk/rentdesk/internal/quotations"
	"github.com/rentdesk/rentdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	session := backend.NewSession()
	if err := session.AcquireBearer(cfg.BackendServiceToken); err != nil {
		logger.Error("worker requires BACKEND_SERVICE_TOKEN", slog.Any("error", err))
		os.Exit(1)
	}
	defer session.Invalidate()

	client, err := backend.NewClient(cfg.BackendURL, session,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger),
	)
	if err != nil {
		logger.Error("init backend client", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	quotationService := quotations.NewService(client, nil, logger)
	dashboardService := dashboard.NewService(client, dashboard.NewCache(redisClient, cfg.DashboardCacheTTL, logger), nil, logger)

	expireJob := jobs.NewExpireDueJob(quotationService, logger, metrics)
	followupJob := jobs.NewConversionFollowupJob(dashboardService, logger, metrics)

	sweepTask, err := jobs.NewExpireDueTask(time.Now())
	if err != nil {
		logger.Error("build expiry sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskQuotationsExpireDue, Handler: expireJob.Handle},
			{Type: jobs.TaskOrdersConverted, Handler: followupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ExpirySweepSpec, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(1), asynq.Timeout(10 * time.Minute)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
