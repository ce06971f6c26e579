package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/rentdesk/rentdesk/cmd/rentctl/cli"
	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/platform/cache"
	"github.com/rentdesk/rentdesk/internal/quotations"
	"github.com/rentdesk/rentdesk/internal/rental"
	"github.com/rentdesk/rentdesk/jobs"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr, build)
	stop()
	os.Exit(code)
}

type sweepEnqueuer struct {
	client *jobs.Client
}

func (s sweepEnqueuer) EnqueueExpireDue(ctx context.Context) (string, error) {
	info, err := s.client.EnqueueExpireDue(ctx)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func build(ctx context.Context) (*cli.OpsCLI, func(), error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := app.NewLoggerTo(os.Stderr, cfg).With(slog.String("component", "rentctl"))

	session := backend.NewSession()
	if err := session.AcquireBearer(cfg.BackendServiceToken); err != nil {
		return nil, nil, errors.New("BACKEND_SERVICE_TOKEN is required")
	}
	client, err := backend.NewClient(cfg.BackendURL, session,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		session.Invalidate()
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Debug("redis unavailable", slog.Any("error", err))
		redisClient = nil
	} else {
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	ledger, closeLedger, err := app.NewLedger(ctx, cfg, redisClient, logger)
	if err != nil {
		release()
		return nil, nil, err
	}
	closers = append(closers, closeLedger)

	var (
		notifiers []orders.Notifier
		sweeps    cli.SweepEnqueuer
	)
	if redisClient != nil {
		jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
		closers = append(closers, func() { _ = jobClient.Close() })
		notifiers = append(notifiers, jobClient)
		sweeps = sweepEnqueuer{client: jobClient}
	}

	guard := rental.NewGuard()
	converter := orders.NewConverter(orders.ConverterConfig{
		Backend:   client,
		Ledger:    ledger,
		Guard:     guard,
		Logger:    logger,
		Notifiers: notifiers,
	})
	ops, err := cli.NewOpsCLI(quotations.NewService(client, guard, logger), converter, client, sweeps)
	if err != nil {
		release()
		return nil, nil, err
	}
	return ops, release, nil
}
