package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/platform/db"
)

// NewLedger selects the conversion ledger named by LEDGER_BACKEND. The
// returned func releases whatever the ledger opened.
func NewLedger(ctx context.Context, cfg *Config, redisClient *redis.Client, logger *slog.Logger) (orders.Ledger, func(), error) {
	switch cfg.LedgerBackend {
	case LedgerRedis:
		if redisClient == nil {
			return nil, nil, errors.New("ledger backend redis requires a reachable REDIS_ADDR")
		}
		return orders.NewRedisLedger(redisClient, cfg.LedgerTTL), func() {}, nil
	case LedgerPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, 4)
		if err != nil {
			return nil, nil, err
		}
		ledger := orders.NewPostgresLedger(pool)
		if err := ledger.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		cleanupLedger(ctx, ledger, cfg.LedgerTTL, logger)
		return ledger, pool.Close, nil
	default:
		logger.Warn("using in-memory conversion ledger; retries reconcile against the backend order list")
		return orders.NewMemoryLedger(), func() {}, nil
	}
}

type ledgerCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// cleanupLedger expires old entries. A non-positive ttl keeps them forever.
func cleanupLedger(ctx context.Context, ledger ledgerCleaner, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	removed, err := ledger.Cleanup(ctx, ttl)
	if err != nil {
		logger.Warn("conversion ledger cleanup", slog.Any("error", err))
		return
	}
	if removed > 0 {
		logger.Info("conversion ledger cleanup", slog.Int64("removed", removed))
	}
}
