package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/orders"
)

func TestNewLedgerSelectsBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	ledger, release, err := NewLedger(ctx, &Config{LedgerBackend: LedgerMemory}, nil, logger)
	require.NoError(t, err)
	release()
	assert.IsType(t, &orders.MemoryLedger{}, ledger)

	_, _, err = NewLedger(ctx, &Config{LedgerBackend: LedgerRedis}, nil, logger)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ledger, release, err = NewLedger(ctx, &Config{LedgerBackend: LedgerRedis, LedgerTTL: time.Hour}, client, logger)
	require.NoError(t, err)
	release()
	assert.IsType(t, &orders.RedisLedger{}, ledger)
}

type countingCleaner struct {
	calls []time.Duration
}

func (c *countingCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	c.calls = append(c.calls, olderThan)
	return 3, nil
}

func TestCleanupLedgerKeepsEntriesWithoutTTL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cleaner := &countingCleaner{}

	cleanupLedger(context.Background(), cleaner, 0, logger)
	cleanupLedger(context.Background(), cleaner, -time.Hour, logger)
	assert.Empty(t, cleaner.calls)

	cleanupLedger(context.Background(), cleaner, 24*time.Hour, logger)
	assert.Equal(t, []time.Duration{24 * time.Hour}, cleaner.calls)
}
