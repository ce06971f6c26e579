package orders

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLedgerPrefix = "rentdesk:conversion:"

// RedisLedger keeps the ledger in one hash per quotation so every gateway
// instance sees the same entries.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger constructs the ledger. ttl <= 0 keeps entries forever.
func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Load(ctx context.Context, quotationID string) (map[string]string, error) {
	entries, err := l.client.HGetAll(ctx, redisLedgerPrefix+quotationID).Result()
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *RedisLedger) Record(ctx context.Context, quotationID, vendorID, orderID string) error {
	key := redisLedgerPrefix + quotationID
	pipe := l.client.TxPipeline()
	pipe.HSet(ctx, key, vendorID, orderID)
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
