package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentdesk/rentdesk/internal/platform/db"
)

// ErrLedgerConflict indicates a vendor group was recorded with a different order.
var ErrLedgerConflict = errors.New("conversion ledger already holds another order for this vendor")

var ledgerSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversion_ledger (
	quotation_id TEXT NOT NULL,
	vendor_id    TEXT NOT NULL,
	order_id     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (quotation_id, vendor_id)
)`,
	`CREATE INDEX IF NOT EXISTS conversion_ledger_created_at_idx ON conversion_ledger (created_at)`,
}

// PostgresLedger persists the ledger in the conversion_ledger table.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger constructs the ledger.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// EnsureSchema creates the ledger table and index when missing.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, l.pool, func(tx pgx.Tx) error {
		for _, stmt := range ledgerSchema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("conversion ledger schema: %w", err)
			}
		}
		return nil
	})
}

func (l *PostgresLedger) Load(ctx context.Context, quotationID string) (map[string]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT vendor_id, order_id FROM conversion_ledger WHERE quotation_id = $1`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make(map[string]string)
	for rows.Next() {
		var vendorID, orderID string
		if err := rows.Scan(&vendorID, &orderID); err != nil {
			return nil, err
		}
		entries[vendorID] = orderID
	}
	return entries, rows.Err()
}

// Record inserts the entry. Recording the same order twice is a no-op;
// recording a different order for a converted group fails with
// ErrLedgerConflict.
func (l *PostgresLedger) Record(ctx context.Context, quotationID, vendorID, orderID string) error {
	var stored string
	err := l.pool.QueryRow(ctx, `
INSERT INTO conversion_ledger (quotation_id, vendor_id, order_id)
VALUES ($1, $2, $3)
ON CONFLICT (quotation_id, vendor_id) DO UPDATE SET order_id = conversion_ledger.order_id
RETURNING order_id`, quotationID, vendorID, orderID).Scan(&stored)
	if err != nil {
		return err
	}
	if stored != orderID {
		return fmt.Errorf("%w: quotation %s vendor %s has order %s", ErrLedgerConflict, quotationID, vendorID, stored)
	}
	return nil
}

// Cleanup removes entries older than olderThan. A non-positive olderThan keeps
// everything, matching the Redis ledger's TTL.
func (l *PostgresLedger) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	tag, err := l.pool.Exec(ctx, `DELETE FROM conversion_ledger WHERE created_at < $1`, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
