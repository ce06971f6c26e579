package orders

import (
	"context"
	"sync"
)

// Ledger records which vendor groups of a quotation already have an order,
// so a retried conversion skips them.
type Ledger interface {
	// Load returns vendor id to order id for every converted group.
	Load(ctx context.Context, quotationID string) (map[string]string, error)
	// Record stores the order created for one vendor group.
	Record(ctx context.Context, quotationID, vendorID, orderID string) error
}

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]map[string]string
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]map[string]string)}
}

func (l *MemoryLedger) Load(ctx context.Context, quotationID string) (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.entries[quotationID]))
	for vendor, order := range l.entries[quotationID] {
		out[vendor] = order
	}
	return out, nil
}

func (l *MemoryLedger) Record(ctx context.Context, quotationID, vendorID, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[quotationID] == nil {
		l.entries[quotationID] = make(map[string]string)
	}
	l.entries[quotationID][vendorID] = orderID
	return nil
}
