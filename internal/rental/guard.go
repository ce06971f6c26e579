package rental

import (
	"fmt"
	"sync"
)

// Guard tracks entities with a mutating request in flight. A second request
// for the same key fails fast instead of queueing behind the first.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard constructs an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Acquire marks key as busy. The returned release func must be called once
// the request resolves.
func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return nil, fmt.Errorf("%w: %s", ErrRequestInFlight, key)
	}
	g.active[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key currently has a request in flight.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key]
	return busy
}

// QuotationKey is the guard key shared by every operation that mutates a
// quotation, conversion included.
func QuotationKey(id string) string {
	return "quotation:" + id
}
