package allocator

import (
	"context"
	"sync"
)

// InMemory is a process-local allocator. A single mutex covers all scopes;
// contention is negligible next to the store round-trips that follow an
// allocation.
type InMemory struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewInMemory constructs an empty in-memory allocator.
func NewInMemory() *InMemory {
	return &InMemory{counters: make(map[string]uint64)}
}

// Next returns the next sequence number for scope, starting at 1.
func (a *InMemory) Next(_ context.Context, scope string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[scope]++
	return a.counters[scope], nil
}

// Seed sets a scope's counter so a restarted process can resume past
// previously issued identifiers.
func (a *InMemory) Seed(scope string, value uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counters[scope] < value {
		a.counters[scope] = value
	}
}
