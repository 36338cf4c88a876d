package history

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process ExchangeStore used in tests and when no Postgres
// DSN is configured. Same append-only semantics, no durability.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	exchanges []*Exchange
}

// NewMemory returns an empty in-memory exchange store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) Append(_ context.Context, ex *Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex.ID = m.nextID
	m.nextID++
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	stored := *ex
	m.exchanges = append(m.exchanges, &stored)
	return nil
}

func (m *Memory) ListByOwner(_ context.Context, ownerID string) ([]*Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Exchange
	for _, ex := range m.exchanges {
		if ex.OwnerID == ownerID {
			copied := *ex
			out = append(out, &copied)
		}
	}
	return out, nil
}
