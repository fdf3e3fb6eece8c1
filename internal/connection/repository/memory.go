package repository

import (
	"context"
	"sync"

	"nexty-pairing-service/internal/connection/domain"
)

// MemoryRepository is an in-memory Repository implementation, used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	list []*domain.Connection
}

// NewMemoryRepository returns an empty in-memory connection repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create appends the connection.
func (r *MemoryRepository) Create(ctx context.Context, c *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.list = append(r.list, &cp)
	return nil
}

// ListFor returns all connections the session participates in, in insertion order.
func (r *MemoryRepository) ListFor(ctx context.Context, sessionID string) ([]*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Connection, 0)
	for _, c := range r.list {
		if c.SessionA == sessionID || c.SessionB == sessionID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FindByCode returns the connection created by the given code value, or nil.
// Code values recycle once expired, so the newest match wins.
func (r *MemoryRepository) FindByCode(ctx context.Context, code string) (*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.list) - 1; i >= 0; i-- {
		if r.list[i].PairingCode == code {
			cp := *r.list[i]
			return &cp, nil
		}
	}
	return nil, nil
}
