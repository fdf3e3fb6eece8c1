package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"nexty-pairing-service/internal/paircode/domain"
)

// MemoryRepository is an in-memory Repository implementation. The consume
// transition is serialized through the store mutex; the critical section is a
// map lookup plus two field writes, so per-code locks would buy nothing.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.PairingCode
}

// NewMemoryRepository returns an empty in-memory pairing code repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.PairingCode)}
}

// Create stores a fresh code, replacing an expired leftover under the same value.
func (r *MemoryRepository) Create(ctx context.Context, c *domain.PairingCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.m[c.Code]; ok && !existing.Expired(c.CreatedAt) {
		return ErrDuplicateCode
	}
	cp := *c
	r.m[c.Code] = &cp
	return nil
}

// Consume atomically marks the code consumed and records the redeemer.
func (r *MemoryRepository) Consume(ctx context.Context, code, redeemerSessionID string, now time.Time) (*domain.PairingCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	if c.Expired(now) {
		delete(r.m, code)
		return nil, ErrCodeExpired
	}
	if c.Consumed {
		return nil, ErrCodeConsumed
	}
	if c.OwnerSessionID == redeemerSessionID {
		return nil, ErrSelfPairing
	}
	c.Consumed = true
	c.ConsumerSessionID = redeemerSessionID
	cp := *c
	return &cp, nil
}

// ListActiveByOwner returns all unexpired codes owned by the session, ordered by creation time.
func (r *MemoryRepository) ListActiveByOwner(ctx context.Context, ownerSessionID string, now time.Time) ([]*domain.PairingCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.PairingCode, 0)
	for _, c := range r.m {
		if c.OwnerSessionID != ownerSessionID || c.Expired(now) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteExpired removes codes past their TTL and reports how many were removed.
func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for code, c := range r.m {
		if c.Expired(now) {
			delete(r.m, code)
			n++
		}
	}
	return n, nil
}
