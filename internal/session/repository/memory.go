package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nexty-pairing-service/internal/session/domain"
)

// MemoryRepository is an in-memory Repository implementation, used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	m    map[string]*domain.Session
	nowF func() time.Time
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		m:    make(map[string]*domain.Session),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the session for id, or nil if not found.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Upsert creates the session or updates its device info.
func (r *MemoryRepository) Upsert(ctx context.Context, id string, deviceInfo json.RawMessage) (*domain.Session, error) {
	now := r.nowF()
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		s = &domain.Session{ID: id, CreatedAt: now}
		r.m[id] = s
	}
	if deviceInfo != nil {
		s.DeviceInfo = deviceInfo
	}
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}
