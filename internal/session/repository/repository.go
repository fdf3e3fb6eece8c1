package repository

import (
	"context"
	"encoding/json"

	"nexty-pairing-service/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// Get returns the session for id, or nil if not found.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Upsert creates the session or updates its device info. A nil deviceInfo
	// leaves any previously stored document in place.
	Upsert(ctx context.Context, id string, deviceInfo json.RawMessage) (*domain.Session, error)
}
