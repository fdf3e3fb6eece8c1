package repository

import (
	"context"

	"nexty-pairing-service/internal/connection/domain"
)

// Repository defines persistence for connections. Append-only: records are
// never updated or deleted.
type Repository interface {
	// Create appends the connection. The record must have ID, both session
	// ids, PairingCode, and EstablishedAt set.
	Create(ctx context.Context, c *domain.Connection) error
	// ListFor returns all connections the session participates in, either
	// side, ordered by establishment time.
	ListFor(ctx context.Context, sessionID string) ([]*domain.Connection, error)
	// FindByCode returns the connection created by the given code value, or
	// nil if the code never produced one.
	FindByCode(ctx context.Context, code string) (*domain.Connection, error)
}
