package repository

import (
	"context"
	"database/sql"
	"errors"

	"nexty-pairing-service/internal/connection/domain"
)

// PostgresRepository persists connections in the connections table, indexed
// by both session columns.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a connection repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends the connection.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Connection) error {
	const q = `
		INSERT INTO connections (id, session_a, session_b, pairing_code, established_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.SessionA, c.SessionB, c.PairingCode, c.EstablishedAt)
	return err
}

// ListFor returns all connections the session participates in, ordered by establishment time.
func (r *PostgresRepository) ListFor(ctx context.Context, sessionID string) ([]*domain.Connection, error) {
	const q = `
		SELECT id, session_a, session_b, pairing_code, established_at
		FROM connections
		WHERE session_a = $1 OR session_b = $1
		ORDER BY established_at`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Connection, 0)
	for rows.Next() {
		var c domain.Connection
		if err := rows.Scan(&c.ID, &c.SessionA, &c.SessionB, &c.PairingCode, &c.EstablishedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// FindByCode returns the newest connection created by the given code value, or nil.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*domain.Connection, error) {
	const q = `
		SELECT id, session_a, session_b, pairing_code, established_at
		FROM connections
		WHERE pairing_code = $1
		ORDER BY established_at DESC
		LIMIT 1`
	var c domain.Connection
	err := r.db.QueryRowContext(ctx, q, code).Scan(&c.ID, &c.SessionA, &c.SessionB, &c.PairingCode, &c.EstablishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
