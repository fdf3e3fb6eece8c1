package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"nexty-pairing-service/internal/session/domain"
)

// PostgresRepository persists sessions in the sessions table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	const q = `SELECT id, device_info, created_at, updated_at FROM sessions WHERE id = $1`
	var s domain.Session
	var deviceInfo []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &deviceInfo, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if deviceInfo != nil {
		s.DeviceInfo = json.RawMessage(deviceInfo)
	}
	return &s, nil
}

// Upsert creates the session or updates its device info. COALESCE keeps the
// stored document when deviceInfo is nil.
func (r *PostgresRepository) Upsert(ctx context.Context, id string, deviceInfo json.RawMessage) (*domain.Session, error) {
	const q = `
		INSERT INTO sessions (id, device_info, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET device_info = COALESCE(EXCLUDED.device_info, sessions.device_info),
		    updated_at  = now()
		RETURNING id, device_info, created_at, updated_at`
	var arg any
	if deviceInfo != nil {
		arg = []byte(deviceInfo)
	}
	var s domain.Session
	var stored []byte
	if err := r.db.QueryRowContext(ctx, q, id, arg).Scan(&s.ID, &stored, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if stored != nil {
		s.DeviceInfo = json.RawMessage(stored)
	}
	return &s, nil
}
