package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nexty-pairing-service/internal/paircode/domain"
)

// PostgresRepository persists pairing codes in the pairing_codes table.
// The consume transition is a single conditional UPDATE, so it is atomic at
// the database regardless of how many server instances share the table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a pairing code repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create stores a fresh code. An expired leftover under the same value is
// overwritten in the same statement; a live collision fails with ErrDuplicateCode.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.PairingCode) error {
	const q = `
		INSERT INTO pairing_codes (code, owner_session_id, consumed, consumer_session_id, created_at, expires_at)
		VALUES ($1, $2, FALSE, '', $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET owner_session_id = EXCLUDED.owner_session_id,
		    consumed = FALSE,
		    consumer_session_id = '',
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE pairing_codes.expires_at <= EXCLUDED.created_at
		RETURNING code`
	var inserted string
	err := r.db.QueryRowContext(ctx, q, c.Code, c.OwnerSessionID, c.CreatedAt, c.ExpiresAt).Scan(&inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict with a live code: the DO UPDATE predicate rejected the row.
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

// Consume atomically marks the code consumed and records the redeemer.
// On a no-op update the row is re-read to classify the failure.
func (r *PostgresRepository) Consume(ctx context.Context, code, redeemerSessionID string, now time.Time) (*domain.PairingCode, error) {
	const q = `
		UPDATE pairing_codes
		SET consumed = TRUE, consumer_session_id = $2
		WHERE code = $1 AND NOT consumed AND expires_at > $3 AND owner_session_id <> $2
		RETURNING code, owner_session_id, consumed, consumer_session_id, created_at, expires_at`
	c, err := scanCode(r.db.QueryRowContext(ctx, q, code, redeemerSessionID, now))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return nil, r.classifyConsumeFailure(ctx, code, redeemerSessionID, now)
}

// classifyConsumeFailure explains why the conditional consume matched no row.
func (r *PostgresRepository) classifyConsumeFailure(ctx context.Context, code, redeemerSessionID string, now time.Time) error {
	const q = `SELECT code, owner_session_id, consumed, consumer_session_id, created_at, expires_at FROM pairing_codes WHERE code = $1`
	c, err := scanCode(r.db.QueryRowContext(ctx, q, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCodeNotFound
		}
		return err
	}
	switch {
	case c.Expired(now):
		return ErrCodeExpired
	case c.Consumed:
		return ErrCodeConsumed
	case c.OwnerSessionID == redeemerSessionID:
		return ErrSelfPairing
	default:
		// The row became redeemable between the UPDATE and this read; the
		// caller does not retry, per exactly-once semantics.
		return ErrCodeConsumed
	}
}

// ListActiveByOwner returns all unexpired codes owned by the session, ordered by creation time.
func (r *PostgresRepository) ListActiveByOwner(ctx context.Context, ownerSessionID string, now time.Time) ([]*domain.PairingCode, error) {
	const q = `
		SELECT code, owner_session_id, consumed, consumer_session_id, created_at, expires_at
		FROM pairing_codes
		WHERE owner_session_id = $1 AND expires_at > $2
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, ownerSessionID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.PairingCode, 0)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteExpired removes codes past their TTL and reports how many were removed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pairing_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*domain.PairingCode, error) {
	var c domain.PairingCode
	if err := row.Scan(&c.Code, &c.OwnerSessionID, &c.Consumed, &c.ConsumerSessionID, &c.CreatedAt, &c.ExpiresAt); err != nil {
		return nil, err
	}
	return &c, nil
}
