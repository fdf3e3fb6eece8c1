package repository

import (
	"context"
	"errors"
	"time"

	"nexty-pairing-service/internal/paircode/domain"
)

// Sentinel errors for the code store; the pairing service maps them to its taxonomy.
var (
	// ErrDuplicateCode is returned by Create when the code value collides with a live code.
	ErrDuplicateCode = errors.New("code value collides with an active code")
	// ErrCodeNotFound is returned by Consume when no code with the value exists.
	ErrCodeNotFound = errors.New("pairing code not found")
	// ErrCodeExpired is returned by Consume when the code is past its TTL.
	ErrCodeExpired = errors.New("pairing code expired")
	// ErrCodeConsumed is returned by Consume when the code was already redeemed.
	ErrCodeConsumed = errors.New("pairing code already consumed")
	// ErrSelfPairing is returned by Consume when the redeemer owns the code.
	ErrSelfPairing = errors.New("cannot redeem own pairing code")
)

// Repository defines persistence for pairing codes. Expiry is evaluated
// lazily against the caller-supplied instant, so implementations need no
// clock of their own.
type Repository interface {
	// Create stores a fresh code. The record must have Code, OwnerSessionID,
	// CreatedAt, and ExpiresAt set. A collision with an unexpired code fails
	// with ErrDuplicateCode; an expired leftover under the same value is
	// replaced.
	Create(ctx context.Context, c *domain.PairingCode) error
	// Consume atomically transitions the code from unconsumed to consumed and
	// records the redeemer. Under concurrent calls on the same code exactly
	// one succeeds; the rest observe ErrCodeConsumed. Fails with
	// ErrCodeNotFound, ErrCodeExpired, ErrCodeConsumed, or ErrSelfPairing.
	Consume(ctx context.Context, code, redeemerSessionID string, now time.Time) (*domain.PairingCode, error)
	// ListActiveByOwner returns all unexpired codes owned by the session,
	// consumed ones included, ordered by creation time.
	ListActiveByOwner(ctx context.Context, ownerSessionID string, now time.Time) ([]*domain.PairingCode, error)
	// DeleteExpired reclaims storage for codes past their TTL and reports how
	// many were removed. Correctness never depends on it; expiry is enforced
	// at Consume and ListActiveByOwner.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
