package domain

import "time"

// PairingCode is a short-lived, single-use token that authorizes establishing
// a connection between two sessions. Unique among currently active codes only.
type PairingCode struct {
	Code           string
	OwnerSessionID string
	Consumed       bool
	// ConsumerSessionID is the redeemer's session id; empty until consumed.
	ConsumerSessionID string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *PairingCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Redeemable reports whether the code can still be consumed at the given instant.
func (c *PairingCode) Redeemable(now time.Time) bool {
	return !c.Consumed && !c.Expired(now)
}
