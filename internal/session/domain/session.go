package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// IDPrefix is the namespace every session identifier must carry.
const IDPrefix = "Nexty~"

// ErrInvalidID is returned when a session identifier is empty or lacks the namespace prefix.
var ErrInvalidID = errors.New("session id must be non-empty and start with " + IDPrefix)

// Session represents a long-lived party identity presented by a client across calls.
// Sessions are created lazily on first use and never explicitly deleted.
type Session struct {
	ID         string
	DeviceInfo json.RawMessage // free-form client-supplied document; nil when never provided
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateID checks that id is non-empty, carries the namespace prefix, and has a suffix.
func ValidateID(id string) error {
	if !strings.HasPrefix(id, IDPrefix) || len(id) == len(IDPrefix) {
		return ErrInvalidID
	}
	return nil
}
