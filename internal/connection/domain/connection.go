package domain

import "time"

// Connection is an immutable record that two sessions have successfully
// paired. There is no update or delete; connections are append-only facts.
type Connection struct {
	ID string
	// SessionA is the code owner; SessionB is the redeemer.
	SessionA string
	SessionB string
	// PairingCode is the code value that created the connection.
	PairingCode   string
	EstablishedAt time.Time
}

// Counterpart returns the other party's session id, or "" when sessionID is
// not a participant.
func (c *Connection) Counterpart(sessionID string) string {
	switch sessionID {
	case c.SessionA:
		return c.SessionB
	case c.SessionB:
		return c.SessionA
	default:
		return ""
	}
}
