// Package identity supplies the persistent user and per-run session
// identifiers consumed by the session engine.
package identity

import "github.com/google/uuid"

// Identity bundles the ids attached to every backend request.
type Identity struct {
	UserID    string
	SessionID string
}

// New returns an identity with freshly generated user and session ids.
func New() Identity {
	return Identity{
		UserID:    uuid.NewString(),
		SessionID: uuid.NewString(),
	}
}

// ForUser returns an identity for a known user with a new session id.
func ForUser(userID string) Identity {
	if userID == "" {
		return New()
	}
	return Identity{
		UserID:    userID,
		SessionID: uuid.NewString(),
	}
}
