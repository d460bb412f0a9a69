package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no profile exists for the user.
var ErrNotFound = errors.New("profile not found")

// Store persists user profiles keyed by user id.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Put(ctx context.Context, userID string, p *Profile) error
}
