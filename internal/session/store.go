// Package session owns the client-side authentication state: a durable
// key/value store mirroring the token and profile across restarts, and the
// controller that reconciles that store with the remote API.
package session

import (
	"context"

	"github.com/jortega/fuelwatch/internal/models"
)

// Storage keys for the two durable entries.
const (
	keyAuthToken   = "auth_token"
	keyUserProfile = "user_profile"
)

// Store is the durable mirror of the session. Save writes token and profile
// together; a reader never observes one without the other after a completed
// Save. Load tolerates missing or corrupt entries by returning empty values
// rather than failing.
type Store interface {
	Save(ctx context.Context, token string, user models.UserProfile) error
	Load(ctx context.Context) (token string, user *models.UserProfile, err error)
	Clear(ctx context.Context) error
}
