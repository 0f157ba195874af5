// Package directory implements the user directory: the persistent registry
// of identities and their current session credentials.
package directory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/server/models"
)

// Repository is the storage contract for user records. Implementations must
// apply UpdateSession atomically: a reader may observe the record before or
// after a rotation, never a mix of two rotations.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	// UpdateSession replaces sessionID, networkKey and lastLogin in one
	// atomic write and returns the updated record.
	UpdateSession(ctx context.Context, id, sessionID, networkKey string, lastLogin time.Time) (*models.User, error)

	// AddConnection records that a and b have been bridged, in both
	// directions. Advisory bookkeeping, not referentially enforced.
	AddConnection(ctx context.Context, a, b string) error

	IncrementMessageCount(ctx context.Context, id string) error
}
