package attendance

import (
	"context"
	"time"
)

// SessionRepository is the session store. Open and Close are atomic with
// respect to concurrent callers for the same user: the open-session invariant
// is enforced here, not by service-level locking, because the service may run
// as multiple processes.
type SessionRepository interface {
	// Open creates a new open session for the user, failing with
	// ErrAlreadyOpen if one already exists at the moment of the write.
	Open(ctx context.Context, session Session) (Session, error)

	// Close finds the user's open session and atomically marks it closed,
	// recording the close time, location and optional photo. Fails with
	// ErrNoOpenSession if no open session exists at the time of the write.
	Close(ctx context.Context, userID string, at time.Time, lat, lon *float64, photo *string) (Session, error)

	// GetOpen returns the user's current open session, or nil.
	GetOpen(ctx context.Context, userID string) (*Session, error)

	// History returns the user's sessions newest first, bounded by limit.
	History(ctx context.Context, userID string, limit int) ([]Session, error)

	// List retrieves sessions across users with filters and pagination.
	List(ctx context.Context, filter SessionFilter) ([]Session, int64, error)
}
