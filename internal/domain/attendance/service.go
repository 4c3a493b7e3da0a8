package attendance

import "context"

// AttendanceService is the session lifecycle engine. Every decision is
// recomputed from store reads; there is no cross-request state.
type AttendanceService interface {
	// CheckIn opens a new session after validating location, photo policy
	// and leave conflicts.
	CheckIn(ctx context.Context, userID string, req CheckInRequest) (SessionResponse, error)

	// CheckOut closes the user's open session after the geofence check
	// against the recorded check-in location.
	CheckOut(ctx context.Context, userID string, req CheckOutRequest) (SessionResponse, error)

	// Status reports the user's open session and what they may do next.
	Status(ctx context.Context, userID string) (StatusResponse, error)

	// History returns the user's sessions newest first.
	History(ctx context.Context, userID string, limit int) ([]SessionResponse, error)

	// List retrieves sessions across users (admin review).
	List(ctx context.Context, filter SessionFilter) (ListSessionsResponse, error)
}
