package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Attendance domain errors. All are recoverable at the caller; none leave the
// store mutated.
var (
	ErrAlreadyOpen      = errors.New("an open attendance session already exists")
	ErrNoOpenSession    = errors.New("no open attendance session")
	ErrLocationRequired = errors.New("location is required")
	ErrPhotoRequired    = errors.New("attendance photo is required")
)

// OutOfRangeError reports a check-out attempted outside the geofence radius
// around the check-in location.
type OutOfRangeError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("check-out location is %.1f m from check-in, allowed radius is %.0f m", e.DistanceMeters, e.RadiusMeters)
}

// OnLeaveTodayError reports a check-in blocked by an approved leave covering
// the current day.
type OnLeaveTodayError struct {
	LeaveType string
	StartDate time.Time
	EndDate   time.Time
}

func (e *OnLeaveTodayError) Error() string {
	return fmt.Sprintf("cannot check in: approved %s leave from %s to %s covers today",
		e.LeaveType, e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"))
}
