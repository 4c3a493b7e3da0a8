package attendance

import "time"

// Session is one work session: opened by a check-in, closed exactly once by a
// check-out, never reopened or deleted. CheckOut == nil means the session is
// open; the store guarantees at most one open session per user.
type Session struct {
	ID                string
	UserID            string
	CheckIn           time.Time
	CheckInLatitude   *float64
	CheckInLongitude  *float64
	CheckInPhoto      *string
	CheckOut          *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutPhoto     *string
	Note              *string
	CreatedAt         time.Time

	// DTO
	UserName *string
}

// Open reports whether the session has not been checked out yet.
func (s *Session) Open() bool {
	return s.CheckOut == nil
}
