// Package clock abstracts wall-clock time so attendance decisions are
// deterministic under test.
package clock

import "time"

// Clock supplies the current instant and the current calendar day. Today is
// computed in the configured business timezone because "on leave today"
// depends on the local date, not the UTC date.
type Clock interface {
	// Now returns the current instant in UTC.
	Now() time.Time

	// Today returns the current calendar day in the business timezone,
	// normalized to midnight UTC for date-only comparison.
	Today() time.Time
}

type realClock struct {
	loc *time.Location
}

// New returns a Clock for the given business timezone.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

func (c *realClock) Today() time.Time {
	y, m, d := time.Now().In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
