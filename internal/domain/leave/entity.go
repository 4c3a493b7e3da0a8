package leave

import "time"

type LeaveType string

const (
	LeaveTypeVacation     LeaveType = "vacation"
	LeaveTypePersonal     LeaveType = "personal"
	LeaveTypeSick         LeaveType = "sick"
	LeaveTypeBusinessTrip LeaveType = "business_trip"
	LeaveTypeRemoteWork   LeaveType = "remote_work"
)

// LeaveTypes lists the accepted leave categories.
var LeaveTypes = []string{
	string(LeaveTypeVacation),
	string(LeaveTypePersonal),
	string(LeaveTypeSick),
	string(LeaveTypeBusinessTrip),
	string(LeaveTypeRemoteWork),
}

type LeaveStatus string

// One-way state machine: pending may move to approved, rejected or cancelled;
// the other three are terminal.
const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusRejected  LeaveStatus = "rejected"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

// LeaveRequest entity. StartDate and EndDate are inclusive calendar dates
// (midnight UTC, no time component).
type LeaveRequest struct {
	ID     string
	UserID string
	Type   LeaveType

	StartDate time.Time
	EndDate   time.Time

	Reason *string
	Status LeaveStatus

	DecidedBy       *string
	DecidedAt       *time.Time
	RejectionReason *string
	CancelledAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	UserName *string
}

// Covers reports whether the inclusive date range contains date.
func (r *LeaveRequest) Covers(date time.Time) bool {
	return !date.Before(r.StartDate) && !date.After(r.EndDate)
}
