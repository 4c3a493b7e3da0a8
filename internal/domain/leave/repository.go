package leave

import (
	"context"
	"time"
)

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)

	// UpdateStatus moves a pending request to a terminal status. The write
	// is guarded so only pending rows change; ErrAlreadyProcessed otherwise.
	UpdateStatus(ctx context.Context, id string, status LeaveStatus, decidedBy *string, reason *string, at time.Time) (LeaveRequest, error)

	ListByUser(ctx context.Context, userID string, filter LeaveFilter) ([]LeaveRequest, int64, error)
	List(ctx context.Context, filter LeaveFilter) ([]LeaveRequest, int64, error)

	// FindApprovedForDate returns the approved request whose inclusive date
	// range contains date, or nil. If overlapping approved ranges exist the
	// most recently created one is returned.
	FindApprovedForDate(ctx context.Context, userID string, date time.Time) (*LeaveRequest, error)
}
