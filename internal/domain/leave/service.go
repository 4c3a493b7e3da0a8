package leave

import (
	"context"
	"time"
)

// LeaveService owns the leave request workflow. The attendance engine only
// consumes ApprovedLeaveFor; it never mutates leave status.
type LeaveService interface {
	// Submit creates a pending request for the user.
	Submit(ctx context.Context, userID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)

	// Approve moves a pending request to approved (admin).
	Approve(ctx context.Context, requestID string, adminID string) (LeaveRequestResponse, error)

	// Reject moves a pending request to rejected with a reason (admin).
	Reject(ctx context.Context, req RejectLeaveRequest, adminID string) (LeaveRequestResponse, error)

	// Cancel moves the owner's pending request to cancelled.
	Cancel(ctx context.Context, requestID string, userID string) (LeaveRequestResponse, error)

	// Mine lists the user's own requests.
	Mine(ctx context.Context, userID string, filter LeaveFilter) (ListLeaveRequestsResponse, error)

	// List lists requests across users (admin).
	List(ctx context.Context, filter LeaveFilter) (ListLeaveRequestsResponse, error)

	// ApprovedLeaveFor returns the approved leave covering date, or nil.
	ApprovedLeaveFor(ctx context.Context, userID string, date time.Time) (*LeaveRequest, error)
}
