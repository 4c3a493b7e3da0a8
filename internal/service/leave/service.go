// Package leave implements the leave request workflow: submission, the
// pending to approved/rejected/cancelled transitions and the approved-leave
// lookup the attendance engine uses for conflict checks.
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/absensi-app/attendance-backend-go/internal/domain/leave"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/clock"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type leaveService struct {
	leave.LeaveRequestRepository
	clock clock.Clock
}

func NewLeaveService(repo leave.LeaveRequestRepository, clk clock.Clock) leave.LeaveService {
	return &leaveService{
		LeaveRequestRepository: repo,
		clock:                  clk,
	}
}

// Submit implements leave.LeaveService.
func (s *leaveService) Submit(ctx context.Context, userID string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)

	request := leave.LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      leave.LeaveType(req.Type),
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Status:    leave.LeaveStatusPending,
		CreatedAt: s.clock.Now(),
	}

	created, err := s.LeaveRequestRepository.Create(ctx, request)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return toLeaveResponse(created), nil
}

// Approve implements leave.LeaveService.
func (s *leaveService) Approve(ctx context.Context, requestID string, adminID string) (leave.LeaveRequestResponse, error) {
	updated, err := s.LeaveRequestRepository.UpdateStatus(ctx, requestID, leave.LeaveStatusApproved, &adminID, nil, s.clock.Now())
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return toLeaveResponse(updated), nil
}

// Reject implements leave.LeaveService.
func (s *leaveService) Reject(ctx context.Context, req leave.RejectLeaveRequest, adminID string) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	updated, err := s.LeaveRequestRepository.UpdateStatus(ctx, req.ID, leave.LeaveStatusRejected, &adminID, &req.Reason, s.clock.Now())
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return toLeaveResponse(updated), nil
}

// Cancel implements leave.LeaveService. Ownership is checked before the
// write so a foreign request id fails with ErrNotRequestOwner rather than
// leaking through the status guard.
func (s *leaveService) Cancel(ctx context.Context, requestID string, userID string) (leave.LeaveRequestResponse, error) {
	existing, err := s.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if existing.UserID != userID {
		return leave.LeaveRequestResponse{}, leave.ErrNotRequestOwner
	}

	updated, err := s.LeaveRequestRepository.UpdateStatus(ctx, requestID, leave.LeaveStatusCancelled, nil, nil, s.clock.Now())
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return toLeaveResponse(updated), nil
}

// Mine implements leave.LeaveService.
func (s *leaveService) Mine(ctx context.Context, userID string, filter leave.LeaveFilter) (leave.ListLeaveRequestsResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestsResponse{}, err
	}

	requests, total, err := s.LeaveRequestRepository.ListByUser(ctx, userID, filter)
	if err != nil {
		return leave.ListLeaveRequestsResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	return toListResponse(requests, total, filter), nil
}

// List implements leave.LeaveService.
func (s *leaveService) List(ctx context.Context, filter leave.LeaveFilter) (leave.ListLeaveRequestsResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestsResponse{}, err
	}

	requests, total, err := s.LeaveRequestRepository.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveRequestsResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	return toListResponse(requests, total, filter), nil
}

// ApprovedLeaveFor implements leave.LeaveService.
func (s *leaveService) ApprovedLeaveFor(ctx context.Context, userID string, date time.Time) (*leave.LeaveRequest, error) {
	return s.LeaveRequestRepository.FindApprovedForDate(ctx, userID, date)
}

func toLeaveResponse(r leave.LeaveRequest) leave.LeaveRequestResponse {
	return leave.LeaveRequestResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		UserName:        r.UserName,
		Type:            string(r.Type),
		StartDate:       r.StartDate.Format("2006-01-02"),
		EndDate:         r.EndDate.Format("2006-01-02"),
		Reason:          r.Reason,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}

func toListResponse(requests []leave.LeaveRequest, total int64, filter leave.LeaveFilter) leave.ListLeaveRequestsResponse {
	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, toLeaveResponse(r))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return leave.ListLeaveRequestsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Requests:   responses,
	}
}
