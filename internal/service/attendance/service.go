// Package attendance implements the session lifecycle engine: check-in and
// check-out rules, the geofence check and leave conflict detection.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/absensi-app/attendance-backend-go/internal/config"
	"github.com/absensi-app/attendance-backend-go/internal/domain/attendance"
	"github.com/absensi-app/attendance-backend-go/internal/domain/leave"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/clock"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/geo"
	"github.com/google/uuid"
)

type attendanceService struct {
	sessions attendance.SessionRepository
	leaves   leave.LeaveRequestRepository
	clock    clock.Clock
	policy   config.AttendanceConfig
}

// NewAttendanceService wires the engine. The policy knobs (geofence radius,
// photo requirements) come from configuration, not per-request input.
func NewAttendanceService(
	sessions attendance.SessionRepository,
	leaves leave.LeaveRequestRepository,
	clk clock.Clock,
	policy config.AttendanceConfig,
) attendance.AttendanceService {
	return &attendanceService{
		sessions: sessions,
		leaves:   leaves,
		clock:    clk,
		policy:   policy,
	}
}

// CheckIn implements attendance.AttendanceService.
func (s *attendanceService) CheckIn(ctx context.Context, userID string, req attendance.CheckInRequest) (attendance.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SessionResponse{}, err
	}

	if req.Latitude == nil || req.Longitude == nil {
		return attendance.SessionResponse{}, attendance.ErrLocationRequired
	}
	if err := geo.ValidateCoordinate(*req.Latitude, *req.Longitude); err != nil {
		return attendance.SessionResponse{}, err
	}

	if s.policy.RequireCheckInPhoto && (req.Photo == nil || *req.Photo == "") {
		return attendance.SessionResponse{}, attendance.ErrPhotoRequired
	}

	today := s.clock.Today()
	onLeave, err := s.leaves.FindApprovedForDate(ctx, userID, today)
	if err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to check leave conflicts: %w", err)
	}
	if onLeave != nil {
		return attendance.SessionResponse{}, &attendance.OnLeaveTodayError{
			LeaveType: string(onLeave.Type),
			StartDate: onLeave.StartDate,
			EndDate:   onLeave.EndDate,
		}
	}

	// Fast path for the common double-tap. The store still enforces the
	// invariant on the write, so a race here is harmless.
	open, err := s.sessions.GetOpen(ctx, userID)
	if err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to check open session: %w", err)
	}
	if open != nil {
		return attendance.SessionResponse{}, attendance.ErrAlreadyOpen
	}

	session := attendance.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		CheckIn:          s.clock.Now(),
		CheckInLatitude:  req.Latitude,
		CheckInLongitude: req.Longitude,
		CheckInPhoto:     req.Photo,
		Note:             req.Note,
	}

	created, err := s.sessions.Open(ctx, session)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	return toSessionResponse(created), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *attendanceService) CheckOut(ctx context.Context, userID string, req attendance.CheckOutRequest) (attendance.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SessionResponse{}, err
	}

	if req.Latitude == nil || req.Longitude == nil {
		return attendance.SessionResponse{}, attendance.ErrLocationRequired
	}
	if err := geo.ValidateCoordinate(*req.Latitude, *req.Longitude); err != nil {
		return attendance.SessionResponse{}, err
	}

	if s.policy.RequireCheckOutPhoto && (req.Photo == nil || *req.Photo == "") {
		return attendance.SessionResponse{}, attendance.ErrPhotoRequired
	}

	open, err := s.sessions.GetOpen(ctx, userID)
	if err != nil {
		return attendance.SessionResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}
	if open == nil {
		return attendance.SessionResponse{}, attendance.ErrNoOpenSession
	}

	// Sessions opened without a recorded location have no geofence anchor,
	// so the radius check is skipped for them.
	if open.CheckInLatitude != nil && open.CheckInLongitude != nil {
		distance, err := geo.Distance(
			*open.CheckInLatitude, *open.CheckInLongitude,
			*req.Latitude, *req.Longitude,
		)
		if err != nil {
			return attendance.SessionResponse{}, err
		}
		if distance > s.policy.GeofenceRadiusMeters {
			return attendance.SessionResponse{}, &attendance.OutOfRangeError{
				DistanceMeters: distance,
				RadiusMeters:   s.policy.GeofenceRadiusMeters,
			}
		}
	}

	closed, err := s.sessions.Close(ctx, userID, s.clock.Now(), req.Latitude, req.Longitude, req.Photo)
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	return toSessionResponse(closed), nil
}

// Status implements attendance.AttendanceService.
func (s *attendanceService) Status(ctx context.Context, userID string) (attendance.StatusResponse, error) {
	open, err := s.sessions.GetOpen(ctx, userID)
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}

	onLeave, err := s.leaves.FindApprovedForDate(ctx, userID, s.clock.Today())
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to check leave conflicts: %w", err)
	}

	resp := attendance.StatusResponse{
		CanCheckIn:  open == nil && onLeave == nil,
		CanCheckOut: open != nil,
	}
	if open != nil {
		sr := toSessionResponse(*open)
		resp.OpenSession = &sr
	}
	if onLeave != nil {
		resp.LeaveToday = &attendance.LeaveTodayInfo{
			LeaveType: string(onLeave.Type),
			StartDate: onLeave.StartDate.Format("2006-01-02"),
			EndDate:   onLeave.EndDate.Format("2006-01-02"),
		}
	}

	return resp, nil
}

// History implements attendance.AttendanceService.
func (s *attendanceService) History(ctx context.Context, userID string, limit int) ([]attendance.SessionResponse, error) {
	sessions, err := s.sessions.History(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance history: %w", err)
	}

	responses := make([]attendance.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, toSessionResponse(session))
	}

	return responses, nil
}

// List implements attendance.AttendanceService.
func (s *attendanceService) List(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListSessionsResponse{}, err
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return attendance.ListSessionsResponse{}, fmt.Errorf("failed to list attendance sessions: %w", err)
	}

	responses := make([]attendance.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, toSessionResponse(session))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return attendance.ListSessionsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Sessions:   responses,
	}, nil
}

func toSessionResponse(s attendance.Session) attendance.SessionResponse {
	resp := attendance.SessionResponse{
		ID:                s.ID,
		UserID:            s.UserID,
		UserName:          s.UserName,
		CheckInTime:       s.CheckIn.Format(time.RFC3339),
		CheckInLatitude:   s.CheckInLatitude,
		CheckInLongitude:  s.CheckInLongitude,
		CheckOutLatitude:  s.CheckOutLatitude,
		CheckOutLongitude: s.CheckOutLongitude,
		Note:              s.Note,
		Open:              s.Open(),
	}
	if s.CheckOut != nil {
		out := s.CheckOut.Format(time.RFC3339)
		resp.CheckOutTime = &out
	}
	return resp
}
