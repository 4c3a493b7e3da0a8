package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/absensi-app/attendance-backend-go/internal/config"
	"github.com/absensi-app/attendance-backend-go/internal/domain/attendance"
	"github.com/absensi-app/attendance-backend-go/internal/domain/leave"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins the engine to a known instant and calendar day.
type fixedClock struct {
	now   time.Time
	today time.Time
}

func (c *fixedClock) Now() time.Time   { return c.now }
func (c *fixedClock) Today() time.Time { return c.today }

// memSessionRepo enforces the one-open-session invariant under its mutex, the
// same guarantee the partial unique index gives the real store.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]attendance.Session
	order    []string
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]attendance.Session)}
}

func (r *memSessionRepo) Open(_ context.Context, session attendance.Session) (attendance.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.UserID == session.UserID && s.CheckOut == nil {
			return attendance.Session{}, attendance.ErrAlreadyOpen
		}
	}

	session.CreatedAt = session.CheckIn
	r.sessions[session.ID] = session
	r.order = append(r.order, session.ID)
	return session, nil
}

func (r *memSessionRepo) Close(_ context.Context, userID string, at time.Time, lat, lon *float64, photo *string) (attendance.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.UserID == userID && s.CheckOut == nil {
			s.CheckOut = &at
			s.CheckOutLatitude = lat
			s.CheckOutLongitude = lon
			s.CheckOutPhoto = photo
			r.sessions[id] = s
			return s, nil
		}
	}
	return attendance.Session{}, attendance.ErrNoOpenSession
}

func (r *memSessionRepo) GetOpen(_ context.Context, userID string) (*attendance.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.UserID == userID && s.CheckOut == nil {
			open := s
			return &open, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) History(_ context.Context, userID string, limit int) ([]attendance.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	var out []attendance.Session
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		s := r.sessions[r.order[i]]
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) List(_ context.Context, filter attendance.SessionFilter) ([]attendance.Session, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []attendance.Session
	for i := len(r.order) - 1; i >= 0; i-- {
		s := r.sessions[r.order[i]]
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if filter.OpenOnly && s.CheckOut != nil {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

// memLeaveRepo serves FindApprovedForDate from a slice; newest created wins
// when approved ranges overlap, matching the store's ordering.
type memLeaveRepo struct {
	mu       sync.Mutex
	requests []leave.LeaveRequest
}

func (r *memLeaveRepo) Create(_ context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return req, nil
}

func (r *memLeaveRepo) GetByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
}

func (r *memLeaveRepo) UpdateStatus(_ context.Context, id string, status leave.LeaveStatus, decidedBy *string, reason *string, at time.Time) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, req := range r.requests {
		if req.ID == id {
			if req.Status != leave.LeaveStatusPending {
				return leave.LeaveRequest{}, leave.ErrAlreadyProcessed
			}
			req.Status = status
			req.DecidedBy = decidedBy
			req.RejectionReason = reason
			req.DecidedAt = &at
			r.requests[i] = req
			return req, nil
		}
	}
	return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
}

func (r *memLeaveRepo) ListByUser(_ context.Context, userID string, _ leave.LeaveFilter) ([]leave.LeaveRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leave.LeaveRequest
	for _, req := range r.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memLeaveRepo) List(_ context.Context, _ leave.LeaveFilter) ([]leave.LeaveRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]leave.LeaveRequest(nil), r.requests...), int64(len(r.requests)), nil
}

func (r *memLeaveRepo) FindApprovedForDate(_ context.Context, userID string, date time.Time) (*leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *leave.LeaveRequest
	for i := range r.requests {
		req := r.requests[i]
		if req.UserID != userID || req.Status != leave.LeaveStatusApproved {
			continue
		}
		if !req.Covers(date) {
			continue
		}
		if best == nil || req.CreatedAt.After(best.CreatedAt) {
			best = &r.requests[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	found := *best
	return &found, nil
}

const (
	officeLat = -6.2
	officeLon = 106.8
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) (attendance.AttendanceService, *memSessionRepo, *memLeaveRepo, *fixedClock) {
	t.Helper()

	sessions := newMemSessionRepo()
	leaves := &memLeaveRepo{}
	clk := &fixedClock{
		now:   time.Date(2024, 3, 11, 1, 30, 0, 0, time.UTC),
		today: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	svc := NewAttendanceService(sessions, leaves, clk, config.AttendanceConfig{
		GeofenceRadiusMeters: 25,
		RequireCheckInPhoto:  true,
		RequireCheckOutPhoto: false,
	})
	return svc, sessions, leaves, clk
}

func validCheckIn() attendance.CheckInRequest {
	return attendance.CheckInRequest{
		Latitude:  ptr(officeLat),
		Longitude: ptr(officeLon),
		Photo:     ptr("data:image/jpeg;base64,selfie"),
	}
}

func TestCheckIn_Success(t *testing.T) {
	svc, _, _, clk := newTestService(t)

	resp, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, clk.now.Format(time.RFC3339), resp.CheckInTime)
	assert.True(t, resp.Open)
	assert.Nil(t, resp.CheckOutTime)
}

func TestCheckIn_LocationRequired(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := validCheckIn()
	req.Latitude = nil
	_, err := svc.CheckIn(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, attendance.ErrLocationRequired)

	req = validCheckIn()
	req.Longitude = nil
	_, err = svc.CheckIn(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, attendance.ErrLocationRequired)
}

func TestCheckIn_PhotoRequired(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := validCheckIn()
	req.Photo = nil
	_, err := svc.CheckIn(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, attendance.ErrPhotoRequired)

	req = validCheckIn()
	req.Photo = ptr("")
	_, err = svc.CheckIn(context.Background(), "user-1", req)
	assert.ErrorIs(t, err, attendance.ErrPhotoRequired)
}

func TestCheckIn_AlreadyOpen(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "user-1", validCheckIn())
	assert.ErrorIs(t, err, attendance.ErrAlreadyOpen)
}

func TestCheckIn_ConcurrentDuplicates(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(context.Background(), "user-1", validCheckIn())
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, attendance.ErrAlreadyOpen):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
}

func TestCheckIn_BlockedByApprovedLeave(t *testing.T) {
	svc, _, leaves, clk := newTestService(t)

	_, err := leaves.Create(context.Background(), leave.LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Type:      leave.LeaveTypeVacation,
		StartDate: clk.today.AddDate(0, 0, -1),
		EndDate:   clk.today.AddDate(0, 0, 2),
		Status:    leave.LeaveStatusApproved,
		CreatedAt: clk.now,
	})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "user-1", validCheckIn())

	var onLeave *attendance.OnLeaveTodayError
	require.ErrorAs(t, err, &onLeave)
	assert.Equal(t, string(leave.LeaveTypeVacation), onLeave.LeaveType)
	assert.Equal(t, clk.today.AddDate(0, 0, -1), onLeave.StartDate)
	assert.Equal(t, clk.today.AddDate(0, 0, 2), onLeave.EndDate)
}

func TestCheckIn_PendingLeaveDoesNotBlock(t *testing.T) {
	svc, _, leaves, clk := newTestService(t)

	for _, status := range []leave.LeaveStatus{leave.LeaveStatusPending, leave.LeaveStatusRejected, leave.LeaveStatusCancelled} {
		_, err := leaves.Create(context.Background(), leave.LeaveRequest{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			Type:      leave.LeaveTypeSick,
			StartDate: clk.today,
			EndDate:   clk.today,
			Status:    status,
			CreatedAt: clk.now,
		})
		require.NoError(t, err)
	}

	_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	assert.NoError(t, err)
}

func TestCheckIn_LeaveOutsideTodayDoesNotBlock(t *testing.T) {
	svc, _, leaves, clk := newTestService(t)

	_, err := leaves.Create(context.Background(), leave.LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Type:      leave.LeaveTypeVacation,
		StartDate: clk.today.AddDate(0, 0, 1),
		EndDate:   clk.today.AddDate(0, 0, 3),
		Status:    leave.LeaveStatusApproved,
		CreatedAt: clk.now,
	})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "user-1", validCheckIn())
	assert.NoError(t, err)
}

func TestCheckOut_Success(t *testing.T) {
	svc, _, _, clk := newTestService(t)

	_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	clk.now = clk.now.Add(8 * time.Hour)
	resp, err := svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{
		Latitude:  ptr(officeLat),
		Longitude: ptr(officeLon),
	})
	require.NoError(t, err)

	assert.False(t, resp.Open)
	require.NotNil(t, resp.CheckOutTime)
	assert.Equal(t, clk.now.Format(time.RFC3339), *resp.CheckOutTime)
}

func TestCheckOut_WithinRadius(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	// 0.0001 degrees of latitude is roughly 11 meters, inside the 25 m radius.
	_, err = svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{
		Latitude:  ptr(officeLat + 0.0001),
		Longitude: ptr(officeLon),
	})
	assert.NoError(t, err)
}

func TestCheckOut_OutOfRange(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)

	_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	// 0.0003 degrees of latitude is roughly 33 meters, outside the 25 m radius.
	_, err = svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{
		Latitude:  ptr(officeLat + 0.0003),
		Longitude: ptr(officeLon),
	})

	var outOfRange *attendance.OutOfRangeError
	require.ErrorAs(t, err, &outOfRange)
	assert.Greater(t, outOfRange.DistanceMeters, 25.0)
	assert.Less(t, outOfRange.DistanceMeters, 40.0)
	assert.Equal(t, 25.0, outOfRange.RadiusMeters)

	// The failed check-out must not close the session.
	open, err := sessions.GetOpen(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, open)
}

func TestCheckOut_NoOpenSession(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{
		Latitude:  ptr(officeLat),
		Longitude: ptr(officeLon),
	})
	assert.ErrorIs(t, err, attendance.ErrNoOpenSession)
}

func TestCheckOut_LocationRequired(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrLocationRequired)
}

func TestCheckOut_NoAnchorSkipsGeofence(t *testing.T) {
	svc, sessions, _, clk := newTestService(t)

	// A session recorded without a check-in location has nothing to measure
	// the check-out distance against.
	_, err := sessions.Open(context.Background(), attendance.Session{
		ID:      uuid.NewString(),
		UserID:  "user-1",
		CheckIn: clk.now,
	})
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{
		Latitude:  ptr(officeLat + 1.0),
		Longitude: ptr(officeLon + 1.0),
	})
	assert.NoError(t, err)
}

func TestStatus(t *testing.T) {
	svc, _, leaves, clk := newTestService(t)

	status, err := svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, status.CanCheckIn)
	assert.False(t, status.CanCheckOut)
	assert.Nil(t, status.OpenSession)

	_, err = svc.CheckIn(context.Background(), "user-1", validCheckIn())
	require.NoError(t, err)

	status, err = svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, status.CanCheckIn)
	assert.True(t, status.CanCheckOut)
	require.NotNil(t, status.OpenSession)
	assert.True(t, status.OpenSession.Open)

	_, err = leaves.Create(context.Background(), leave.LeaveRequest{
		ID:        uuid.NewString(),
		UserID:    "user-2",
		Type:      leave.LeaveTypeRemoteWork,
		StartDate: clk.today,
		EndDate:   clk.today,
		Status:    leave.LeaveStatusApproved,
		CreatedAt: clk.now,
	})
	require.NoError(t, err)

	status, err = svc.Status(context.Background(), "user-2")
	require.NoError(t, err)
	assert.False(t, status.CanCheckIn)
	require.NotNil(t, status.LeaveToday)
	assert.Equal(t, string(leave.LeaveTypeRemoteWork), status.LeaveToday.LeaveType)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, _, _, clk := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.CheckIn(context.Background(), "user-1", validCheckIn())
		require.NoError(t, err)
		clk.now = clk.now.Add(time.Hour)
		_, err = svc.CheckOut(context.Background(), "user-1", attendance.CheckOutRequest{
			Latitude:  ptr(officeLat),
			Longitude: ptr(officeLon),
		})
		require.NoError(t, err)
		clk.now = clk.now.Add(time.Hour)
	}

	history, err := svc.History(context.Background(), "user-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)

	first, err := time.Parse(time.RFC3339, history[0].CheckInTime)
	require.NoError(t, err)
	second, err := time.Parse(time.RFC3339, history[1].CheckInTime)
	require.NoError(t, err)
	assert.True(t, first.After(second))
}

func TestList_InvalidFilter(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.List(context.Background(), attendance.SessionFilter{Limit: 500})
	assert.Error(t, err)
}
