package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absensi-app/attendance-backend-go/internal/domain/leave"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepository struct {
	db *database.DB
}

const leaveColumns = `id, user_id, leave_type, start_date, end_date, reason,
	   status, decided_by, decided_at, rejection_reason, cancelled_at,
	   created_at, updated_at`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var r leave.LeaveRequest
	err := row.Scan(
		&r.ID, &r.UserID, &r.Type, &r.StartDate, &r.EndDate, &r.Reason,
		&r.Status, &r.DecidedBy, &r.DecidedAt, &r.RejectionReason, &r.CancelledAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		INSERT INTO leave_requests (
			id, user_id, leave_type, start_date, end_date, reason, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.ID,
		request.UserID,
		request.Type,
		request.StartDate,
		request.EndDate,
		request.Reason,
		request.Status,
	).Scan(&request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`

	request, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request by ID: %w", err)
	}

	return request, nil
}

// UpdateStatus implements leave.LeaveRequestRepository. The status guard in
// the WHERE clause keeps the state machine one-way: only pending rows move,
// so two concurrent decisions resolve to one winner.
func (l *leaveRequestRepository) UpdateStatus(ctx context.Context, id string, status leave.LeaveStatus, decidedBy *string, reason *string, at time.Time) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	var query string
	if status == leave.LeaveStatusCancelled {
		query = `
			UPDATE leave_requests
			SET status = $2, cancelled_at = $3, updated_at = $3
			WHERE id = $1 AND status = 'pending'
			RETURNING ` + leaveColumns
		request, err := scanLeaveRequest(q.QueryRow(ctx, query, id, status, at))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return leave.LeaveRequest{}, l.noMatchReason(ctx, id)
			}
			return leave.LeaveRequest{}, fmt.Errorf("failed to cancel leave request: %w", err)
		}
		return request, nil
	}

	query = `
		UPDATE leave_requests
		SET status = $2, decided_by = $3, decided_at = $4, rejection_reason = $5, updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + leaveColumns

	request, err := scanLeaveRequest(q.QueryRow(ctx, query, id, status, decidedBy, at, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, l.noMatchReason(ctx, id)
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request status: %w", err)
	}

	return request, nil
}

// noMatchReason resolves a guarded UPDATE that touched zero rows: the row
// either does not exist or is no longer pending.
func (l *leaveRequestRepository) noMatchReason(ctx context.Context, id string) error {
	if _, err := l.GetByID(ctx, id); err != nil {
		return err
	}
	return leave.ErrAlreadyProcessed
}

// FindApprovedForDate implements leave.LeaveRequestRepository. Overlapping
// approved ranges should not exist, but when they do the newest grant wins.
func (l *leaveRequestRepository) FindApprovedForDate(ctx context.Context, userID string, date time.Time) (*leave.LeaveRequest, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE user_id = $1
		  AND status = 'approved'
		  AND $2::date BETWEEN start_date AND end_date
		ORDER BY created_at DESC
		LIMIT 1
	`

	request, err := scanLeaveRequest(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find approved leave for date: %w", err)
	}

	return &request, nil
}

// ListByUser implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) ListByUser(ctx context.Context, userID string, filter leave.LeaveFilter) ([]leave.LeaveRequest, int64, error) {
	return l.list(ctx, &userID, filter)
}

// List implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) List(ctx context.Context, filter leave.LeaveFilter) ([]leave.LeaveRequest, int64, error) {
	return l.list(ctx, nil, filter)
}

func (l *leaveRequestRepository) list(ctx context.Context, userID *string, filter leave.LeaveFilter) ([]leave.LeaveRequest, int64, error) {
	q := GetQuerier(ctx, l.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if userID != nil {
		baseWhere += fmt.Sprintf(" AND r.user_id = $%d", argIdx)
		args = append(args, *userID)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND r.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM leave_requests r WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT r.id, r.user_id, r.leave_type, r.start_date, r.end_date, r.reason,
			   r.status, r.decided_by, r.decided_at, r.rejection_reason, r.cancelled_at,
			   r.created_at, r.updated_at,
			   u.name AS user_name
		FROM leave_requests r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseWhere, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		var r leave.LeaveRequest
		err := rows.Scan(
			&r.ID, &r.UserID, &r.Type, &r.StartDate, &r.EndDate, &r.Reason,
			&r.Status, &r.DecidedBy, &r.DecidedAt, &r.RejectionReason, &r.CancelledAt,
			&r.CreatedAt, &r.UpdatedAt,
			&r.UserName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, r)
	}

	return requests, total, rows.Err()
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepository{db: db}
}
