package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/absensi-app/attendance-backend-go/internal/domain/attendance"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type sessionRepository struct {
	db *database.DB
}

const sessionColumns = `id, user_id, check_in,
	   check_in_latitude, check_in_longitude, check_in_photo,
	   check_out, check_out_latitude, check_out_longitude, check_out_photo,
	   note, created_at`

func scanSession(row pgx.Row) (attendance.Session, error) {
	var s attendance.Session
	err := row.Scan(
		&s.ID, &s.UserID, &s.CheckIn,
		&s.CheckInLatitude, &s.CheckInLongitude, &s.CheckInPhoto,
		&s.CheckOut, &s.CheckOutLatitude, &s.CheckOutLongitude, &s.CheckOutPhoto,
		&s.Note, &s.CreatedAt,
	)
	return s, err
}

// Open implements attendance.SessionRepository. The partial unique index on
// (user_id) WHERE check_out IS NULL makes the check-and-create atomic: of two
// concurrent opens for one user, exactly one insert succeeds and the other
// fails with a unique violation, mapped to ErrAlreadyOpen.
func (r *sessionRepository) Open(ctx context.Context, session attendance.Session) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_sessions (
			id, user_id, check_in,
			check_in_latitude, check_in_longitude, check_in_photo, note
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.CheckIn,
		session.CheckInLatitude,
		session.CheckInLongitude,
		session.CheckInPhoto,
		session.Note,
	).Scan(&session.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return attendance.Session{}, attendance.ErrAlreadyOpen
		}
		return attendance.Session{}, fmt.Errorf("failed to open attendance session: %w", err)
	}

	return session, nil
}

// Close implements attendance.SessionRepository. A single guarded UPDATE makes
// the find-and-close atomic: of two concurrent closes, one matches the open
// row and the other sees zero rows, mapped to ErrNoOpenSession.
func (r *sessionRepository) Close(ctx context.Context, userID string, at time.Time, lat, lon *float64, photo *string) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_sessions
		SET check_out = $2,
			check_out_latitude = $3,
			check_out_longitude = $4,
			check_out_photo = $5
		WHERE user_id = $1
		  AND check_out IS NULL
		RETURNING ` + sessionColumns

	session, err := scanSession(q.QueryRow(ctx, query, userID, at, lat, lon, photo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrNoOpenSession
		}
		return attendance.Session{}, fmt.Errorf("failed to close attendance session: %w", err)
	}

	return session, nil
}

// GetOpen implements attendance.SessionRepository.
func (r *sessionRepository) GetOpen(ctx context.Context, userID string) (*attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE user_id = $1
		  AND check_out IS NULL
		ORDER BY check_in DESC
		LIMIT 1
	`

	session, err := scanSession(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}

	return &session, nil
}

// History implements attendance.SessionRepository.
func (r *sessionRepository) History(ctx context.Context, userID string, limit int) ([]attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE user_id = $1
		ORDER BY check_in DESC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session history: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// List implements attendance.SessionRepository.
func (r *sessionRepository) List(ctx context.Context, filter attendance.SessionFilter) ([]attendance.Session, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.UserID != nil && *filter.UserID != "" {
		baseWhere += fmt.Sprintf(" AND s.user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND s.check_in >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND s.check_in < $%d::date + INTERVAL '1 day'", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.OpenOnly {
		baseWhere += " AND s.check_out IS NULL"
	}

	countQuery := "SELECT COUNT(*) FROM attendance_sessions s WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT s.id, s.user_id, s.check_in,
			   s.check_in_latitude, s.check_in_longitude, s.check_in_photo,
			   s.check_out, s.check_out_latitude, s.check_out_longitude, s.check_out_photo,
			   s.note, s.created_at,
			   u.name AS user_name
		FROM attendance_sessions s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE %s
		ORDER BY s.check_in %s
		LIMIT $%d OFFSET $%d
	`, baseWhere, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []attendance.Session
	for rows.Next() {
		var s attendance.Session
		err := rows.Scan(
			&s.ID, &s.UserID, &s.CheckIn,
			&s.CheckInLatitude, &s.CheckInLongitude, &s.CheckInPhoto,
			&s.CheckOut, &s.CheckOutLatitude, &s.CheckOutLongitude, &s.CheckOutPhoto,
			&s.Note, &s.CreatedAt,
			&s.UserName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, total, rows.Err()
}

func NewSessionRepository(db *database.DB) attendance.SessionRepository {
	return &sessionRepository{db: db}
}
