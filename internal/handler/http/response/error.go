package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/absensi-app/attendance-backend-go/internal/domain/attendance"
	"github.com/absensi-app/attendance-backend-go/internal/domain/auth"
	"github.com/absensi-app/attendance-backend-go/internal/domain/leave"
	"github.com/absensi-app/attendance-backend-go/internal/domain/user"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/geo"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Attendance errors carrying data get their own payloads so clients can
	// show the distance or the leave range instead of a bare message.
	var outOfRange *attendance.OutOfRangeError
	if errors.As(err, &outOfRange) {
		UnprocessableEntity(w, "OUT_OF_RANGE", outOfRange.Error(), map[string]string{
			"distance_meters": fmt.Sprintf("%.1f", outOfRange.DistanceMeters),
			"radius_meters":   fmt.Sprintf("%.0f", outOfRange.RadiusMeters),
		})
		return
	}

	var onLeave *attendance.OnLeaveTodayError
	if errors.As(err, &onLeave) {
		UnprocessableEntity(w, "ON_LEAVE_TODAY", onLeave.Error(), map[string]string{
			"leave_type": onLeave.LeaveType,
			"start_date": onLeave.StartDate.Format("2006-01-02"),
			"end_date":   onLeave.EndDate.Format("2006-01-02"),
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyOpen):
		Conflict(w, "An open attendance session already exists")
	case errors.Is(err, attendance.ErrNoOpenSession):
		Conflict(w, "No open attendance session to check out")
	case errors.Is(err, attendance.ErrLocationRequired):
		BadRequest(w, "Location is required", nil)
	case errors.Is(err, attendance.ErrPhotoRequired):
		BadRequest(w, "Attendance photo is required", nil)
	case errors.Is(err, geo.ErrInvalidCoordinate):
		BadRequest(w, "Invalid coordinates", nil)

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrNotRequestOwner):
		Forbidden(w, "Not the owner of this leave request")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
