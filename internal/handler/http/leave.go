package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/absensi-app/attendance-backend-go/internal/domain/auth"
	"github.com/absensi-app/attendance-backend-go/internal/domain/leave"
	"github.com/absensi-app/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Mine(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{
		leaveService: leaveService,
	}
}

// Submit implements LeaveHandler.
func (h *leaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	var req leave.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.leaveService.Submit(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted", created)
}

// Mine implements LeaveHandler.
func (h *leaveHandlerImpl) Mine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	filter, ok := leaveFilterFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.leaveService.Mine(r.Context(), userID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Requests, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// Cancel implements LeaveHandler.
func (h *leaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	if userID == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	requestID := chi.URLParam(r, "id")

	cancelled, err := h.leaveService.Cancel(r.Context(), requestID, userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled", cancelled)
}

// List implements LeaveHandler. Admin only.
func (h *leaveHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := leaveFilterFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.leaveService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Requests, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// Approve implements LeaveHandler. Admin only.
func (h *leaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	adminID := userIDFromRequest(r)
	if adminID == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	requestID := chi.URLParam(r, "id")

	approved, err := h.leaveService.Approve(r.Context(), requestID, adminID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved", approved)
}

// Reject implements LeaveHandler. Admin only.
func (h *leaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	adminID := userIDFromRequest(r)
	if adminID == "" {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	var req leave.RejectLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	rejected, err := h.leaveService.Reject(r.Context(), req, adminID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", rejected)
}

func leaveFilterFromQuery(w http.ResponseWriter, r *http.Request) (leave.LeaveFilter, bool) {
	var filter leave.LeaveFilter

	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "page must be a number", nil)
			return filter, false
		}
		filter.Page = page
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "limit must be a number", nil)
			return filter, false
		}
		filter.Limit = limit
	}

	return filter, true
}
