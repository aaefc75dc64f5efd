package attendance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mbfrancisco/skportal/pkg/middleware"
	"github.com/mbfrancisco/skportal/pkg/response"
	"github.com/mbfrancisco/skportal/pkg/validate"
)

// Handler handles HTTP requests for attendance operations
type Handler struct {
	service *Service
}

// NewHandler creates a new attendance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for attendance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Mark)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/checkout", h.CheckOut)

	// Event-based listing
	r.Get("/event/{eventId}", h.ListByEvent)

	return r
}

// Mark handles POST /attendance
// @Summary      Record attendance
// @Description  Record attendance for a resident holding an approved registration
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        request body MarkRequest true "Attendance record request"
// @Success      201 {object} response.APIResponse{data=AttendanceResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      412 {object} response.APIResponse
// @Router       /attendance [post]
func (h *Handler) Mark(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	record, err := h.service.Mark(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaffOnly):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNoApprovedRegistration):
			response.PreconditionFailed(w, err.Error())
		case errors.Is(err, ErrAlreadyMarked):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to record attendance")
		}
		return
	}

	response.JSON(w, http.StatusCreated, record.ToResponse())
}

// GetByID handles GET /attendance/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid attendance ID")
		return
	}

	record, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get attendance record")
		return
	}

	response.JSON(w, http.StatusOK, record.ToResponse())
}

// ListByEvent handles GET /attendance/event/{eventId}
// @Summary      List attendance for an event
// @Tags         attendance
// @Produce      json
// @Param        eventId path int true "Event ID"
// @Success      200 {object} response.APIResponse{data=[]AttendanceResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /attendance/event/{eventId} [get]
func (h *Handler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	records, err := h.service.ListByEvent(r.Context(), actor, eventID)
	if err != nil {
		if errors.Is(err, ErrStaffOnly) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list attendance records")
		return
	}

	recordResponses := make([]*AttendanceResponse, len(records))
	for i, a := range records {
		recordResponses[i] = a.ToResponse()
	}

	response.JSON(w, http.StatusOK, recordResponses)
}

// CheckOut handles POST /attendance/{id}/checkout
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid attendance ID")
		return
	}

	var req CheckOutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}

	record, err := h.service.CheckOut(r.Context(), actor, id, req.CheckOutTime)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaffOnly):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrRecordNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrCheckOutBeforeCheckIn):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to check out")
		}
		return
	}

	response.JSON(w, http.StatusOK, record.ToResponse())
}

// Update handles PUT /attendance/{id}
// @Summary      Correct an attendance record
// @Description  Staff correction of a mis-marked attendance status or notes
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        id path int true "Attendance ID"
// @Param        request body UpdateRequest true "Correction request"
// @Success      200 {object} response.APIResponse{data=AttendanceResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /attendance/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid attendance ID")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	record, err := h.service.Update(r.Context(), actor, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaffOnly):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrRecordNotFound):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to update attendance record")
		}
		return
	}

	response.JSON(w, http.StatusOK, record.ToResponse())
}
