package stats

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mbfrancisco/skportal/pkg/middleware"
	"github.com/mbfrancisco/skportal/pkg/response"
)

// Handler handles HTTP requests for statistics
type Handler struct {
	service *Service
}

// NewHandler creates a new stats handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for statistics endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/events/{eventId}", h.EventStats)
	r.Get("/summary", h.CrossEventStats)

	return r
}

// EventStats handles GET /stats/events/{eventId}
// @Summary      Get event statistics
// @Description  Approved registrations, attendance counts and attendance rate for one event
// @Tags         stats
// @Produce      json
// @Param        eventId path int true "Event ID"
// @Success      200 {object} response.APIResponse{data=EventStats}
// @Failure      404 {object} response.APIResponse
// @Router       /stats/events/{eventId} [get]
func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid event ID")
		return
	}

	es, err := h.service.EventStats(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to compute event statistics")
		return
	}

	response.JSON(w, http.StatusOK, es)
}

// CrossEventStats handles GET /stats/summary?event_ids=1,2,3
// @Summary      Get cross-event statistics
// @Description  Staff-only rollup of registrations and attendance across events, ranked by attendance rate
// @Tags         stats
// @Produce      json
// @Param        event_ids query string true "Comma-separated event IDs"
// @Success      200 {object} response.APIResponse{data=CrossEventStats}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /stats/summary [get]
func (h *Handler) CrossEventStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	raw := r.URL.Query().Get("event_ids")
	var eventIDs []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid event ID: "+part)
			return
		}
		eventIDs = append(eventIDs, id)
	}

	result, err := h.service.CrossEventStats(r.Context(), actor, eventIDs)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaffOnly):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNoEvents):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to compute statistics")
		}
		return
	}

	response.JSON(w, http.StatusOK, result)
}
