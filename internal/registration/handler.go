package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mbfrancisco/skportal/pkg/middleware"
	"github.com/mbfrancisco/skportal/pkg/response"
	"github.com/mbfrancisco/skportal/pkg/validate"
)

// Handler handles HTTP requests for registration operations
type Handler struct {
	service *Service
}

// NewHandler creates a new registration handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for registration endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Register)
	r.Get("/", h.ListMine)
	r.Get("/{id}", h.GetByID)

	// Event-based listing for staff
	r.Get("/event/{eventId}", h.ListByEvent)

	// Status transitions
	r.Post("/{id}/cancel", h.CancelOwn)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)

	return r
}

// Register handles POST /registrations
// @Summary      Register for an event
// @Description  Create a pending registration for the calling resident, subject to event capacity
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration request"
// @Success      201 {object} response.APIResponse{data=RegistrationResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /registrations [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	reg, err := h.service.Register(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrEventNotOpen):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrEventFull):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to register")
		}
		return
	}

	response.JSON(w, http.StatusCreated, reg.ToResponse())
}

// ListMine handles GET /registrations
// @Summary      List my registrations
// @Tags         registrations
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]RegistrationResponse}
// @Router       /registrations [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	regs, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		response.InternalError(w, "Failed to list registrations")
		return
	}

	regResponses := make([]*RegistrationResponse, len(regs))
	for i, reg := range regs {
		regResponses[i] = reg.ToResponse()
	}

	response.JSON(w, http.StatusOK, regResponses)
}

// GetByID handles GET /registrations/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid registration ID")
		return
	}

	reg, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get registration")
		return
	}

	// Residents may only read their own registrations
	if reg.UserID != actor.UserID && !actor.IsStaff() {
		response.Forbidden(w, ErrNotOwner.Error())
		return
	}

	response.JSON(w, http.StatusOK, reg.ToResponse())
}

// ListByEvent handles GET /registrations/event/{eventId}
// @Summary      List registrations for an event
// @Description  Staff-only listing of an event's registrations, optionally filtered by status
// @Tags         registrations
// @Produce      json
// @Param        eventId path int true "Event ID"
// @Param        status query string false "Status filter"
// @Success      200 {object} response.APIResponse{data=[]RegistrationResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /registrations/event/{eventId} [get]
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

	var status *Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := Status(s)
		status = &st
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	regs, total, err := h.service.ListByEvent(r.Context(), actor, eventID, status, page, perPage)
	if err != nil {
		if errors.Is(err, ErrStaffOnly) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list registrations")
		return
	}

	regResponses := make([]*RegistrationResponse, len(regs))
	for i, reg := range regs {
		regResponses[i] = reg.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, regResponses, meta)
}

// CancelOwn handles POST /registrations/{id}/cancel
// @Summary      Withdraw my registration
// @Description  Cancel the caller's own PENDING registration
// @Tags         registrations
// @Produce      json
// @Param        id path int true "Registration ID"
// @Success      200 {object} response.APIResponse{data=RegistrationResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /registrations/{id}/cancel [post]
func (h *Handler) CancelOwn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelOwn)
}

// Approve handles POST /registrations/{id}/approve
// @Summary      Approve a registration
// @Tags         registrations
// @Produce      json
// @Param        id path int true "Registration ID"
// @Success      200 {object} response.APIResponse{data=RegistrationResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /registrations/{id}/approve [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

// Reject handles POST /registrations/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor middleware.Identity, id int64) (*Registration, error)) {
	actor, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid registration ID")
		return
	}

	reg, err := op(r.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrRegistrationNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner), errors.Is(err, ErrStaffOnly):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to update registration")
		}
		return
	}

	response.JSON(w, http.StatusOK, reg.ToResponse())
}
