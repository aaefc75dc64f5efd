package event

import (
	"context"
	"errors"
	"time"

	"github.com/mbfrancisco/skportal/pkg/middleware"
)

// Common errors
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrStaffOnly          = errors.New("only SK officials can manage events")
	ErrInvalidTransition  = errors.New("event status does not allow this transition")
	ErrDateInPast         = errors.New("event date cannot be in the past")
	ErrScheduleLocked     = errors.New("event schedule cannot change once residents hold active registrations")
	ErrCapacityBelowCount = errors.New("max participants cannot be lower than current active registrations")
)

// Store is the persistence surface the event service depends on
type Store interface {
	Create(ctx context.Context, e *Event) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Event, int, error)
	Update(ctx context.Context, id int64, f *UpdateFields) (*Event, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (*Event, error)
	Cancel(ctx context.Context, id int64) (*Event, int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountActiveRegistrations(ctx context.Context, eventID int64) (int, error)
}

// Service handles event business logic
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new event service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates the draft and stores it in DRAFT status
func (s *Service) Create(ctx context.Context, actor middleware.Identity, req *CreateEventRequest) (*Event, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}
	if dateBefore(date, s.now()) {
		return nil, ErrDateInPast
	}

	return s.store.Create(ctx, &Event{
		Title:           req.Title,
		Description:     req.Description,
		Date:            date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		Category:        req.Category,
		MaxParticipants: req.MaxParticipants,
		Status:          StatusDraft,
		CreatedBy:       actor.UserID,
	})
}

// GetByID retrieves an event by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Event, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// List retrieves events matching the filter. Callers without a staff role only
// see events past the DRAFT stage.
func (s *Service) List(ctx context.Context, actor middleware.Identity, filter ListFilter, page, perPage int) ([]*Event, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	if !actor.IsStaff() {
		if filter.Status != nil && *filter.Status == StatusDraft {
			return nil, 0, ErrStaffOnly
		}
		filter.ExcludeDraft = true
	}

	offset := (page - 1) * perPage
	return s.store.List(ctx, filter, perPage, offset)
}

// Update modifies an event. Schedule fields are locked once any resident holds
// an active registration, and capacity may never drop below the active count.
func (s *Service) Update(ctx context.Context, actor middleware.Identity, id int64, req *UpdateEventRequest) (*Event, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	fields := &UpdateFields{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		Category:        req.Category,
		MaxParticipants: req.MaxParticipants,
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, err
		}
		if dateBefore(date, s.now()) {
			return nil, ErrDateInPast
		}
		fields.Date = &date
	}

	touchesSchedule := fields.Date != nil || req.StartTime != nil || req.EndTime != nil
	if touchesSchedule || req.MaxParticipants != nil {
		active, err := s.store.CountActiveRegistrations(ctx, id)
		if err != nil {
			return nil, err
		}
		if touchesSchedule && active > 0 {
			return nil, ErrScheduleLocked
		}
		if req.MaxParticipants != nil && *req.MaxParticipants < active {
			return nil, ErrCapacityBelowCount
		}
	}

	updated, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrEventNotFound
	}
	return updated, nil
}

// Publish makes a draft event visible to residents
func (s *Service) Publish(ctx context.Context, actor middleware.Identity, id int64) (*Event, error) {
	return s.transition(ctx, actor, id, StatusDraft, StatusPublished)
}

// Complete closes out a published event, normally once its date has passed
func (s *Service) Complete(ctx context.Context, actor middleware.Identity, id int64) (*Event, error) {
	return s.transition(ctx, actor, id, StatusPublished, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, actor middleware.Identity, id int64, from, to Status) (*Event, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	e, err := s.store.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if e == nil {
		// Distinguish a missing event from an illegal transition.
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return e, nil
}

// Cancel terminates an event and voids all of its active registrations
func (s *Service) Cancel(ctx context.Context, actor middleware.Identity, id int64) (*Event, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	e, _, err := s.store.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return e, nil
}

// Delete removes an event that never left DRAFT
func (s *Service) Delete(ctx context.Context, actor middleware.Identity, id int64) error {
	if !actor.IsStaff() {
		return ErrStaffOnly
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}
