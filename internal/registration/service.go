package registration

import (
	"context"
	"errors"
	"log"

	"github.com/mbfrancisco/skportal/pkg/middleware"
)

// Common errors
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventNotOpen         = errors.New("event is not open for registration")
	ErrEventFull            = errors.New("event is full")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotOwner             = errors.New("registration belongs to another resident")
	ErrInvalidTransition    = errors.New("registration status does not allow this transition")
	ErrStaffOnly            = errors.New("only SK officials can review registrations")
)

// Store is the persistence surface the registration service depends on
type Store interface {
	Create(ctx context.Context, eventID, userID int64, contact string, notes *string) (*Registration, error)
	GetByID(ctx context.Context, id int64) (*Registration, error)
	ListByEvent(ctx context.Context, eventID int64, status *Status, limit, offset int) ([]*Registration, int, error)
	ListByUser(ctx context.Context, userID int64) ([]*Registration, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (*Registration, error)
}

// Notifier delivers registration outcome notices to residents. Delivery is
// fire-and-forget; the approval flow never waits on it.
type Notifier interface {
	RegistrationApproved(ctx context.Context, recipientID, eventID, registrationID int64) error
	RegistrationRejected(ctx context.Context, recipientID, eventID, registrationID int64) error
}

// Service handles registration business logic
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a new registration service
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Register creates a PENDING registration for the calling resident. The
// uniqueness and capacity invariants are enforced atomically by the store.
func (s *Service) Register(ctx context.Context, actor middleware.Identity, req *RegisterRequest) (*Registration, error) {
	return s.store.Create(ctx, req.EventID, actor.UserID, req.ContactNumber, req.Notes)
}

// GetByID retrieves a registration by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Registration, error) {
	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrRegistrationNotFound
	}
	return reg, nil
}

// ListByEvent retrieves registrations for an event (staff only)
func (s *Service) ListByEvent(ctx context.Context, actor middleware.Identity, eventID int64, status *Status, page, perPage int) ([]*Registration, int, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrStaffOnly
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.store.ListByEvent(ctx, eventID, status, perPage, offset)
}

// ListMine retrieves the calling resident's own registrations
func (s *Service) ListMine(ctx context.Context, actor middleware.Identity) ([]*Registration, error) {
	return s.store.ListByUser(ctx, actor.UserID)
}

// CancelOwn lets a resident withdraw their own registration while it is still
// PENDING. Approved registrations can only be released by staff.
func (s *Service) CancelOwn(ctx context.Context, actor middleware.Identity, id int64) (*Registration, error) {
	reg, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	if reg.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.store.UpdateStatus(ctx, id, StatusPending, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// A staff decision landed between our read and the update.
		return nil, ErrInvalidTransition
	}
	return updated, nil
}

// Approve moves a PENDING registration to APPROVED
func (s *Service) Approve(ctx context.Context, actor middleware.Identity, id int64) (*Registration, error) {
	return s.review(ctx, actor, id, StatusApproved)
}

// Reject moves a PENDING registration to REJECTED. The resident may register
// again afterwards since a rejected registration no longer holds a slot.
func (s *Service) Reject(ctx context.Context, actor middleware.Identity, id int64) (*Registration, error) {
	return s.review(ctx, actor, id, StatusRejected)
}

func (s *Service) review(ctx context.Context, actor middleware.Identity, id int64, outcome Status) (*Registration, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	reg, err := s.store.UpdateStatus(ctx, id, StatusPending, outcome)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	s.notifyOutcome(reg, outcome)
	return reg, nil
}

// notifyOutcome emits the status notice without blocking the request
func (s *Service) notifyOutcome(reg *Registration, outcome Status) {
	if s.notifier == nil {
		return
	}

	go func() {
		var err error
		ctx := context.Background()
		switch outcome {
		case StatusApproved:
			err = s.notifier.RegistrationApproved(ctx, reg.UserID, reg.EventID, reg.ID)
		case StatusRejected:
			err = s.notifier.RegistrationRejected(ctx, reg.UserID, reg.EventID, reg.ID)
		}
		if err != nil {
			log.Printf("Failed to notify user %d about registration %d: %v", reg.UserID, reg.ID, err)
		}
	}()
}
