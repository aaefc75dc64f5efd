package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/mbfrancisco/skportal/pkg/middleware"
)

// Common errors
var (
	ErrRecordNotFound         = errors.New("attendance record not found")
	ErrNoApprovedRegistration = errors.New("no approved registration for this resident and event")
	ErrAlreadyMarked          = errors.New("attendance already recorded for this resident")
	ErrStaffOnly              = errors.New("only SK officials can record attendance")
	ErrCheckOutBeforeCheckIn  = errors.New("check-out time cannot be before check-in time")
)

// Store is the persistence surface the attendance service depends on
type Store interface {
	HasApprovedRegistration(ctx context.Context, eventID, userID int64) (bool, error)
	GetByEventAndUser(ctx context.Context, eventID, userID int64) (*AttendanceRecord, error)
	Create(ctx context.Context, a *AttendanceRecord) (*AttendanceRecord, error)
	GetByID(ctx context.Context, id int64) (*AttendanceRecord, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*AttendanceRecord, error)
	SetCheckOut(ctx context.Context, id int64, t time.Time) (*AttendanceRecord, error)
	Update(ctx context.Context, id int64, status *Status, notes *string, recordedBy int64) (*AttendanceRecord, error)
}

// Service handles attendance business logic
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new attendance service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Mark records attendance for an approved registrant. Attendance can only be
// recorded once; corrections go through Update.
func (s *Service) Mark(ctx context.Context, actor middleware.Identity, req *MarkRequest) (*AttendanceRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	approved, err := s.store.HasApprovedRegistration(ctx, req.EventID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrNoApprovedRegistration
	}

	existing, err := s.store.GetByEventAndUser(ctx, req.EventID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMarked
	}

	checkIn := s.now().UTC()
	if req.CheckInTime != nil {
		checkIn = *req.CheckInTime
	}

	return s.store.Create(ctx, &AttendanceRecord{
		EventID:     req.EventID,
		UserID:      req.UserID,
		CheckInTime: checkIn,
		Status:      req.Status,
		Notes:       req.Notes,
		RecordedBy:  actor.UserID,
	})
}

// GetByID retrieves an attendance record by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*AttendanceRecord, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrRecordNotFound
	}
	return a, nil
}

// ListByEvent retrieves all attendance records for an event (staff only)
func (s *Service) ListByEvent(ctx context.Context, actor middleware.Identity, eventID int64) ([]*AttendanceRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	return s.store.ListByEvent(ctx, eventID)
}

// CheckOut closes out a check-in, defaulting to the current time
func (s *Service) CheckOut(ctx context.Context, actor middleware.Identity, id int64, at *time.Time) (*AttendanceRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t := s.now().UTC()
	if at != nil {
		t = *at
	}
	if t.Before(existing.CheckInTime) {
		return nil, ErrCheckOutBeforeCheckIn
	}

	updated, err := s.store.SetCheckOut(ctx, id, t)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecordNotFound
	}
	return updated, nil
}

// Update lets staff correct a mis-marked record; the corrector becomes the
// recorded_by identity.
func (s *Service) Update(ctx context.Context, actor middleware.Identity, id int64, req *UpdateRequest) (*AttendanceRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	updated, err := s.store.Update(ctx, id, req.Status, req.Notes, actor.UserID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecordNotFound
	}
	return updated, nil
}
