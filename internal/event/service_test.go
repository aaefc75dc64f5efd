package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mbfrancisco/skportal/pkg/middleware"
)

type memStore struct {
	mu         sync.Mutex
	nextID     int64
	events     map[int64]*Event
	activeRegs map[int64]int
}

func newMemStore() *memStore {
	return &memStore{
		events:     make(map[int64]*Event),
		activeRegs: make(map[int64]int),
	}
}

func (m *memStore) Create(ctx context.Context, e *Event) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	copied := *e
	copied.ID = m.nextID
	copied.CreatedAt = time.Now()
	m.events[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (m *memStore) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*Event
	for _, e := range m.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.ExcludeDraft && e.Status == StatusDraft {
			continue
		}
		copied := *e
		events = append(events, &copied)
	}
	return events, len(events), nil
}

func (m *memStore) Update(ctx context.Context, id int64, f *UpdateFields) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	if f.Title != nil {
		e.Title = *f.Title
	}
	if f.Date != nil {
		e.Date = *f.Date
	}
	if f.StartTime != nil {
		e.StartTime = *f.StartTime
	}
	if f.MaxParticipants != nil {
		e.MaxParticipants = f.MaxParticipants
	}
	copied := *e
	return &copied, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != from {
		return nil, nil
	}
	e.Status = to
	copied := *e
	return &copied, nil
}

func (m *memStore) Cancel(ctx context.Context, id int64) (*Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status.IsTerminal() {
		return nil, 0, nil
	}
	e.Status = StatusCancelled
	voided := int64(m.activeRegs[id])
	m.activeRegs[id] = 0
	copied := *e
	return &copied, voided, nil
}

func (m *memStore) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.Status != StatusDraft {
		return false, nil
	}
	delete(m.events, id)
	return true, nil
}

func (m *memStore) CountActiveRegistrations(ctx context.Context, eventID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeRegs[eventID], nil
}

func resident(id int64) middleware.Identity {
	return middleware.Identity{UserID: id, Roles: map[middleware.Role]bool{middleware.RoleResident: true}}
}

func staff(id int64) middleware.Identity {
	return middleware.Identity{UserID: id, Roles: map[middleware.Role]bool{
		middleware.RoleResident: true,
		middleware.RoleStaff:    true,
	}}
}

func intPtr(i int) *int          { return &i }
func strPtr(s string) *string    { return &s }
func statusPtr(s Status) *Status { return &s }

func newTestService(store Store, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func validCreate() *CreateEventRequest {
	return &CreateEventRequest{
		Title:       "Coastal Cleanup Drive",
		Description: "Quarterly cleanup along the riverbank",
		Date:        "2026-04-18",
		StartTime:   "07:30",
		Location:    "Barangay Hall",
		Category:    "environment",
	}
}

func TestCreate_StartsAsDraft(t *testing.T) {
	svc := newTestService(newMemStore(), testNow)

	e, err := svc.Create(context.Background(), staff(1), validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Status != StatusDraft {
		t.Fatalf("expected DRAFT, got %s", e.Status)
	}
	if e.CreatedBy != 1 {
		t.Fatalf("expected creator 1, got %d", e.CreatedBy)
	}
}

func TestCreate_RequiresStaff(t *testing.T) {
	svc := newTestService(newMemStore(), testNow)

	_, err := svc.Create(context.Background(), resident(7), validCreate())
	if !errors.Is(err, ErrStaffOnly) {
		t.Fatalf("expected ErrStaffOnly, got %v", err)
	}
}

func TestCreate_RejectsPastDate(t *testing.T) {
	svc := newTestService(newMemStore(), testNow)

	req := validCreate()
	req.Date = "2026-03-09"
	_, err := svc.Create(context.Background(), staff(1), req)
	if !errors.Is(err, ErrDateInPast) {
		t.Fatalf("expected ErrDateInPast, got %v", err)
	}
}

func TestCreate_AcceptsToday(t *testing.T) {
	svc := newTestService(newMemStore(), testNow)

	req := validCreate()
	req.Date = "2026-03-10"
	if _, err := svc.Create(context.Background(), staff(1), req); err != nil {
		t.Fatalf("same-day event should be allowed: %v", err)
	}
}

func TestPublish_OK(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	published, err := svc.Publish(context.Background(), staff(1), e.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published.Status != StatusPublished {
		t.Fatalf("expected PUBLISHED, got %s", published.Status)
	}
}

func TestPublish_OnlyFromDraft(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	if _, err := svc.Publish(context.Background(), staff(1), e.ID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	_, err := svc.Publish(context.Background(), staff(1), e.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPublish_NotFound(t *testing.T) {
	svc := newTestService(newMemStore(), testNow)

	_, err := svc.Publish(context.Background(), staff(1), 99)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestComplete_OnlyFromPublished(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())

	if _, err := svc.Complete(context.Background(), staff(1), e.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete on DRAFT: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Publish(context.Background(), staff(1), e.ID); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	done, err := svc.Complete(context.Background(), staff(1), e.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", done.Status)
	}
}

func TestCancel_VoidsActiveRegistrations(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), e.ID)
	store.activeRegs[e.ID] = 3

	cancelled, err := svc.Cancel(context.Background(), staff(1), e.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if store.activeRegs[e.ID] != 0 {
		t.Fatalf("expected active registrations voided, %d remain", store.activeRegs[e.ID])
	}
}

func TestCancel_TerminalIsClosed(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), e.ID)
	svc.Complete(context.Background(), staff(1), e.ID)

	if _, err := svc.Cancel(context.Background(), staff(1), e.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel on COMPLETED: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Publish(context.Background(), staff(1), e.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("publish on COMPLETED: expected ErrInvalidTransition, got %v", err)
	}
}

func TestDelete_OnlyDraft(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	draft, _ := svc.Create(context.Background(), staff(1), validCreate())
	if err := svc.Delete(context.Background(), staff(1), draft.ID); err != nil {
		t.Fatalf("delete draft failed: %v", err)
	}

	published, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), published.ID)
	if err := svc.Delete(context.Background(), staff(1), published.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delete published: expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdate_ScheduleLockedWithActiveRegistrations(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), e.ID)
	store.activeRegs[e.ID] = 2

	_, err := svc.Update(context.Background(), staff(1), e.ID, &UpdateEventRequest{Date: strPtr("2026-05-01")})
	if !errors.Is(err, ErrScheduleLocked) {
		t.Fatalf("expected ErrScheduleLocked, got %v", err)
	}

	_, err = svc.Update(context.Background(), staff(1), e.ID, &UpdateEventRequest{StartTime: strPtr("08:00")})
	if !errors.Is(err, ErrScheduleLocked) {
		t.Fatalf("expected ErrScheduleLocked for start time, got %v", err)
	}

	// Non-schedule fields remain editable.
	updated, err := svc.Update(context.Background(), staff(1), e.ID, &UpdateEventRequest{Title: strPtr("River Cleanup Drive")})
	if err != nil {
		t.Fatalf("title update failed: %v", err)
	}
	if updated.Title != "River Cleanup Drive" {
		t.Fatalf("title not updated, got %q", updated.Title)
	}
}

func TestUpdate_CapacityCannotDropBelowActive(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), e.ID)
	store.activeRegs[e.ID] = 4

	_, err := svc.Update(context.Background(), staff(1), e.ID, &UpdateEventRequest{MaxParticipants: intPtr(3)})
	if !errors.Is(err, ErrCapacityBelowCount) {
		t.Fatalf("expected ErrCapacityBelowCount, got %v", err)
	}

	if _, err := svc.Update(context.Background(), staff(1), e.ID, &UpdateEventRequest{MaxParticipants: intPtr(4)}); err != nil {
		t.Fatalf("raising capacity to the active count should be allowed: %v", err)
	}
}

func TestUpdate_TerminalEventRejected(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	e, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), e.ID)
	svc.Cancel(context.Background(), staff(1), e.ID)

	_, err := svc.Update(context.Background(), staff(1), e.ID, &UpdateEventRequest{Title: strPtr("x")})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestList_ResidentsNeverSeeDrafts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	draft, _ := svc.Create(context.Background(), staff(1), validCreate())
	_ = draft
	published, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), published.ID)

	events, total, err := svc.List(context.Background(), resident(7), ListFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(events) != 1 {
		t.Fatalf("expected 1 visible event, got %d (total %d)", len(events), total)
	}
	if events[0].Status == StatusDraft {
		t.Fatal("resident listing leaked a DRAFT event")
	}

	_, _, err = svc.List(context.Background(), resident(7), ListFilter{Status: statusPtr(StatusDraft)}, 1, 20)
	if !errors.Is(err, ErrStaffOnly) {
		t.Fatalf("expected ErrStaffOnly for draft filter, got %v", err)
	}
}

func TestList_StaffSeeDrafts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testNow)

	svc.Create(context.Background(), staff(1), validCreate())
	published, _ := svc.Create(context.Background(), staff(1), validCreate())
	svc.Publish(context.Background(), staff(1), published.ID)

	_, total, err := svc.List(context.Background(), staff(1), ListFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 events for staff, got %d", total)
	}
}

func TestIsOpenForRegistration(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		date   time.Time
		want   bool
	}{
		{"published future", StatusPublished, testNow.AddDate(0, 0, 5), true},
		{"published today", StatusPublished, testNow, true},
		{"published past", StatusPublished, testNow.AddDate(0, 0, -1), false},
		{"draft", StatusDraft, testNow.AddDate(0, 0, 5), false},
		{"cancelled", StatusCancelled, testNow.AddDate(0, 0, 5), false},
		{"completed", StatusCompleted, testNow.AddDate(0, 0, 5), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := &Event{Status: tc.status, Date: tc.date}
			if got := e.IsOpenForRegistration(testNow); got != tc.want {
				t.Errorf("IsOpenForRegistration() = %v, want %v", got, tc.want)
			}
		})
	}
}
