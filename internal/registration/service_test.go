package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mbfrancisco/skportal/pkg/middleware"
)

// memStore mirrors the repository's transactional contract in memory: every
// Create runs under one lock, exactly like the row-locked transaction does
// against Postgres.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*memEvent
	regs   map[int64]*Registration
}

type memEvent struct {
	status     string
	datePassed bool
	max        *int
}

func newMemStore() *memStore {
	return &memStore{
		events: make(map[int64]*memEvent),
		regs:   make(map[int64]*Registration),
	}
}

func (m *memStore) addEvent(id int64, status string, datePassed bool, max *int) {
	m.events[id] = &memEvent{status: status, datePassed: datePassed, max: max}
}

func (m *memStore) Create(ctx context.Context, eventID, userID int64, contact string, notes *string) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	if ev.status != "PUBLISHED" || ev.datePassed {
		return nil, ErrEventNotOpen
	}

	active := 0
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.Status.IsActive() {
			if reg.UserID == userID {
				return nil, ErrAlreadyRegistered
			}
			active++
		}
	}
	if ev.max != nil && active >= *ev.max {
		return nil, ErrEventFull
	}

	m.nextID++
	reg := &Registration{
		ID:            m.nextID,
		EventID:       eventID,
		UserID:        userID,
		ContactNumber: contact,
		Notes:         notes,
		Status:        StatusPending,
		RegisteredAt:  time.Now(),
	}
	m.regs[reg.ID] = reg
	return reg, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[id]
	if !ok {
		return nil, nil
	}
	copied := *reg
	return &copied, nil
}

func (m *memStore) ListByEvent(ctx context.Context, eventID int64, status *Status, limit, offset int) ([]*Registration, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var regs []*Registration
	for _, reg := range m.regs {
		if reg.EventID != eventID {
			continue
		}
		if status != nil && reg.Status != *status {
			continue
		}
		copied := *reg
		regs = append(regs, &copied)
	}
	return regs, len(regs), nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int64) ([]*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var regs []*Registration
	for _, reg := range m.regs {
		if reg.UserID == userID {
			copied := *reg
			regs = append(regs, &copied)
		}
	}
	return regs, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[id]
	if !ok || reg.Status != from {
		return nil, nil
	}
	reg.Status = to
	copied := *reg
	return &copied, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	approved []int64
	rejected []int64
	done     chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{done: make(chan struct{}, 8)}
}

func (f *fakeNotifier) RegistrationApproved(ctx context.Context, recipientID, eventID, registrationID int64) error {
	f.mu.Lock()
	f.approved = append(f.approved, recipientID)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeNotifier) RegistrationRejected(ctx context.Context, recipientID, eventID, registrationID int64) error {
	f.mu.Lock()
	f.rejected = append(f.rejected, recipientID)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
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

func intPtr(i int) *int { return &i }

func TestRegister_OK(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, intPtr(10))
	svc := NewService(store, nil)

	reg, err := svc.Register(context.Background(), resident(7), &RegisterRequest{
		EventID:       1,
		ContactNumber: "09171234567",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", reg.Status)
	}
	if reg.UserID != 7 {
		t.Fatalf("expected user 7, got %d", reg.UserID)
	}
}

func TestRegister_EventNotFound(t *testing.T) {
	svc := NewService(newMemStore(), nil)

	_, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 99, ContactNumber: "09171234567"})
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestRegister_CancelledEvent(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "CANCELLED", false, nil)
	svc := NewService(store, nil)

	_, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
	if !errors.Is(err, ErrEventNotOpen) {
		t.Fatalf("expected ErrEventNotOpen, got %v", err)
	}
}

func TestRegister_PastEvent(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", true, nil)
	svc := NewService(store, nil)

	_, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
	if !errors.Is(err, ErrEventNotOpen) {
		t.Fatalf("expected ErrEventNotOpen, got %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	svc := NewService(store, nil)

	if _, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	_, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegister_AgainAfterRejection(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	notifier := newFakeNotifier()
	svc := NewService(store, notifier)

	reg, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := svc.Reject(context.Background(), staff(1), reg.ID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	notifier.wait(t)

	// A rejected registration no longer holds a slot.
	if _, err := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"}); err != nil {
		t.Fatalf("re-registration after rejection failed: %v", err)
	}
}

func TestRegister_CapacityUnderConcurrency(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, intPtr(1))
	svc := NewService(store, nil)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for userID := int64(1); userID <= 2; userID++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), resident(uid), &RegisterRequest{
				EventID:       1,
				ContactNumber: "09171234567",
			})
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var successes, full int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || full != 1 {
		t.Fatalf("expected exactly one success and one ErrEventFull, got %d successes, %d full", successes, full)
	}
}

func TestRegister_CapacityBoundHolds(t *testing.T) {
	const capacity = 5
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, intPtr(capacity))
	svc := NewService(store, nil)

	var wg sync.WaitGroup
	for userID := int64(1); userID <= 20; userID++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			svc.Register(context.Background(), resident(uid), &RegisterRequest{
				EventID:       1,
				ContactNumber: "09171234567",
			})
		}(userID)
	}
	wg.Wait()

	active := 0
	for _, reg := range store.regs {
		if reg.Status.IsActive() {
			active++
		}
	}
	if active != capacity {
		t.Fatalf("expected %d active registrations, got %d", capacity, active)
	}
}

func TestCancelOwn_OK(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	svc := NewService(store, nil)

	reg, _ := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})

	cancelled, err := svc.CancelOwn(context.Background(), resident(7), reg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
}

func TestCancelOwn_NotOwner(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	svc := NewService(store, nil)

	reg, _ := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})

	_, err := svc.CancelOwn(context.Background(), resident(8), reg.ID)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestCancelOwn_AfterApproval(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	notifier := newFakeNotifier()
	svc := NewService(store, notifier)

	reg, _ := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
	if _, err := svc.Approve(context.Background(), staff(1), reg.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	notifier.wait(t)

	_, err := svc.CancelOwn(context.Background(), resident(7), reg.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApprove_RequiresStaff(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	svc := NewService(store, nil)

	reg, _ := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})

	_, err := svc.Approve(context.Background(), resident(7), reg.ID)
	if !errors.Is(err, ErrStaffOnly) {
		t.Fatalf("expected ErrStaffOnly, got %v", err)
	}
}

func TestApprove_NotFound(t *testing.T) {
	svc := NewService(newMemStore(), nil)

	_, err := svc.Approve(context.Background(), staff(1), 99)
	if !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("expected ErrRegistrationNotFound, got %v", err)
	}
}

func TestTerminalStatusesAreClosed(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	notifier := newFakeNotifier()
	svc := NewService(store, notifier)

	terminalSetups := []struct {
		name  string
		setup func(t *testing.T) int64
	}{
		{"approved", func(t *testing.T) int64 {
			reg, _ := svc.Register(context.Background(), resident(10), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
			if _, err := svc.Approve(context.Background(), staff(1), reg.ID); err != nil {
				t.Fatalf("approve failed: %v", err)
			}
			notifier.wait(t)
			return reg.ID
		}},
		{"rejected", func(t *testing.T) int64 {
			reg, _ := svc.Register(context.Background(), resident(11), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
			if _, err := svc.Reject(context.Background(), staff(1), reg.ID); err != nil {
				t.Fatalf("reject failed: %v", err)
			}
			notifier.wait(t)
			return reg.ID
		}},
		{"cancelled", func(t *testing.T) int64 {
			reg, _ := svc.Register(context.Background(), resident(12), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
			if _, err := svc.CancelOwn(context.Background(), resident(12), reg.ID); err != nil {
				t.Fatalf("cancel failed: %v", err)
			}
			return reg.ID
		}},
	}

	for _, tc := range terminalSetups {
		t.Run(tc.name, func(t *testing.T) {
			id := tc.setup(t)

			if _, err := svc.Approve(context.Background(), staff(1), id); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("approve on %s: expected ErrInvalidTransition, got %v", tc.name, err)
			}
			if _, err := svc.Reject(context.Background(), staff(1), id); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("reject on %s: expected ErrInvalidTransition, got %v", tc.name, err)
			}
		})
	}
}

func TestApprove_NotifiesResident(t *testing.T) {
	store := newMemStore()
	store.addEvent(1, "PUBLISHED", false, nil)
	notifier := newFakeNotifier()
	svc := NewService(store, notifier)

	reg, _ := svc.Register(context.Background(), resident(7), &RegisterRequest{EventID: 1, ContactNumber: "09171234567"})
	if _, err := svc.Approve(context.Background(), staff(1), reg.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	notifier.wait(t)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.approved) != 1 || notifier.approved[0] != 7 {
		t.Fatalf("expected approval notice for user 7, got %v", notifier.approved)
	}
}
