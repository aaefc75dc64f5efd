package event

import "time"

// Status represents the publication lifecycle state of an event
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further status transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Event represents a scheduled SK activity residents can register for
type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"` // HH:MM, 24-hour
	EndTime         *string   `json:"end_time,omitempty"`
	Location        string    `json:"location"`
	Category        string    `json:"category,omitempty"`
	MaxParticipants *int      `json:"max_participants,omitempty"` // nil = unlimited
	Status          Status    `json:"status"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsOpenForRegistration reports whether residents may register right now
func (e *Event) IsOpenForRegistration(now time.Time) bool {
	return e.Status == StatusPublished && !dateBefore(e.Date, now)
}

// dateBefore compares calendar dates only, ignoring the time of day
func dateBefore(date, ref time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := ref.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}
