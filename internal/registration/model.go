package registration

import "time"

// Status represents the approval state of a registration
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// IsActive reports whether the registration still holds a capacity slot
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// Registration represents a resident's request to attend an event
type Registration struct {
	ID            int64     `json:"id"`
	EventID       int64     `json:"event_id"`
	UserID        int64     `json:"user_id"`
	ContactNumber string    `json:"contact_number"`
	Notes         *string   `json:"notes,omitempty"`
	Status        Status    `json:"status"`
	RegisteredAt  time.Time `json:"registered_at"`

	// Populated from JOIN
	EventTitle string `json:"event_title,omitempty"`
}
