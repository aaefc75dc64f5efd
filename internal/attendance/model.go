package attendance

import "time"

// Status represents how an approved registrant showed up
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
)

// Valid reports whether the status is one of the known attendance outcomes
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

// AttendanceRecord is the staff-recorded proof of presence for an approved
// registrant. One record per (event, resident).
type AttendanceRecord struct {
	ID           int64      `json:"id"`
	EventID      int64      `json:"event_id"`
	UserID       int64      `json:"user_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Status       Status     `json:"status"`
	Notes        *string    `json:"notes,omitempty"`
	RecordedBy   int64      `json:"recorded_by"`
	CreatedAt    time.Time  `json:"created_at"`
}
