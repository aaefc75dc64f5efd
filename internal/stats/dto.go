package stats

// EventStats is the derived per-event rollup. It is never persisted; every
// read recomputes it from the registration and attendance stores.
type EventStats struct {
	EventID            int64   `json:"event_id"`
	Title              string  `json:"title"`
	TotalRegistrations int     `json:"total_registrations"` // APPROVED registrations
	Present            int     `json:"present"`
	Absent             int     `json:"absent"`
	Late               int     `json:"late"`
	AttendanceRate     float64 `json:"attendance_rate"` // percent, present / approved
}

// CrossEventStats is the staff-facing rollup across a set of events
type CrossEventStats struct {
	TotalRegistrations    int           `json:"total_registrations"`
	TotalAttendees        int           `json:"total_attendees"`
	AverageAttendanceRate float64       `json:"average_attendance_rate"`
	TopEvents             []*EventStats `json:"top_events"`
}
