package attendance

import "time"

// MarkRequest represents the request to record attendance for a registrant
type MarkRequest struct {
	EventID     int64      `json:"event_id" validate:"required"`
	UserID      int64      `json:"user_id" validate:"required"`
	Status      Status     `json:"status" validate:"required,oneof=PRESENT ABSENT LATE"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateRequest represents a staff correction of an existing record
type UpdateRequest struct {
	Status *Status `json:"status,omitempty" validate:"omitempty,oneof=PRESENT ABSENT LATE"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CheckOutRequest represents the request to close out a check-in
type CheckOutRequest struct {
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
}

// AttendanceResponse represents the response for an attendance record
type AttendanceResponse struct {
	ID           int64   `json:"id"`
	EventID      int64   `json:"event_id"`
	UserID       int64   `json:"user_id"`
	CheckInTime  string  `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time,omitempty"`
	Status       Status  `json:"status"`
	Notes        *string `json:"notes,omitempty"`
	RecordedBy   int64   `json:"recorded_by"`
}

// ToResponse converts an AttendanceRecord model to an AttendanceResponse DTO
func (a *AttendanceRecord) ToResponse() *AttendanceResponse {
	resp := &AttendanceResponse{
		ID:          a.ID,
		EventID:     a.EventID,
		UserID:      a.UserID,
		CheckInTime: a.CheckInTime.Format("2006-01-02T15:04:05Z"),
		Status:      a.Status,
		Notes:       a.Notes,
		RecordedBy:  a.RecordedBy,
	}
	if a.CheckOutTime != nil {
		s := a.CheckOutTime.Format("2006-01-02T15:04:05Z")
		resp.CheckOutTime = &s
	}
	return resp
}
