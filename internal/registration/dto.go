package registration

// RegisterRequest represents a resident's request to register for an event
type RegisterRequest struct {
	EventID       int64   `json:"event_id" validate:"required"`
	ContactNumber string  `json:"contact_number" validate:"required,min=7,max=20"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// RegistrationResponse represents the response for a registration
type RegistrationResponse struct {
	ID            int64   `json:"id"`
	EventID       int64   `json:"event_id"`
	UserID        int64   `json:"user_id"`
	ContactNumber string  `json:"contact_number"`
	Notes         *string `json:"notes,omitempty"`
	Status        Status  `json:"status"`
	RegisteredAt  string  `json:"registered_at"`
	EventTitle    string  `json:"event_title,omitempty"`
}

// ToResponse converts a Registration model to a RegistrationResponse DTO
func (reg *Registration) ToResponse() *RegistrationResponse {
	return &RegistrationResponse{
		ID:            reg.ID,
		EventID:       reg.EventID,
		UserID:        reg.UserID,
		ContactNumber: reg.ContactNumber,
		Notes:         reg.Notes,
		Status:        reg.Status,
		RegisteredAt:  reg.RegisteredAt.Format("2006-01-02T15:04:05Z"),
		EventTitle:    reg.EventTitle,
	}
}
