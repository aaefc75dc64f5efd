package event

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=200"`
	Description     string  `json:"description" validate:"required"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         *string `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Location        string  `json:"location" validate:"required,min=1,max=200"`
	Category        string  `json:"category,omitempty" validate:"omitempty,max=100"`
	MaxParticipants *int    `json:"max_participants,omitempty" validate:"omitempty,min=1"`
}

// UpdateEventRequest represents the request to update an event
type UpdateEventRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,min=1"`
	Date            *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime       *string `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime         *string `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Location        *string `json:"location,omitempty" validate:"omitempty,min=1,max=200"`
	Category        *string `json:"category,omitempty" validate:"omitempty,max=100"`
	MaxParticipants *int    `json:"max_participants,omitempty" validate:"omitempty,min=1"`
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	Location        string  `json:"location"`
	Category        string  `json:"category,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
	Status          Status  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

// ToResponse converts an Event model to an EventResponse DTO
func (e *Event) ToResponse() *EventResponse {
	return &EventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Date:            e.Date.Format("2006-01-02"),
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Location:        e.Location,
		Category:        e.Category,
		MaxParticipants: e.MaxParticipants,
		Status:          e.Status,
		CreatedAt:       e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
