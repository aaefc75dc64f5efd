package notification

import "time"

// Notification represents an in-app notice delivered to a resident
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"` // e.g., "REGISTRATION", "EVENT"
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeRegistrationApproved NotificationType = "REGISTRATION_APPROVED"
	NotificationTypeRegistrationRejected NotificationType = "REGISTRATION_REJECTED"
	NotificationTypeEventCancelled       NotificationType = "EVENT_CANCELLED"
)
