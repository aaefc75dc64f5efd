package notification

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic
type Service struct {
	repo *Repository
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new notification
func (s *Service) Create(ctx context.Context, recipientID int64, message string, entityType *string, entityID *int64) (*Notification, error) {
	return s.repo.Create(ctx, recipientID, message, entityType, entityID)
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// ListByRecipientID retrieves all notifications for a resident
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a resident
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// Helper methods for the registration approval flow. These satisfy the
// registration package's Notifier interface.

// RegistrationApproved records an approval notice for the resident
func (s *Service) RegistrationApproved(ctx context.Context, recipientID, eventID, registrationID int64) error {
	title, err := s.repo.EventTitle(ctx, eventID)
	if err != nil {
		return err
	}
	message := "Your registration for " + orEvent(title) + " has been approved"
	entityType := "REGISTRATION"
	_, err = s.repo.Create(ctx, recipientID, message, &entityType, &registrationID)
	return err
}

// RegistrationRejected records a rejection notice for the resident
func (s *Service) RegistrationRejected(ctx context.Context, recipientID, eventID, registrationID int64) error {
	title, err := s.repo.EventTitle(ctx, eventID)
	if err != nil {
		return err
	}
	message := "Your registration for " + orEvent(title) + " was not approved"
	entityType := "REGISTRATION"
	_, err = s.repo.Create(ctx, recipientID, message, &entityType, &registrationID)
	return err
}

// orEvent falls back to a generic label when the event title is gone
func orEvent(title string) string {
	if title == "" {
		return "an event"
	}
	return title
}
