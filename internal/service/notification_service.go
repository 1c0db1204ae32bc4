package service

import (
	"context"
	"strings"

	"feira/internal/models"
	"feira/internal/repository"
)

// MarkReadInput selects which notifications to mark as read. Exactly
// one selector should be set; ids win over all.
type MarkReadInput struct {
	IDs []uint `json:"ids"`
	All bool   `json:"all"`
}

// NotificationService manages a user's in-app notification feed.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notifRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo, userRepo: userRepo}
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	return s.notifRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

// MarkRead applies the selector for userID and returns how many rows
// changed. Ids belonging to other users are skipped silently.
func (s *NotificationService) MarkRead(ctx context.Context, userID uint, in MarkReadInput) (int64, error) {
	if in.All {
		return s.notifRepo.MarkAllRead(ctx, userID)
	}
	if len(in.IDs) == 0 {
		return 0, nil
	}
	return s.notifRepo.MarkRead(ctx, userID, in.IDs)
}

// NotifyByEmail writes a notification addressed by account email,
// creating the account lazily if needed. Used by admin tooling.
func (s *NotificationService) NotifyByEmail(ctx context.Context, email, message string) (*models.Notification, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, models.NewValidationError("Email is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, models.NewValidationError("Message is required")
	}

	user, err := s.userRepo.UpsertByEmail(ctx, email, email)
	if err != nil {
		return nil, err
	}

	notification := &models.Notification{UserID: user.ID, Message: message}
	if err := s.notifRepo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	return s.notifRepo.Delete(ctx, userID, id)
}
