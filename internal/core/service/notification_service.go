package service

import (
	"context"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// NotificationService exposes a user's in-app notifications.
type NotificationService struct {
	repo ports.NotificationRepository
}

func NewNotificationService(repo ports.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, actor *domain.User) ([]*domain.Notification, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListByRecipient(ctx, actor.ID)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *domain.User, id string) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	return s.repo.MarkRead(ctx, actor.ID, id)
}
