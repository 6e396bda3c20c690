package services

import (
	"context"
	"log/slog"

	"member-hub/contract"
	"member-hub/domain"
	"member-hub/repositories"
	"member-hub/runtime"

	"github.com/google/uuid"
)

type INotificationService interface {
	Push(ctx context.Context, userID, notificationType, title, message, link string) (domain.Notification, error)
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Subscribe(ctx context.Context, userID string, sink contract.Sink[domain.Notification]) contract.Unsubscribe
}

// NotificationService manages each user's notification tray, a surface
// separate from the messaging badge.
type NotificationService struct {
	log           *slog.Logger
	notifications repositories.INotificationRepository
	hub           *runtime.Hub
}

func NewNotificationService(log *slog.Logger, notifications repositories.INotificationRepository, hub *runtime.Hub) *NotificationService {
	return &NotificationService{log: log, notifications: notifications, hub: hub}
}

func (s *NotificationService) Push(_ context.Context, userID, notificationType, title, message, link string) (domain.Notification, error) {
	return s.notifications.Push(userID, notificationType, title, message, link)
}

func (s *NotificationService) List(_ context.Context, userID string) ([]domain.Notification, error) {
	return s.notifications.List(userID)
}

func (s *NotificationService) UnreadCount(_ context.Context, userID string) (int, error) {
	return s.notifications.UnreadCount(userID)
}

func (s *NotificationService) MarkRead(_ context.Context, userID string, id uuid.UUID) error {
	return s.notifications.MarkRead(userID, id)
}

func (s *NotificationService) MarkAllRead(_ context.Context, userID string) (int, error) {
	return s.notifications.MarkAllRead(userID)
}

func (s *NotificationService) Delete(_ context.Context, userID string, id uuid.UUID) error {
	return s.notifications.Delete(userID, id)
}

// Subscribe registers a live listener on one user's tray, newest first.
func (s *NotificationService) Subscribe(ctx context.Context, userID string, sink contract.Sink[domain.Notification]) contract.Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	ticks, release := s.hub.Subscribe(runtime.NotificationTopic(userID))

	go func() {
		defer release()
		s.deliver(ctx, userID, sink)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				if ctx.Err() != nil {
					return
				}
				s.deliver(ctx, userID, sink)
			}
		}
	}()
	return contract.Unsubscribe(cancel)
}

func (s *NotificationService) deliver(ctx context.Context, userID string, sink contract.Sink[domain.Notification]) {
	notifications, err := s.notifications.List(userID)
	if err != nil {
		s.log.Error("Notification subscription query failed", "user", userID, "err", err)
		sink.Consume(ctx, []domain.Notification{})
		return
	}
	sink.Consume(ctx, notifications)
}
