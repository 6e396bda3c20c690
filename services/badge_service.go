package services

import (
	"context"

	"member-hub/domain"
	"member-hub/repositories"

	"github.com/samber/lo"
)

type IBadgeService interface {
	UnreadMessageCount(ctx context.Context, selfID string) (int, error)
	UnreadNotificationCount(ctx context.Context, userID string) (int, error)
}

// BadgeService derives the two header counters. The messaging badge and the
// notification badge are distinct surfaces and are never summed together.
type BadgeService struct {
	conversations repositories.IConversationRepository
	notifications repositories.INotificationRepository
}

func NewBadgeService(conversations repositories.IConversationRepository, notifications repositories.INotificationRepository) *BadgeService {
	return &BadgeService{conversations: conversations, notifications: notifications}
}

// UnreadMessageCount sums the viewer's unread counter across every
// conversation they belong to.
func (s *BadgeService) UnreadMessageCount(_ context.Context, selfID string) (int, error) {
	conversations, err := s.conversations.ListForParticipant(selfID)
	if err != nil {
		return 0, err
	}
	return lo.SumBy(conversations, func(conversation domain.Conversation) int {
		return conversation.UnreadFor(selfID)
	}), nil
}

func (s *BadgeService) UnreadNotificationCount(_ context.Context, userID string) (int, error) {
	return s.notifications.UnreadCount(userID)
}
