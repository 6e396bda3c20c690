package services

import (
	"context"
	"log/slog"

	"member-hub/contract"
	"member-hub/domain"
	"member-hub/identity"

	"github.com/samber/lo"
)

type IFeedService interface {
	Subscribe(ctx context.Context, selfID string, sink contract.Sink[domain.ConversationSummary]) contract.Unsubscribe
}

// FeedService projects raw conversations into the inbox rows the admin
// console renders: counterpart identity, last message preview and the
// viewer's unread count.
type FeedService struct {
	log           *slog.Logger
	conversations IConversationService
	resolver      *identity.Chain
}

func NewFeedService(log *slog.Logger, conversations IConversationService, resolver *identity.Chain) *FeedService {
	return &FeedService{log: log, conversations: conversations, resolver: resolver}
}

// Subscribe mirrors the conversation subscription, projecting every delivery
// before it reaches the sink. Deliveries keep the underlying ordering, most
// recently active first.
func (s *FeedService) Subscribe(ctx context.Context, selfID string, sink contract.Sink[domain.ConversationSummary]) contract.Unsubscribe {
	return s.conversations.Subscribe(ctx, selfID, contract.SinkFunc[domain.Conversation](func(ctx context.Context, conversations []domain.Conversation) {
		sink.Consume(ctx, s.project(ctx, selfID, conversations))
	}))
}

// project resolves the other participant of each conversation fresh on every
// delivery, so a renamed member shows up on the next refresh. Resolution
// never fails the feed; an unresolvable counterpart renders as the sentinel.
func (s *FeedService) project(ctx context.Context, selfID string, conversations []domain.Conversation) []domain.ConversationSummary {
	return lo.Map(conversations, func(conversation domain.Conversation, _ int) domain.ConversationSummary {
		return domain.ConversationSummary{
			ConversationID:  conversation.ID,
			OtherUser:       s.resolver.Resolve(ctx, conversation.Other(selfID)),
			LastMessage:     conversation.LastMessage,
			LastMessageTime: conversation.LastMessageTime,
			Unread:          conversation.UnreadFor(selfID),
		}
	})
}
