package services

import (
	"context"
	"log/slog"

	"member-hub/contract"
	"member-hub/domain"
	"member-hub/repositories"
	"member-hub/runtime"
)

type IConversationService interface {
	GetOrCreate(ctx context.Context, selfID, otherID string) (domain.Conversation, error)
	Subscribe(ctx context.Context, selfID string, sink contract.Sink[domain.Conversation]) contract.Unsubscribe
}

// ConversationService exposes the conversation registry: get-or-create over
// participant pairs and a live view of one participant's conversations.
type ConversationService struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
	hub           *runtime.Hub
}

func NewConversationService(log *slog.Logger, conversations repositories.IConversationRepository, hub *runtime.Hub) *ConversationService {
	return &ConversationService{log: log, conversations: conversations, hub: hub}
}

func (s *ConversationService) GetOrCreate(_ context.Context, selfID, otherID string) (domain.Conversation, error) {
	return s.conversations.GetOrCreate(selfID, otherID)
}

// Subscribe registers a live listener over all conversations containing
// selfID, most recently active first. The sink receives the initial load and
// one delivery per matching change until the returned handle is called.
func (s *ConversationService) Subscribe(ctx context.Context, selfID string, sink contract.Sink[domain.Conversation]) contract.Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	ticks, release := s.hub.Subscribe(runtime.ParticipantTopic(selfID))

	go func() {
		defer release()
		s.deliver(ctx, selfID, sink)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				// A tick can race the cancellation; never deliver after it
				if ctx.Err() != nil {
					return
				}
				s.deliver(ctx, selfID, sink)
			}
		}
	}()
	return contract.Unsubscribe(cancel)
}

// deliver queries the fresh list and hands it to the sink. A store failure
// degrades to an empty delivery so the subscriber is never left hanging;
// re-subscribing is the caller's recovery path.
func (s *ConversationService) deliver(ctx context.Context, selfID string, sink contract.Sink[domain.Conversation]) {
	conversations, err := s.conversations.ListForParticipant(selfID)
	if err != nil {
		s.log.Error("Conversation subscription query failed", "participant", selfID, "err", err)
		sink.Consume(ctx, []domain.Conversation{})
		return
	}
	sink.Consume(ctx, conversations)
}
