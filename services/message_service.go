package services

import (
	"context"
	"log/slog"

	"member-hub/contract"
	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/repositories"
	"member-hub/runtime"

	"github.com/google/uuid"
)

type IMessageService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	MarkRead(ctx context.Context, conversationID uuid.UUID, readerID string) error
	Subscribe(ctx context.Context, conversationID uuid.UUID, sink contract.Sink[domain.Message]) contract.Unsubscribe
	History(ctx context.Context, conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, conversationID uuid.UUID, terms string, limit int) ([]domain.Message, error)
}

// MessageService owns every mutation of a conversation's message log and
// read state. No other component writes unread counters or last-message
// summaries, which keeps read receipts and incoming sends from racing each
// other outside the store's transactions.
type MessageService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	hub      *runtime.Hub
}

func NewMessageService(log *slog.Logger, messages repositories.IMessageRepository, hub *runtime.Hub) *MessageService {
	return &MessageService{log: log, messages: messages, hub: hub}
}

// Send validates the intent and appends it. The message either lands fully
// (append, summary, counter) or the caller gets the error back within this
// call; there is no retry and no pending state.
func (s *MessageService) Send(_ context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	switch cmd.Type {
	case domain.MessageText:
		if cmd.Content == "" {
			return domain.Message{}, apperrors.ErrEmptyContent
		}
	case domain.MessageFile:
		if cmd.FileURL == "" {
			return domain.Message{}, apperrors.ErrMissingAttachment
		}
	default:
		return domain.Message{}, apperrors.ErrInvalidDocument
	}
	return s.messages.Append(cmd)
}

// MarkRead zeroes the reader's unread counter and flips their pending
// messages in one batch. Safe to call when there is nothing to mark.
func (s *MessageService) MarkRead(_ context.Context, conversationID uuid.UUID, readerID string) error {
	_, err := s.messages.MarkRead(conversationID, readerID)
	return err
}

// Subscribe registers a live listener on one conversation's log. The sink
// receives the full ascending message list on load and after every append;
// a delivered message never disappears from subsequent batches.
func (s *MessageService) Subscribe(ctx context.Context, conversationID uuid.UUID, sink contract.Sink[domain.Message]) contract.Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	ticks, release := s.hub.Subscribe(runtime.ConversationTopic(conversationID))

	go func() {
		defer release()
		s.deliver(ctx, conversationID, sink)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				if ctx.Err() != nil {
					return
				}
				s.deliver(ctx, conversationID, sink)
			}
		}
	}()
	return contract.Unsubscribe(cancel)
}

func (s *MessageService) History(_ context.Context, conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error) {
	return s.messages.Page(conversationID, cursor)
}

func (s *MessageService) Search(ctx context.Context, conversationID uuid.UUID, terms string, limit int) ([]domain.Message, error) {
	return s.messages.Search(ctx, conversationID, terms, limit)
}

func (s *MessageService) deliver(ctx context.Context, conversationID uuid.UUID, sink contract.Sink[domain.Message]) {
	messages, err := s.messages.List(conversationID)
	if err != nil {
		s.log.Error("Message subscription query failed", "conversation", conversationID.String(), "err", err)
		sink.Consume(ctx, []domain.Message{})
		return
	}
	sink.Consume(ctx, messages)
}
