package services

import (
	"log/slog"
	"testing"

	"member-hub/domain"
	apperrors "member-hub/errors"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Send_Validates_The_Command(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	service := NewMessageService(slog.Default(), f.messages, f.hub)

	conv, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)

	_, err = service.Send(t.Context(), domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "alice", RecipientID: "bob", Type: domain.MessageText,
	})
	req.ErrorIs(err, apperrors.ErrEmptyContent)

	_, err = service.Send(t.Context(), domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "alice", RecipientID: "bob", Type: domain.MessageFile,
	})
	req.ErrorIs(err, apperrors.ErrMissingAttachment)

	_, err = service.Send(t.Context(), domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "alice", RecipientID: "bob", Content: "hi", Type: "sticker",
	})
	req.ErrorIs(err, apperrors.ErrInvalidDocument)
}

func Test_Message_Subscription_Replays_The_Full_Log(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	service := NewMessageService(slog.Default(), f.messages, f.hub)

	conv, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)

	sink := newCaptureSink[domain.Message]()
	unsubscribe := service.Subscribe(t.Context(), conv.ID, sink)
	defer unsubscribe()

	req.Empty(waitBatch(t, sink))

	_, err = service.Send(t.Context(), domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "alice", RecipientID: "bob", Content: "First", Type: domain.MessageText,
	})
	req.NoError(err)
	_, err = service.Send(t.Context(), domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "bob", RecipientID: "alice", Content: "Second", Type: domain.MessageText,
	})
	req.NoError(err)

	batch := waitBatchLen(t, sink, 2)
	req.Equal([]string{"First", "Second"}, lo.Map(batch, func(m domain.Message, _ int) string { return m.Content }))
}

func Test_MarkRead_Through_The_Service_Clears_The_Counter(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	service := NewMessageService(slog.Default(), f.messages, f.hub)

	conv, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)
	for _, content := range []string{"One", "Two"} {
		_, err = service.Send(t.Context(), domain.SendMessageCommand{
			ConversationID: conv.ID, SenderID: "bob", RecipientID: "alice", Content: content, Type: domain.MessageText,
		})
		req.NoError(err)
	}

	req.NoError(service.MarkRead(t.Context(), conv.ID, "alice"))

	conv, err = f.conversations.Get(conv.ID)
	req.NoError(err)
	req.Zero(conv.UnreadFor("alice"))

	messages, err := f.messages.List(conv.ID)
	req.NoError(err)
	req.True(lo.EveryBy(messages, func(m domain.Message) bool { return m.Read }))
}
