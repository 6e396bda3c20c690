package services

import (
	"log/slog"
	"testing"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/identity"
	"member-hub/mocks"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Feed_Projects_Identity_And_Unread(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// "ghost" resolves nowhere: absent from the profile store and the
	// directory is down. The feed must still render the row.
	directory := mocks.NewMockDirectoryClient(ctrl)
	directory.EXPECT().
		Lookup(gomock.Any(), "ghost").
		Return(identity.DirectoryUser{}, apperrors.ErrDirectoryUnavailable).
		AnyTimes()

	chain := identity.NewChain(slog.Default(),
		identity.NewProfileStoreResolver(f.profiles),
		identity.NewDirectoryResolver(directory),
	)
	req.NoError(f.profiles.Put(domain.ParticipantProfile{ID: "bob", DisplayName: "Bob Martin", Role: "staff"}))

	conversations := NewConversationService(slog.Default(), f.conversations, f.hub)
	feed := NewFeedService(slog.Default(), conversations, chain)

	convBob, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)
	_, err = f.messages.Append(domain.SendMessageCommand{
		ConversationID: convBob.ID, SenderID: "bob", RecipientID: "alice", Content: "Lunch?", Type: domain.MessageText,
	})
	req.NoError(err)
	convGhost, err := f.conversations.GetOrCreate("alice", "ghost")
	req.NoError(err)

	sink := newCaptureSink[domain.ConversationSummary]()
	unsubscribe := feed.Subscribe(t.Context(), "alice", sink)
	defer unsubscribe()

	batch := waitBatchLen(t, sink, 2)
	byConversation := lo.KeyBy(batch, func(s domain.ConversationSummary) uuid.UUID { return s.ConversationID })

	bobRow := byConversation[convBob.ID]
	req.Equal("Bob Martin", bobRow.OtherUser.DisplayName)
	req.Equal("Lunch?", bobRow.LastMessage)
	req.NotNil(bobRow.LastMessageTime)
	req.Equal(1, bobRow.Unread)

	ghostRow := byConversation[convGhost.ID]
	req.True(ghostRow.OtherUser.IsSentinel())
	req.Equal(domain.UnknownDisplayName, ghostRow.OtherUser.DisplayName)
	req.Zero(ghostRow.Unread)
}

func Test_Feed_Reflects_Reads_On_The_Next_Delivery(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)

	chain := identity.NewChain(slog.Default(), identity.NewProfileStoreResolver(f.profiles))
	conversations := NewConversationService(slog.Default(), f.conversations, f.hub)
	feed := NewFeedService(slog.Default(), conversations, chain)

	conv, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)
	_, err = f.messages.Append(domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "bob", RecipientID: "alice", Content: "Ping", Type: domain.MessageText,
	})
	req.NoError(err)

	sink := newCaptureSink[domain.ConversationSummary]()
	unsubscribe := feed.Subscribe(t.Context(), "alice", sink)
	defer unsubscribe()

	batch := waitBatchLen(t, sink, 1)
	req.Equal(1, batch[0].Unread)

	_, err = f.messages.MarkRead(conv.ID, "alice")
	req.NoError(err)

	batch = waitBatchLen(t, sink, 1)
	req.Zero(batch[0].Unread)
}
