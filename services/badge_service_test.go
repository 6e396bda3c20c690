package services

import (
	"testing"

	"member-hub/domain"

	"github.com/stretchr/testify/require"
)

func Test_Badges_Count_Their_Own_Surfaces(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	badges := NewBadgeService(f.conversations, f.notifications)

	convBob, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)
	convCarol, err := f.conversations.GetOrCreate("alice", "carol")
	req.NoError(err)

	for _, content := range []string{"One", "Two"} {
		_, err = f.messages.Append(domain.SendMessageCommand{
			ConversationID: convBob.ID, SenderID: "bob", RecipientID: "alice", Content: content, Type: domain.MessageText,
		})
		req.NoError(err)
	}
	_, err = f.messages.Append(domain.SendMessageCommand{
		ConversationID: convCarol.ID, SenderID: "carol", RecipientID: "alice", Content: "Three", Type: domain.MessageText,
	})
	req.NoError(err)

	unreadMessages, err := badges.UnreadMessageCount(t.Context(), "alice")
	req.NoError(err)
	req.Equal(3, unreadMessages, "sums across every conversation")

	// The notification badge is a separate surface
	welcome, err := f.notifications.Push("alice", "system", "Welcome", "Your account is ready", "")
	req.NoError(err)
	_, err = f.notifications.Push("alice", "event", "Board meeting", "Tomorrow at 18:00", "/events/42")
	req.NoError(err)

	unreadNotifications, err := badges.UnreadNotificationCount(t.Context(), "alice")
	req.NoError(err)
	req.Equal(2, unreadNotifications)

	req.NoError(f.notifications.MarkRead("alice", welcome.ID))

	unreadNotifications, err = badges.UnreadNotificationCount(t.Context(), "alice")
	req.NoError(err)
	req.Equal(1, unreadNotifications)

	unreadMessages, err = badges.UnreadMessageCount(t.Context(), "alice")
	req.NoError(err)
	req.Equal(3, unreadMessages, "notification reads never touch the message badge")
}

func Test_Message_Badge_Drops_After_Reading_A_Conversation(t *testing.T) {
	req := require.New(t)
	f := newServiceFixture(t)
	badges := NewBadgeService(f.conversations, f.notifications)

	conv, err := f.conversations.GetOrCreate("alice", "bob")
	req.NoError(err)
	_, err = f.messages.Append(domain.SendMessageCommand{
		ConversationID: conv.ID, SenderID: "bob", RecipientID: "alice", Content: "Ping", Type: domain.MessageText,
	})
	req.NoError(err)

	_, err = f.messages.MarkRead(conv.ID, "alice")
	req.NoError(err)

	unread, err := badges.UnreadMessageCount(t.Context(), "alice")
	req.NoError(err)
	req.Zero(unread)
}
