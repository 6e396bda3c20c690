package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationSummary is one row of a participant's live conversation feed:
// the conversation joined with the other participant's resolved profile and
// the viewer's own unread counter.
type ConversationSummary struct {
	ConversationID  uuid.UUID
	OtherUser       ParticipantProfile
	LastMessage     string
	LastMessageTime *time.Time
	Unread          int
}
