package domain

import (
	"github.com/google/uuid"
)

// SendMessageCommand is a user intent to append one message to an existing
// conversation. The store assigns the timestamp, not the caller.
type SendMessageCommand struct {
	ConversationID uuid.UUID
	SenderID       string
	RecipientID    string
	Content        string
	Type           MessageType
	FileURL        string
}
