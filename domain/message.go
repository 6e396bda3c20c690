// Package domain contains core concepts of the messaging subsystem.
// This file defines Message entities and related rules.
// Messages are immutable once stored, except for their read flag.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes plain text from attachment references.
type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

// Message represents one unit of communication inside a conversation.
// CreatedAt is assigned by the store at write time and is the sole ordering
// key. Read is monotonic: false to true, never back.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       string
	RecipientID    string
	Content        string
	Type           MessageType
	FileURL        string
	CreatedAt      time.Time
	Read           bool
}
