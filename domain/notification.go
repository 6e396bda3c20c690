package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an announcement/event notice addressed to one user. It is
// a separate resource from conversations: its read flags feed their own
// badge and are never merged with the messaging badge.
type Notification struct {
	ID        uuid.UUID
	UserID    string
	Type      string
	Title     string
	Message   string
	Link      string
	CreatedAt time.Time
	Read      bool
}
