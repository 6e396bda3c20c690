// Package domain contains core concepts of the messaging subsystem.
// This file defines Conversation entities and pair identity rules.
// No storage, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// pairNamespace seeds deterministic conversation ids derived from a
// participant pair. Changing it would orphan every pair-derived conversation.
var pairNamespace = uuid.MustParse("7f6c1c4e-9a1d-4f0b-8a3e-2d5c6b7a8e90")

// Conversation is the unique record pairing two participants. It carries the
// denormalized last-message summary and one unread counter per participant.
// Only message operations may mutate the counters and the summary.
type Conversation struct {
	ID              uuid.UUID
	Participants    [2]string
	LastMessage     string
	LastMessageTime *time.Time
	UnreadCount     map[string]int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PairID returns the deterministic conversation id for an unordered pair of
// participants. Both orders of the same pair yield the same id, which makes
// conversation creation naturally idempotent.
func PairID(a, b string) uuid.UUID {
	if b < a {
		a, b = b, a
	}
	return uuid.NewSHA1(pairNamespace, []byte(a+"#"+b))
}

// NewConversation builds a fresh conversation between two participants with
// zeroed unread counters and no last message.
func NewConversation(selfID, otherID string, now time.Time) Conversation {
	return Conversation{
		ID:           PairID(selfID, otherID),
		Participants: [2]string{selfID, otherID},
		UnreadCount:  map[string]int{selfID: 0, otherID: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Has reports whether the given participant belongs to the conversation.
func (c Conversation) Has(participantID string) bool {
	return c.Participants[0] == participantID || c.Participants[1] == participantID
}

// Other returns the participant that is not selfID. Falls back to the first
// participant when selfID is not a member.
func (c Conversation) Other(selfID string) string {
	if c.Participants[0] == selfID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// UnreadFor returns the unread counter for one participant.
func (c Conversation) UnreadFor(participantID string) int {
	return c.UnreadCount[participantID]
}
