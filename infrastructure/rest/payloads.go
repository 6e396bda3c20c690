package rest

import (
	"time"

	"member-hub/domain"

	"github.com/samber/lo"
)

// The wire payloads are deliberately separate from the domain types so the
// JSON contract can stay stable while the domain evolves.

type conversationPayload struct {
	ID              string         `json:"id"`
	Participants    []string       `json:"participants"`
	LastMessage     string         `json:"last_message,omitempty"`
	LastMessageTime *time.Time     `json:"last_message_time,omitempty"`
	UnreadCount     map[string]int `json:"unread_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type messagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	FileURL        string    `json:"file_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Read           bool      `json:"read"`
}

type profilePayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
}

type summaryPayload struct {
	ConversationID  string         `json:"conversation_id"`
	OtherUser       profilePayload `json:"other_user"`
	LastMessage     string         `json:"last_message,omitempty"`
	LastMessageTime *time.Time     `json:"last_message_time,omitempty"`
	Unread          int            `json:"unread"`
}

type notificationPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

func toConversationPayload(c domain.Conversation) conversationPayload {
	return conversationPayload{
		ID:              c.ID.String(),
		Participants:    c.Participants[:],
		LastMessage:     c.LastMessage,
		LastMessageTime: c.LastMessageTime,
		UnreadCount:     c.UnreadCount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toMessagePayload(m domain.Message) messagePayload {
	return messagePayload{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Content:        m.Content,
		Type:           string(m.Type),
		FileURL:        m.FileURL,
		CreatedAt:      m.CreatedAt,
		Read:           m.Read,
	}
}

func toMessagePayloads(messages []domain.Message) []messagePayload {
	return lo.Map(messages, func(m domain.Message, _ int) messagePayload {
		return toMessagePayload(m)
	})
}

func toSummaryPayloads(summaries []domain.ConversationSummary) []summaryPayload {
	return lo.Map(summaries, func(s domain.ConversationSummary, _ int) summaryPayload {
		return summaryPayload{
			ConversationID: s.ConversationID.String(),
			OtherUser: profilePayload{
				ID:          s.OtherUser.ID,
				DisplayName: s.OtherUser.DisplayName,
				Role:        s.OtherUser.Role,
			},
			LastMessage:     s.LastMessage,
			LastMessageTime: s.LastMessageTime,
			Unread:          s.Unread,
		}
	})
}

func toNotificationPayloads(notifications []domain.Notification) []notificationPayload {
	return lo.Map(notifications, func(n domain.Notification, _ int) notificationPayload {
		return notificationPayload{
			ID:        n.ID.String(),
			UserID:    n.UserID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			CreatedAt: n.CreatedAt,
			Read:      n.Read,
		}
	})
}
