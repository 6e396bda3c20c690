package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/runtime"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Publisher decouples repositories from the in-process change feed. Every
// successful commit announces the topics it touched so live subscribers can
// re-query.
type Publisher interface {
	Publish(topics ...runtime.Topic)
}

// codec (de)serializes store documents and rejects malformed ones at the
// boundary instead of letting partial data leak into the domain.
type codec struct {
	validate *validator.Validate
}

func newCodec() codec {
	return codec{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (c codec) encode(doc any) ([]byte, error) {
	if err := c.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	return json.Marshal(doc)
}

func (c codec) decode(data []byte, doc any) error {
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	if err := c.validate.Struct(doc); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	return nil
}

// storedConversation is the on-disk shape of a conversation document.
type storedConversation struct {
	ID              string         `json:"id" validate:"required,uuid"`
	Participants    []string       `json:"participants" validate:"required,len=2,unique,dive,required"`
	LastMessage     string         `json:"last_message,omitempty"`
	LastMessageTime *time.Time     `json:"last_message_time,omitempty"`
	UnreadCount     map[string]int `json:"unread_count" validate:"required,dive,min=0"`
	CreatedAt       time.Time      `json:"created_at" validate:"required"`
	UpdatedAt       time.Time      `json:"updated_at" validate:"required"`
}

func fromConversation(conv domain.Conversation) storedConversation {
	return storedConversation{
		ID:              conv.ID.String(),
		Participants:    []string{conv.Participants[0], conv.Participants[1]},
		LastMessage:     conv.LastMessage,
		LastMessageTime: conv.LastMessageTime,
		UnreadCount:     conv.UnreadCount,
		CreatedAt:       conv.CreatedAt,
		UpdatedAt:       conv.UpdatedAt,
	}
}

func toConversation(sc storedConversation) (domain.Conversation, error) {
	id, err := uuid.Parse(sc.ID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	return domain.Conversation{
		ID:              id,
		Participants:    [2]string{sc.Participants[0], sc.Participants[1]},
		LastMessage:     sc.LastMessage,
		LastMessageTime: sc.LastMessageTime,
		UnreadCount:     sc.UnreadCount,
		CreatedAt:       sc.CreatedAt,
		UpdatedAt:       sc.UpdatedAt,
	}, nil
}

// storedMessage is the on-disk shape of a message document. Content may be
// empty for attachment messages, so it carries no required tag.
type storedMessage struct {
	ID             string    `json:"id" validate:"required,uuid"`
	ConversationID string    `json:"conversation_id" validate:"required,uuid"`
	SenderID       string    `json:"sender_id" validate:"required"`
	RecipientID    string    `json:"recipient_id" validate:"required"`
	Content        string    `json:"content"`
	Type           string    `json:"type" validate:"required,oneof=text file"`
	FileURL        string    `json:"file_url,omitempty"`
	CreatedAt      time.Time `json:"created_at" validate:"required"`
	Read           bool      `json:"read"`
}

func fromMessage(msg domain.Message) storedMessage {
	return storedMessage{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		Content:        msg.Content,
		Type:           string(msg.Type),
		FileURL:        msg.FileURL,
		CreatedAt:      msg.CreatedAt,
		Read:           msg.Read,
	}
}

func toMessage(sm storedMessage) (domain.Message, error) {
	id, err := uuid.Parse(sm.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	convID, err := uuid.Parse(sm.ConversationID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	return domain.Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       sm.SenderID,
		RecipientID:    sm.RecipientID,
		Content:        sm.Content,
		Type:           domain.MessageType(sm.Type),
		FileURL:        sm.FileURL,
		CreatedAt:      sm.CreatedAt,
		Read:           sm.Read,
	}, nil
}

// storedNotification is the on-disk shape of a notification document.
type storedNotification struct {
	ID        string    `json:"id" validate:"required,uuid"`
	UserID    string    `json:"user_id" validate:"required"`
	Type      string    `json:"type" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	Read      bool      `json:"read"`
}

func fromNotification(n domain.Notification) storedNotification {
	return storedNotification{
		ID:        n.ID.String(),
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
		Read:      n.Read,
	}
}

func toNotification(sn storedNotification) (domain.Notification, error) {
	id, err := uuid.Parse(sn.ID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	return domain.Notification{
		ID:        id,
		UserID:    sn.UserID,
		Type:      sn.Type,
		Title:     sn.Title,
		Message:   sn.Message,
		Link:      sn.Link,
		CreatedAt: sn.CreatedAt,
		Read:      sn.Read,
	}, nil
}

// storedProfile is the on-disk shape of a profile document in the primary
// profile store.
type storedProfile struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
	Role        string `json:"role"`
}

func fromProfile(p domain.ParticipantProfile) storedProfile {
	return storedProfile{ID: p.ID, DisplayName: p.DisplayName, Role: p.Role}
}

func toProfile(sp storedProfile) domain.ParticipantProfile {
	return domain.ParticipantProfile{ID: sp.ID, DisplayName: sp.DisplayName, Role: sp.Role}
}
