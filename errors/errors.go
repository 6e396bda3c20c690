package errors

import "fmt"

var (
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrProfileNotFound      = fmt.Errorf("profile not found")
	ErrNotificationNotFound = fmt.Errorf("notification not found")
	ErrSelfConversation     = fmt.Errorf("a conversation requires two distinct participants")
	ErrNotParticipant       = fmt.Errorf("sender does not belong to the conversation")
	ErrWrongRecipient       = fmt.Errorf("recipient does not belong to the conversation")
	ErrEmptyContent         = fmt.Errorf("message content is empty")
	ErrMissingAttachment    = fmt.Errorf("attachment message has no file url")
	ErrInvalidDocument      = fmt.Errorf("stored document failed validation")
	ErrWriteConflict        = fmt.Errorf("write conflicted with a concurrent transaction")
	ErrDirectoryUnavailable = fmt.Errorf("membership directory unavailable")
)
