package repositories

import (
	"errors"
	"fmt"
	"time"

	apperrors "member-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Key layout:
//
//	conv:{conversation_id}                      conversation document
//	idx:conv:{participant_id}:{conversation_id} membership index entry
//	msg:{conversation_id}:{timestamp}:{uuid}    message document
//	notif:{user_id}:{timestamp}:{uuid}          notification document
//	profile:{participant_id}                    profile document
//
// Timestamps use 19-digit zero-padded UnixNano so a plain lexicographic
// prefix scan yields chronological order. The trailing uuid disconnects
// collisions when two writes land on the same nanosecond.

func conversationKey(id uuid.UUID) []byte {
	return []byte("conv:" + id.String())
}

func participantIndexKey(participantID string, conversationID uuid.UUID) []byte {
	return []byte("idx:conv:" + participantID + ":" + conversationID.String())
}

func participantIndexPrefix(participantID string) []byte {
	return []byte("idx:conv:" + participantID + ":")
}

func messageKey(conversationID uuid.UUID, at time.Time, id uuid.UUID) []byte {
	return fmt.Appendf(nil, "msg:%s:%019d:%s", conversationID, at.UnixNano(), id)
}

func messagePrefix(conversationID uuid.UUID) []byte {
	return []byte("msg:" + conversationID.String() + ":")
}

func notificationKey(userID string, at time.Time, id uuid.UUID) []byte {
	return fmt.Appendf(nil, "notif:%s:%019d:%s", userID, at.UnixNano(), id)
}

func notificationPrefix(userID string) []byte {
	return []byte("notif:" + userID + ":")
}

func profileKey(participantID string) []byte {
	return []byte("profile:" + participantID)
}

const maxTxnRetries = 3

// update runs fn in a read-write transaction, retrying on badger's
// serializable-conflict error. A markRead racing with a send is re-applied
// on a fresh snapshot instead of being dropped, which keeps the unread
// counters faithful. A conflict that survives every retry surfaces as
// ErrWriteConflict so callers can tell a retryable collision from a store
// fault.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", apperrors.ErrWriteConflict, err)
}
