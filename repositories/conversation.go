//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	GetOrCreate(selfID, otherID string) (domain.Conversation, error)
	Get(id uuid.UUID) (domain.Conversation, error)
	ListForParticipant(participantID string) ([]domain.Conversation, error)
}

type ConversationRepository struct {
	db     *badger.DB
	log    *slog.Logger
	codec  codec
	events Publisher
}

func NewConversationRepository(db *badger.DB, log *slog.Logger, events Publisher) *ConversationRepository {
	return &ConversationRepository{db: db, log: log, codec: newCodec(), events: events}
}

// GetOrCreate returns the unique conversation for an unordered participant
// pair, creating it when absent. Lookup, legacy scan, and creation run in a
// single transaction, so two near-simultaneous calls from both participants
// converge on one record instead of racing a look-before-create check.
//
// New conversations get the deterministic pair-derived id. Conversations
// written before that scheme keep their random ids and are still found
// through the membership index scan.
func (r *ConversationRepository) GetOrCreate(selfID, otherID string) (domain.Conversation, error) {
	if selfID == otherID || selfID == "" || otherID == "" {
		return domain.Conversation{}, apperrors.ErrSelfConversation
	}

	var conv domain.Conversation
	created := false
	err := update(r.db, func(txn *badger.Txn) error {
		created = false

		// Fast path: pair-derived id.
		pairID := domain.PairID(selfID, otherID)
		sc, err := r.getStored(txn, pairID)
		switch {
		case err == nil:
			conv, err = toConversation(sc)
			return err
		case !errors.Is(err, apperrors.ErrConversationNotFound):
			return err
		}

		// Legacy path: scan the participant's conversations for the pair.
		existing, err := r.scanParticipant(txn, selfID)
		if err != nil {
			return err
		}
		for _, candidate := range existing {
			if candidate.Has(otherID) {
				conv = candidate
				return nil
			}
		}

		conv = domain.NewConversation(selfID, otherID, time.Now().UTC())
		if err := r.putStored(txn, fromConversation(conv)); err != nil {
			return err
		}
		if err := txn.Set(participantIndexKey(selfID, conv.ID), nil); err != nil {
			return err
		}
		if err := txn.Set(participantIndexKey(otherID, conv.ID), nil); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	if created {
		r.events.Publish(
			runtime.ParticipantTopic(selfID),
			runtime.ParticipantTopic(otherID),
		)
	}
	return conv, nil
}

func (r *ConversationRepository) Get(id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		sc, err := r.getStored(txn, id)
		if err != nil {
			return err
		}
		conv, err = toConversation(sc)
		return err
	})
	return conv, err
}

// ListForParticipant returns every conversation containing the participant,
// most recently active first.
func (r *ConversationRepository) ListForParticipant(participantID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		conversations, err = r.scanParticipant(txn, participantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// scanParticipant walks the membership index and loads each referenced
// conversation document. Dangling index entries are logged and skipped so
// one corrupt record cannot take the whole list down.
func (r *ConversationRepository) scanParticipant(txn *badger.Txn, participantID string) ([]domain.Conversation, error) {
	prefix := participantIndexPrefix(participantID)
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var conversations []domain.Conversation
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		rawID := string(it.Item().Key()[len(prefix):])
		id, err := uuid.Parse(rawID)
		if err != nil {
			r.log.Warn("Skipping malformed membership index entry", "key", string(it.Item().Key()))
			continue
		}
		sc, err := r.getStored(txn, id)
		if err != nil {
			r.log.Warn("Skipping dangling membership index entry", "conversation", rawID, "err", err)
			continue
		}
		conv, err := toConversation(sc)
		if err != nil {
			r.log.Warn("Skipping malformed conversation document", "conversation", rawID, "err", err)
			continue
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

func (r *ConversationRepository) getStored(txn *badger.Txn, id uuid.UUID) (storedConversation, error) {
	return getStoredConversation(txn, r.codec, id)
}

func (r *ConversationRepository) putStored(txn *badger.Txn, sc storedConversation) error {
	return putStoredConversation(txn, r.codec, sc)
}

// getStoredConversation and putStoredConversation are shared with the
// message repository, whose send/markRead transactions mutate the parent
// conversation document in the same commit.
func getStoredConversation(txn *badger.Txn, c codec, id uuid.UUID) (storedConversation, error) {
	item, err := txn.Get(conversationKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return storedConversation{}, apperrors.ErrConversationNotFound
	}
	if err != nil {
		return storedConversation{}, err
	}
	var sc storedConversation
	err = item.Value(func(val []byte) error {
		return c.decode(val, &sc)
	})
	return sc, err
}

func putStoredConversation(txn *badger.Txn, c codec, sc storedConversation) error {
	data, err := c.encode(sc)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(sc.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidDocument, err)
	}
	return txn.Set(conversationKey(id), data)
}
