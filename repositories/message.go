//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/runtime"

	"github.com/blugelabs/bluge"
	blugeindex "github.com/blugelabs/bluge/index"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(cmd domain.SendMessageCommand) (domain.Message, error)
	List(conversationID uuid.UUID) ([]domain.Message, error)
	Page(conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error)
	MarkRead(conversationID uuid.UUID, readerID string) (int, error)
	Search(ctx context.Context, conversationID uuid.UUID, terms string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	search        *bluge.Writer
	log           *slog.Logger
	codec         codec
	events        Publisher
	limitMessages *int

	batchMu   sync.Mutex
	batch     *blugeindex.Batch
	pending   int
	batchSize int
}

func NewMessageRepository(db *badger.DB, search *bluge.Writer, log *slog.Logger, events Publisher, limitMessages *int, batchSize int) *MessageRepository {
	return &MessageRepository{
		db:            db,
		search:        search,
		log:           log,
		codec:         newCodec(),
		events:        events,
		limitMessages: limitMessages,
		batch:         bluge.NewBatch(),
		batchSize:     batchSize,
	}
}

// Append persists a message and updates the parent conversation in one
// transaction: last-message summary, recency timestamp, and the recipient's
// unread counter move together or not at all. CreatedAt is assigned here, at
// write time, so ordering does not depend on client clocks.
func (m *MessageRepository) Append(cmd domain.SendMessageCommand) (domain.Message, error) {
	now := time.Now().UTC()
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		SenderID:       cmd.SenderID,
		RecipientID:    cmd.RecipientID,
		Content:        cmd.Content,
		Type:           cmd.Type,
		FileURL:        cmd.FileURL,
		CreatedAt:      now,
	}
	key := messageKey(msg.ConversationID, msg.CreatedAt, msg.ID)

	var participants [2]string
	err := update(m.db, func(txn *badger.Txn) error {
		sc, err := getStoredConversation(txn, m.codec, cmd.ConversationID)
		if err != nil {
			return err
		}
		conv, err := toConversation(sc)
		if err != nil {
			return err
		}
		if !conv.Has(cmd.SenderID) {
			return apperrors.ErrNotParticipant
		}
		if cmd.RecipientID != conv.Other(cmd.SenderID) {
			return apperrors.ErrWrongRecipient
		}
		participants = conv.Participants

		data, err := m.codec.encode(fromMessage(msg))
		if err != nil {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		sc.LastMessage = cmd.Content
		sc.LastMessageTime = &now
		sc.UpdatedAt = now
		sc.UnreadCount[cmd.RecipientID]++
		return putStoredConversation(txn, m.codec, sc)
	})
	if err != nil {
		return domain.Message{}, err
	}

	m.index(string(key), msg)
	m.events.Publish(
		runtime.ConversationTopic(cmd.ConversationID),
		runtime.ParticipantTopic(participants[0]),
		runtime.ParticipantTopic(participants[1]),
	)
	return msg, nil
}

// List returns every message of the conversation in ascending CreatedAt
// order. The padded timestamp in the key makes the forward prefix scan come
// back already sorted.
func (m *MessageRepository) List(conversationID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			msg, err := m.decodeItem(it.Item())
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Page retrieves the most recent messages before the cursor using a reverse
// prefix scan, newest first. It stops once the configured limitMessages is
// reached and hands back the cursor of the last visited key; a nil cursor
// means the scan reached the oldest message.
func (m *MessageRepository) Page(conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string
	var next *string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past every possible timestamp, then walk backwards.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		default:
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				// The iterator is still on an unvisited message, so an
				// older page exists.
				next = &lastKey
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			msg, err := m.decodeItem(item)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, next, nil
}

// MarkRead flips every unread message addressed to the reader and zeroes the
// reader's unread counter, all in one transaction. Calling it with nothing
// to mark is a no-op, not an error. A send racing against the scan conflicts
// at commit time and one side is retried, so no increment is ever lost
// between the scan and the counter reset.
func (m *MessageRepository) MarkRead(conversationID uuid.UUID, readerID string) (int, error) {
	flipped := 0
	err := update(m.db, func(txn *badger.Txn) error {
		flipped = 0

		sc, err := getStoredConversation(txn, m.codec, conversationID)
		if err != nil {
			return err
		}
		if _, ok := sc.UnreadCount[readerID]; !ok {
			return apperrors.ErrNotParticipant
		}

		prefix := messagePrefix(conversationID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		type pending struct {
			key  []byte
			data []byte
		}
		var updates []pending
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var sm storedMessage
			err := item.Value(func(val []byte) error {
				return m.codec.decode(val, &sm)
			})
			if err != nil {
				return err
			}
			if sm.RecipientID != readerID || sm.Read {
				continue
			}
			sm.Read = true
			data, err := m.codec.encode(sm)
			if err != nil {
				return err
			}
			updates = append(updates, pending{key: item.KeyCopy(nil), data: data})
		}
		// Writes are applied after the scan so the iterator never observes
		// its own updates.
		it.Close()
		for _, u := range updates {
			if err := txn.Set(u.key, u.data); err != nil {
				return err
			}
		}
		flipped = len(updates)

		sc.UnreadCount[readerID] = 0
		return putStoredConversation(txn, m.codec, sc)
	})
	if err != nil {
		return 0, err
	}

	m.events.Publish(
		runtime.ConversationTopic(conversationID),
		runtime.ParticipantTopic(readerID),
	)
	return flipped, nil
}

// index feeds the full-text search index after a successful commit. Search
// is derived data: the badger commit is the source of truth, so an index
// failure is logged and absorbed rather than failing the send. Documents are
// buffered into a batch and executed every batchSize writes.
func (m *MessageRepository) index(key string, msg domain.Message) {
	if m.search == nil {
		return
	}
	doc := bluge.NewDocument(key)
	doc.AddField(bluge.NewTextField("content", msg.Content))
	doc.AddField(bluge.NewKeywordField("conversation", msg.ConversationID.String()))
	doc.AddField(bluge.NewDateTimeField("created_at", msg.CreatedAt))

	m.batchMu.Lock()
	defer m.batchMu.Unlock()
	m.batch.Update(doc.ID(), doc)
	m.pending++
	if m.pending < m.batchSize {
		return
	}
	if err := m.flushLocked(); err != nil {
		m.log.Warn("Search index batch failed", "err", err)
	}
}

func (m *MessageRepository) flushLocked() error {
	if m.pending == 0 {
		return nil
	}
	if err := m.search.Batch(m.batch); err != nil {
		return err
	}
	m.batch.Reset()
	m.pending = 0
	return nil
}

// Flush executes any buffered index batch so fresh writes become
// searchable.
func (m *MessageRepository) Flush() error {
	if m.search == nil {
		return nil
	}
	m.batchMu.Lock()
	defer m.batchMu.Unlock()
	return m.flushLocked()
}

// Search runs a full-text query over one conversation's messages and
// hydrates the hits from badger, ascending by CreatedAt.
func (m *MessageRepository) Search(ctx context.Context, conversationID uuid.UUID, terms string, limit int) ([]domain.Message, error) {
	if m.search == nil {
		return nil, nil
	}
	if err := m.Flush(); err != nil {
		return nil, err
	}
	reader, err := m.search.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(conversationID.String()).SetField("conversation"))

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var keys []string
	match, err := it.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = it.Next()
	}
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	err = m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				// Stale index entry; badger remains authoritative.
				continue
			}
			if err != nil {
				return err
			}
			msg, err := m.decodeItem(item)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (m *MessageRepository) decodeItem(item *badger.Item) (domain.Message, error) {
	var sm storedMessage
	err := item.Value(func(val []byte) error {
		return m.codec.decode(val, &sm)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(sm)
}
