//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../mocks/mock_notification_repository.go -package=mocks
package repositories

import (
	"log/slog"
	"strings"
	"time"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// INotificationRepository stores announcement/event notifications. This is a
// resource fully disjoint from conversations: its read flags feed their own
// badge and never mix with the messaging counters.
type INotificationRepository interface {
	Push(userID, notifType, title, message, link string) (domain.Notification, error)
	List(userID string) ([]domain.Notification, error)
	UnreadCount(userID string) (int, error)
	MarkRead(userID string, id uuid.UUID) error
	MarkAllRead(userID string) (int, error)
	Delete(userID string, id uuid.UUID) error
}

type NotificationRepository struct {
	db     *badger.DB
	log    *slog.Logger
	codec  codec
	events Publisher
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger, events Publisher) *NotificationRepository {
	return &NotificationRepository{db: db, log: log, codec: newCodec(), events: events}
}

// Push persists a notification with a store-assigned timestamp.
func (r *NotificationRepository) Push(userID, notifType, title, message, link string) (domain.Notification, error) {
	n := domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	data, err := r.codec.encode(fromNotification(n))
	if err != nil {
		return domain.Notification{}, err
	}
	err = update(r.db, func(txn *badger.Txn) error {
		return txn.Set(notificationKey(userID, n.CreatedAt, n.ID), data)
	})
	if err != nil {
		return domain.Notification{}, err
	}
	r.events.Publish(runtime.NotificationTopic(userID))
	return n, nil
}

// List returns the user's notifications, newest first.
func (r *NotificationRepository) List(userID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := notificationPrefix(userID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past every possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var sn storedNotification
			err := it.Item().Value(func(val []byte) error {
				return r.codec.decode(val, &sn)
			})
			if err != nil {
				return err
			}
			n, err := toNotification(sn)
			if err != nil {
				return err
			}
			notifications = append(notifications, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) UnreadCount(userID string) (int, error) {
	notifications, err := r.List(userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flips one notification to read. Marking an already-read
// notification is a no-op.
func (r *NotificationRepository) MarkRead(userID string, id uuid.UUID) error {
	err := r.mutate(userID, id, func(txn *badger.Txn, key []byte, sn storedNotification) error {
		if sn.Read {
			return nil
		}
		sn.Read = true
		data, err := r.codec.encode(sn)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}
	r.events.Publish(runtime.NotificationTopic(userID))
	return nil
}

// MarkAllRead flips every unread notification of the user in one
// transaction and returns how many were flipped.
func (r *NotificationRepository) MarkAllRead(userID string) (int, error) {
	flipped := 0
	err := update(r.db, func(txn *badger.Txn) error {
		flipped = 0

		prefix := notificationPrefix(userID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)

		type pending struct {
			key  []byte
			data []byte
		}
		var updates []pending
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var sn storedNotification
			err := item.Value(func(val []byte) error {
				return r.codec.decode(val, &sn)
			})
			if err != nil {
				it.Close()
				return err
			}
			if sn.Read {
				continue
			}
			sn.Read = true
			data, err := r.codec.encode(sn)
			if err != nil {
				it.Close()
				return err
			}
			updates = append(updates, pending{key: item.KeyCopy(nil), data: data})
		}
		it.Close()

		for _, u := range updates {
			if err := txn.Set(u.key, u.data); err != nil {
				return err
			}
		}
		flipped = len(updates)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if flipped > 0 {
		r.events.Publish(runtime.NotificationTopic(userID))
	}
	return flipped, nil
}

func (r *NotificationRepository) Delete(userID string, id uuid.UUID) error {
	err := r.mutate(userID, id, func(txn *badger.Txn, key []byte, _ storedNotification) error {
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	r.events.Publish(runtime.NotificationTopic(userID))
	return nil
}

// mutate locates one notification by id within the user's prefix and applies
// fn to it. The id sits at the key tail, so lookup is a suffix match over
// the scan.
func (r *NotificationRepository) mutate(userID string, id uuid.UUID, fn func(txn *badger.Txn, key []byte, sn storedNotification) error) error {
	suffix := ":" + id.String()
	return update(r.db, func(txn *badger.Txn) error {
		prefix := notificationPrefix(userID)
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)

		var key []byte
		var sn storedNotification
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), suffix) {
				continue
			}
			err := item.Value(func(val []byte) error {
				return r.codec.decode(val, &sn)
			})
			if err != nil {
				it.Close()
				return err
			}
			key = item.KeyCopy(nil)
			break
		}
		it.Close()

		if key == nil {
			return apperrors.ErrNotificationNotFound
		}
		return fn(txn, key, sn)
	})
}
