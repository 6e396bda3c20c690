package repositories

import (
	"log/slog"
	"testing"

	apperrors "member-hub/errors"
	"member-hub/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newNotificationRepo(t *testing.T) (*NotificationRepository, *runtime.Hub) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hub := runtime.NewHub()
	return NewNotificationRepository(db, slog.Default(), hub), hub
}

func Test_Push_And_List_Newest_First(t *testing.T) {
	req := require.New(t)
	repo, _ := newNotificationRepo(t)

	_, err := repo.Push("alice", "event", "Spring cleanup", "Saturday 10am", "/events/12")
	req.NoError(err)
	_, err = repo.Push("alice", "announcement", "New handbook", "Please read", "/docs/handbook")
	req.NoError(err)
	_, err = repo.Push("bob", "event", "Board meeting", "", "")
	req.NoError(err)

	notifications, err := repo.List("alice")
	req.NoError(err)
	req.Len(notifications, 2)
	req.Equal("New handbook", notifications[0].Title, "newest notification comes first")
	req.Equal("Spring cleanup", notifications[1].Title)

	count, err := repo.UnreadCount("alice")
	req.NoError(err)
	req.Equal(2, count)
}

func Test_MarkRead_One_Then_All(t *testing.T) {
	req := require.New(t)
	repo, _ := newNotificationRepo(t)

	first, err := repo.Push("alice", "event", "one", "", "")
	req.NoError(err)
	_, err = repo.Push("alice", "event", "two", "", "")
	req.NoError(err)
	_, err = repo.Push("alice", "event", "three", "", "")
	req.NoError(err)

	req.NoError(repo.MarkRead("alice", first.ID))
	count, err := repo.UnreadCount("alice")
	req.NoError(err)
	req.Equal(2, count)

	// Marking the same one again is a no-op.
	req.NoError(repo.MarkRead("alice", first.ID))

	flipped, err := repo.MarkAllRead("alice")
	req.NoError(err)
	req.Equal(2, flipped)

	count, err = repo.UnreadCount("alice")
	req.NoError(err)
	req.Zero(count)
}

func Test_MarkRead_Unknown_Notification_Fails(t *testing.T) {
	req := require.New(t)
	repo, _ := newNotificationRepo(t)

	err := repo.MarkRead("alice", uuid.New())
	req.ErrorIs(err, apperrors.ErrNotificationNotFound)
}

func Test_Delete_Removes_The_Notification(t *testing.T) {
	req := require.New(t)
	repo, _ := newNotificationRepo(t)

	n, err := repo.Push("alice", "event", "stale", "", "")
	req.NoError(err)

	req.NoError(repo.Delete("alice", n.ID))

	notifications, err := repo.List("alice")
	req.NoError(err)
	req.Empty(notifications)

	err = repo.Delete("alice", n.ID)
	req.ErrorIs(err, apperrors.ErrNotificationNotFound)
}
