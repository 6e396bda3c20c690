package repositories

import (
	"log/slog"
	"testing"
	"time"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newConversationRepo(t *testing.T) (*ConversationRepository, *runtime.Hub, *badger.DB) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hub := runtime.NewHub()
	return NewConversationRepository(db, slog.Default(), hub), hub, db
}

func Test_GetOrCreate_Is_Idempotent_For_Both_Orders(t *testing.T) {
	req := require.New(t)
	repo, _, _ := newConversationRepo(t)

	first, err := repo.GetOrCreate("alice", "bob")
	req.NoError(err)
	second, err := repo.GetOrCreate("bob", "alice")
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Equal(domain.PairID("alice", "bob"), first.ID)
	req.Zero(second.UnreadCount["alice"])
	req.Zero(second.UnreadCount["bob"])

	all, err := repo.ListForParticipant("alice")
	req.NoError(err)
	req.Len(all, 1)
}

func Test_GetOrCreate_Rejects_Degenerate_Pairs(t *testing.T) {
	req := require.New(t)
	repo, _, _ := newConversationRepo(t)

	_, err := repo.GetOrCreate("alice", "alice")
	req.ErrorIs(err, apperrors.ErrSelfConversation)
	_, err = repo.GetOrCreate("alice", "")
	req.ErrorIs(err, apperrors.ErrSelfConversation)
}

func Test_GetOrCreate_Finds_Legacy_Conversation(t *testing.T) {
	req := require.New(t)
	repo, _, db := newConversationRepo(t)

	// A conversation written before pair-derived ids: random id, reachable
	// only through the membership index.
	legacyID := uuid.New()
	now := time.Now().UTC()
	legacy := storedConversation{
		ID:           legacyID.String(),
		Participants: []string{"alice", "bob"},
		UnreadCount:  map[string]int{"alice": 0, "bob": 2},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c := newCodec()
	err := db.Update(func(txn *badger.Txn) error {
		if err := putStoredConversation(txn, c, legacy); err != nil {
			return err
		}
		if err := txn.Set(participantIndexKey("alice", legacyID), nil); err != nil {
			return err
		}
		return txn.Set(participantIndexKey("bob", legacyID), nil)
	})
	req.NoError(err)

	conv, err := repo.GetOrCreate("alice", "bob")
	req.NoError(err)
	req.Equal(legacyID, conv.ID, "must reuse the legacy record, not create a duplicate")
	req.Equal(2, conv.UnreadCount["bob"])
}

func Test_ListForParticipant_Orders_By_Recency(t *testing.T) {
	req := require.New(t)
	repo, _, db := newConversationRepo(t)

	older, err := repo.GetOrCreate("alice", "bob")
	req.NoError(err)
	newer, err := repo.GetOrCreate("alice", "carol")
	req.NoError(err)

	c := newCodec()
	err = db.Update(func(txn *badger.Txn) error {
		sc := fromConversation(newer)
		sc.UpdatedAt = older.UpdatedAt.Add(time.Hour)
		return putStoredConversation(txn, c, sc)
	})
	req.NoError(err)

	all, err := repo.ListForParticipant("alice")
	req.NoError(err)
	req.Len(all, 2)
	req.Equal(newer.ID, all[0].ID, "most recently active conversation comes first")
	req.Equal(older.ID, all[1].ID)
}

func Test_GetOrCreate_Notifies_Both_Participants_On_Create(t *testing.T) {
	req := require.New(t)
	repo, hub, _ := newConversationRepo(t)

	aliceCh, cancelAlice := hub.Subscribe(runtime.ParticipantTopic("alice"))
	defer cancelAlice()
	bobCh, cancelBob := hub.Subscribe(runtime.ParticipantTopic("bob"))
	defer cancelBob()

	_, err := repo.GetOrCreate("alice", "bob")
	req.NoError(err)

	select {
	case <-aliceCh:
	case <-time.After(time.Second):
		req.Fail("alice should be notified of the new conversation")
	}
	select {
	case <-bobCh:
	case <-time.After(time.Second):
		req.Fail("bob should be notified of the new conversation")
	}

	// Reuse must stay silent.
	_, err = repo.GetOrCreate("bob", "alice")
	req.NoError(err)
	select {
	case <-aliceCh:
		req.Fail("reusing an existing conversation should not notify")
	default:
	}
}
