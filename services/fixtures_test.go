package services

import (
	"context"
	"testing"
	"time"

	"member-hub/repositories"
	"member-hub/runtime"

	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	conversations *repositories.ConversationRepository
	messages      *repositories.MessageRepository
	notifications *repositories.NotificationRepository
	profiles      *repositories.ProfileRepository
	hub           *runtime.Hub
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	_, log, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.CleanupDB(badgerDB, blugeWriter) })

	hub := runtime.NewHub()
	return serviceFixture{
		conversations: repositories.NewConversationRepository(badgerDB, log, hub),
		messages:      repositories.NewMessageRepository(badgerDB, blugeWriter, log, hub, nil, 10),
		notifications: repositories.NewNotificationRepository(badgerDB, log, hub),
		profiles:      repositories.NewProfileRepository(badgerDB),
		hub:           hub,
	}
}

// captureSink funnels deliveries into a channel the test can wait on.
type captureSink[T any] struct {
	batches chan []T
}

func newCaptureSink[T any]() *captureSink[T] {
	return &captureSink[T]{batches: make(chan []T, 16)}
}

func (c *captureSink[T]) Consume(_ context.Context, batch []T) {
	c.batches <- batch
}

func waitBatch[T any](t *testing.T, sink *captureSink[T]) []T {
	t.Helper()
	select {
	case batch := <-sink.batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a delivery")
		return nil
	}
}

// waitBatchLen skips over coalesced intermediate deliveries until a batch of
// the expected size arrives.
func waitBatchLen[T any](t *testing.T, sink *captureSink[T], n int) []T {
	t.Helper()
	for {
		batch := waitBatch(t, sink)
		if len(batch) == n {
			return batch
		}
	}
}

func expectSilence[T any](t *testing.T, sink *captureSink[T]) {
	t.Helper()
	select {
	case <-sink.batches:
		t.Fatal("received a delivery after unsubscribing")
	case <-time.After(100 * time.Millisecond):
	}
}
