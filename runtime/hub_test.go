package runtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Subscribe_Receives_Published_Tick(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	topic := ParticipantTopic("alice")

	ch, cancel := hub.Subscribe(topic)
	defer cancel()

	hub.Publish(topic)

	select {
	case <-ch:
	case <-time.After(time.Second):
		req.Fail("expected a change tick")
	}
}

func Test_Publish_Coalesces_Pending_Ticks(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	topic := ConversationTopic(uuid.New())

	ch, cancel := hub.Subscribe(topic)
	defer cancel()

	hub.Publish(topic)
	hub.Publish(topic)
	hub.Publish(topic)

	<-ch
	select {
	case <-ch:
		req.Fail("ticks should coalesce into a single pending one")
	default:
	}
}

func Test_Publish_Reaches_Only_Matching_Topic(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	aliceCh, cancelAlice := hub.Subscribe(ParticipantTopic("alice"))
	defer cancelAlice()
	bobCh, cancelBob := hub.Subscribe(ParticipantTopic("bob"))
	defer cancelBob()

	hub.Publish(ParticipantTopic("alice"))

	select {
	case <-aliceCh:
	case <-time.After(time.Second):
		req.Fail("alice should have been notified")
	}
	select {
	case <-bobCh:
		req.Fail("bob should not have been notified")
	default:
	}
}

func Test_Cancel_Releases_The_Listener(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	topic := NotificationTopic("alice")

	ch, cancel := hub.Subscribe(topic)
	req.Equal(1, hub.Listeners(topic))

	cancel()
	req.Zero(hub.Listeners(topic))

	hub.Publish(topic)
	select {
	case <-ch:
		req.Fail("cancelled listener should not receive ticks")
	default:
	}
}
