// Package runtime carries the in-process change feed of the document store.
// It propagates change notifications to live subscribers and contains no
// domain logic or storage access.
package runtime

import (
	"sync"

	"github.com/google/uuid"
)

// Topic identifies one change-feed stream.
type Topic string

// ConversationTopic is the stream of changes inside one conversation
// (appends and read-state transitions).
func ConversationTopic(conversationID uuid.UUID) Topic {
	return Topic("conv:" + conversationID.String())
}

// ParticipantTopic is the stream of changes to any conversation containing
// one participant.
func ParticipantTopic(participantID string) Topic {
	return Topic("participant:" + participantID)
}

// NotificationTopic is the stream of changes to one user's notifications.
// It is disjoint from the conversation streams.
func NotificationTopic(userID string) Topic {
	return Topic("notif:" + userID)
}

// Hub broadcasts store change notifications to in-process subscribers.
//
// It provides best-effort fan-out with no payload: a tick tells a subscriber
// that matching documents changed and a fresh query is due. Pending ticks
// coalesce, so a slow subscriber sees at most one stale tick. Hub is not a
// message broker and gives no cross-process guarantees.
//
// Hub is safe for concurrent use by multiple goroutines.
type Hub struct {
	mu     sync.RWMutex
	topics map[Topic]map[int]chan struct{}
	nextID int
}

func NewHub() *Hub {
	return &Hub{topics: make(map[Topic]map[int]chan struct{})}
}

// Subscribe registers a listener on one topic. The returned channel carries
// coalesced change ticks. The cancel func releases the listener; failing to
// call it leaks the listener for the lifetime of the process.
func (h *Hub) Subscribe(topic Topic) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan struct{}, 1)

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[int]chan struct{})
	}
	h.topics[topic][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.topics[topic]; ok {
			delete(subs, id)

			// If no one listens anymore, remove the topic entry entirely
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	return ch, cancel
}

// Publish notifies every listener of each topic. It never blocks: when a
// tick is already pending for a subscriber, the new one coalesces into it.
func (h *Hub) Publish(topics ...Topic) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, topic := range topics {
		for _, ch := range h.topics[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Listeners returns the live subscriber count for one topic.
func (h *Hub) Listeners(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
