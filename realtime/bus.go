package realtime

import (
	"sync"
)

// Event is one delivery on a group topic.
type Event struct {
	GroupID string      `json:"groupId"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Subscription is one session's live view of a group topic. Events arrive
// on C in publish order; delivery is at-most-once with no replay, so a
// reconnecting client re-fetches state over HTTP instead of relying on
// buffered events.
type Subscription struct {
	GroupID string
	C       chan Event

	bus *Bus
}

// Close drops the subscription. Safe to call after the owning session
// disconnected ungracefully.
func (sub *Subscription) Close() {
	sub.bus.unsubscribe(sub)
}

// Bus is an in-process per-group publish/subscribe channel. A slow
// subscriber whose buffer is full loses the event rather than blocking the
// publisher. The socket.io transport replaces it in production; it backs
// tests and single-process embedding, and its contract is what an external
// backplane would implement for clustering.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

func NewBus() *Bus {
	return &Bus{topics: make(map[string]map[*Subscription]struct{})}
}

// Subscribe attaches a new session to the group's topic.
func (b *Bus) Subscribe(groupID string) *Subscription {
	sub := &Subscription{
		GroupID: groupID,
		C:       make(chan Event, 64),
		bus:     b,
	}

	b.mu.Lock()
	if b.topics[groupID] == nil {
		b.topics[groupID] = make(map[*Subscription]struct{})
	}
	b.topics[groupID][sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.topics[sub.GroupID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.topics, sub.GroupID)
		}
	}
}

// Publish fans the event out to every current subscriber of the group.
func (b *Bus) Publish(groupID, event string, payload interface{}) {
	ev := Event{GroupID: groupID, Type: event, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.topics[groupID] {
		select {
		case sub.C <- ev:
		default:
			// subscriber buffer full: drop rather than block the publisher
		}
	}
}

// SubscriberCount reports how many sessions are on the group's topic.
func (b *Bus) SubscriberCount(groupID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[groupID])
}
