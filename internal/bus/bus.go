// Package bus provides topic-based publish/subscribe for lobby and
// per-match announcements.
//
// Delivery is fire-and-forget: no acknowledgment, no buffering beyond each
// subscriber's channel, and no replay. A subscriber joining after a
// broadcast never receives it, and one too slow to drain its channel
// loses events; backpressure is the subscriber's own problem.
package bus

import (
	"log/slog"
	"sync"

	"github.com/roach88/parlor/internal/document"
)

// Topic names.
const (
	// TopicLobby is the single global lobby topic.
	TopicLobby = "games:lobby"

	matchTopicPrefix = "games:match:"
)

// MatchTopic returns the per-match topic for a match id.
func MatchTopic(matchID string) string {
	return matchTopicPrefix + matchID
}

// Event kinds.
const (
	KindLobbyChanged = "lobby_changed"
	KindMatchEvent   = "match_event"
)

// Event is one published notification.
type Event struct {
	Kind    string
	Payload document.Document
}

// Subscription is one registered interest in a topic. Receive events from
// C; call the bus's Unsubscribe to deregister. C is closed on unsubscribe.
type Subscription struct {
	C     <-chan Event
	topic string
	ch    chan Event
}

// defaultBuffer is the per-subscriber channel depth. Events beyond it are
// dropped for that subscriber, preserving fire-and-forget semantics.
const defaultBuffer = 16

// Bus fans events out to the current subscribers of a topic.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers interest in a topic.
func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan Event, defaultBuffer)}
	sub.C = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[topic]
	if subs == nil {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe deregisters a subscription and closes its channel.
// Safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[sub.topic]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
	close(sub.ch)
}

// publish delivers to the topic's current subscriber set. The read lock is
// held across the non-blocking sends so an unsubscribe cannot close a
// channel mid-delivery; sends never block, so the hold is brief.
func (b *Bus) publish(topic string, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
			slog.Debug("bus dropped event for slow subscriber", "topic", topic, "kind", ev.Kind)
		}
	}
}

// BroadcastLobbyChanged announces a lobby-visible match transition to the
// global lobby topic.
func (b *Bus) BroadcastLobbyChanged(matchID, status, reason string) {
	b.publish(TopicLobby, Event{
		Kind: KindLobbyChanged,
		Payload: document.Document{
			"match_id": matchID,
			"status":   status,
			"reason":   reason,
		},
	})
}

// BroadcastMatchEvent publishes an arbitrary payload to a match's topic.
func (b *Bus) BroadcastMatchEvent(matchID string, payload document.Document) {
	b.publish(MatchTopic(matchID), Event{
		Kind:    KindMatchEvent,
		Payload: payload,
	})
}
