package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parlor/internal/document"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestBroadcastLobbyChanged_ReachesLobbySubscribers(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicLobby)
	defer b.Unsubscribe(sub)

	b.BroadcastLobbyChanged("m-1", "expired", "turn_timeout")

	ev := receive(t, sub)
	assert.Equal(t, KindLobbyChanged, ev.Kind)
	assert.Equal(t, "m-1", ev.Payload.String("match_id"))
	assert.Equal(t, "expired", ev.Payload.String("status"))
	assert.Equal(t, "turn_timeout", ev.Payload.String("reason"))
}

func TestBroadcastMatchEvent_IsScopedToItsTopic(t *testing.T) {
	b := New()
	m1 := b.Subscribe(MatchTopic("m-1"))
	m2 := b.Subscribe(MatchTopic("m-2"))
	defer b.Unsubscribe(m1)
	defer b.Unsubscribe(m2)

	b.BroadcastMatchEvent("m-1", document.Document{"event_type": "move_submitted"})

	ev := receive(t, m1)
	assert.Equal(t, KindMatchEvent, ev.Kind)
	assert.Equal(t, "move_submitted", ev.Payload.String("event_type"))

	select {
	case leak := <-m2.C:
		t.Fatalf("m-2 subscriber received m-1 event: %+v", leak)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestLateSubscriberNeverReceivesEarlierBroadcast(t *testing.T) {
	b := New()

	b.BroadcastLobbyChanged("m-1", "active", "")
	late := b.Subscribe(TopicLobby)
	defer b.Unsubscribe(late)

	select {
	case ev := <-late.C:
		t.Fatalf("late subscriber received replayed event: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestUnsubscribe_ClosesChannelAndStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicLobby)

	b.Unsubscribe(sub)
	_, open := <-sub.C
	assert.False(t, open, "channel must be closed on unsubscribe")

	// Publishing after unsubscribe must not panic.
	b.BroadcastLobbyChanged("m-1", "active", "")

	// Repeated unsubscribe is a no-op.
	b.Unsubscribe(sub)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicLobby)
	defer b.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overrun the buffer without draining; broadcasts must not block.
		for i := 0; i < defaultBuffer*3; i++ {
			b.BroadcastLobbyChanged("m-1", "active", "")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	// The buffered prefix is still there.
	ev := receive(t, sub)
	require.Equal(t, KindLobbyChanged, ev.Kind)
}
