package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/parlor/internal/store"
)

// Table names owned by this package.
const (
	TableMatches = "game_matches"
	TableEvents  = "game_match_events"
)

// Matches persists match snapshots in the match table.
type Matches struct {
	store store.Store
}

// NewMatches wraps a store with the match-table codec.
func NewMatches(s store.Store) *Matches {
	return &Matches{store: s}
}

// Put upserts a match snapshot.
func (r *Matches) Put(ctx context.Context, m Match) error {
	if m.ID == "" {
		return fmt.Errorf("match: put: empty id")
	}
	if err := r.store.Put(ctx, TableMatches, m.ID, m.ToDocument()); err != nil {
		return fmt.Errorf("match: put %s: %w", m.ID, err)
	}
	return nil
}

// Get returns a match by id, or absent.
func (r *Matches) Get(ctx context.Context, id string) (Match, bool, error) {
	doc, ok, err := r.store.Get(ctx, TableMatches, id)
	if err != nil {
		return Match{}, false, fmt.Errorf("match: get %s: %w", id, err)
	}
	if !ok {
		return Match{}, false, nil
	}
	return FromDocument(doc), true, nil
}

// List returns every stored match.
func (r *Matches) List(ctx context.Context) ([]Match, error) {
	entries, err := r.store.List(ctx, TableMatches)
	if err != nil {
		return nil, fmt.Errorf("match: list: %w", err)
	}
	matches := make([]Match, 0, len(entries))
	for _, e := range entries {
		matches = append(matches, FromDocument(e.Value))
	}
	return matches, nil
}

// Events persists the append-only per-match event log.
//
// Keys embed the sequence zero-padded to 20 digits, so the store's
// ascending-key List returns events in exact append order. That ordering is
// what replay correctness rests on.
type Events struct {
	store store.Store
}

// NewEvents wraps a store with the event-table codec.
func NewEvents(s store.Store) *Events {
	return &Events{store: s}
}

func eventKey(matchID string, seq int64) string {
	return fmt.Sprintf("%s:%020d", matchID, seq)
}

// Append writes one event record. Events are immutable: this is the only
// write path, and nothing ever updates or removes a record.
func (r *Events) Append(ctx context.Context, e Event) error {
	if e.MatchID == "" {
		return fmt.Errorf("match: append event: empty match id")
	}
	key := eventKey(e.MatchID, e.Seq)
	if err := r.store.Put(ctx, TableEvents, key, e.ToDocument()); err != nil {
		return fmt.Errorf("match: append event %s: %w", key, err)
	}
	return nil
}

// ListForMatch returns a match's events in append order.
func (r *Events) ListForMatch(ctx context.Context, matchID string) ([]Event, error) {
	entries, err := r.store.List(ctx, TableEvents)
	if err != nil {
		return nil, fmt.Errorf("match: list events: %w", err)
	}

	prefix := matchID + ":"
	var events []Event
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, prefix) {
			continue
		}
		events = append(events, EventFromDocument(e.Value))
	}
	return events, nil
}
