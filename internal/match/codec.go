package match

import (
	"github.com/roach88/parlor/internal/document"
)

// ToDocument flattens a match into its stored document form. Field names
// here are a stable contract with every consumer of the match table.
func (m Match) ToDocument() document.Document {
	players := make(map[string]any, len(m.Players))
	for slot, p := range m.Players {
		players[slot] = map[string]any{"id": p.ID, "name": p.Name}
	}

	return document.Document{
		"id":             m.ID,
		"game_type":      m.GameType,
		"status":         string(m.Status),
		"visibility":     m.Visibility,
		"players":        players,
		"turn_number":    m.TurnNumber,
		"next_player":    m.NextPlayer,
		"result":         m.Result,
		"snapshot_state": m.Snapshot,
		"deadline_at_ms": m.DeadlineAtMS,
		"inserted_at_ms": m.InsertedAtMS,
		"updated_at_ms":  m.UpdatedAtMS,
	}
}

// FromDocument rebuilds a match from its stored document form.
func FromDocument(d document.Document) Match {
	players := make(map[string]Player)
	for slot := range d.Child("players") {
		p := d.Child("players").Child(slot)
		players[slot] = Player{ID: p.String("id"), Name: p.String("name")}
	}

	return Match{
		ID:           d.String("id"),
		GameType:     d.String("game_type"),
		Status:       Status(d.String("status")),
		Visibility:   d.String("visibility"),
		Players:      players,
		TurnNumber:   d.Int64("turn_number"),
		NextPlayer:   d.String("next_player"),
		Result:       d.String("result"),
		Snapshot:     d.Child("snapshot_state"),
		DeadlineAtMS: d.Int64("deadline_at_ms"),
		InsertedAtMS: d.Int64("inserted_at_ms"),
		UpdatedAtMS:  d.Int64("updated_at_ms"),
	}
}

// ToDocument flattens an event into its stored document form.
func (e Event) ToDocument() document.Document {
	return document.Document{
		"match_id":   e.MatchID,
		"seq":        e.Seq,
		"event_type": e.Type,
		"actor": map[string]any{
			"slot": e.Actor.Slot,
			"id":   e.Actor.ID,
		},
		"payload": e.Payload,
		"at_ms":   e.AtMS,
	}
}

// EventFromDocument rebuilds an event from its stored document form.
func EventFromDocument(d document.Document) Event {
	actor := d.Child("actor")
	return Event{
		MatchID: d.String("match_id"),
		Seq:     d.Int64("seq"),
		Type:    d.String("event_type"),
		Actor:   Actor{Slot: actor.String("slot"), ID: actor.String("id")},
		Payload: d.Child("payload"),
		AtMS:    d.Int64("at_ms"),
	}
}
