package engine

import (
	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/match"
)

// PublicView is the viewer-facing projection of a match: structural
// metadata identical for every viewer, plus the variant's redaction of its
// internal state for this viewer.
type PublicView struct {
	ID           string            `json:"id"`
	GameType     string            `json:"game_type"`
	Status       match.Status      `json:"status"`
	Visibility   string            `json:"visibility"`
	Players      map[string]string `json:"players"` // slot → player id
	TurnNumber   int64             `json:"turn_number"`
	NextPlayer   string            `json:"next_player,omitempty"`
	Result       string            `json:"result,omitempty"`
	DeadlineAtMS int64             `json:"deadline_at_ms"`
	InsertedAtMS int64             `json:"inserted_at_ms"`
	UpdatedAtMS  int64             `json:"updated_at_ms"`

	// GameState is the only viewer-dependent field.
	GameState document.Document `json:"game_state"`
}

// ProjectPublicView derives the view of a match for one viewer slot. The
// variant decides what the viewer may see of its state; everything else is
// copied from the match document unchanged.
func ProjectPublicView(eng Engine, m match.Match, viewer string) PublicView {
	players := make(map[string]string, len(m.Players))
	for slot, p := range m.Players {
		players[slot] = p.ID
	}

	return PublicView{
		ID:           m.ID,
		GameType:     m.GameType,
		Status:       m.Status,
		Visibility:   m.Visibility,
		Players:      players,
		TurnNumber:   m.TurnNumber,
		NextPlayer:   m.NextPlayer,
		Result:       m.Result,
		DeadlineAtMS: m.DeadlineAtMS,
		InsertedAtMS: m.InsertedAtMS,
		UpdatedAtMS:  m.UpdatedAtMS,
		GameState:    eng.PublicState(m.Snapshot, viewer),
	}
}

// NextPlayer resolves the next actionable slot from game state.
//
// Terminal states have no next player. For simultaneous-move variants the
// answer is the first seated slot that has not submitted a move this turn,
// or "" once all have. Alternating variants resolve to "" here: their
// next-player tracking lives on the match document, owned by the match
// service.
func NextPlayer(eng Engine, state document.Document) string {
	if eng.TerminalReason(state) != "" {
		return ""
	}

	sim, ok := eng.(Simultaneous)
	if !ok {
		return ""
	}

	awaiting := sim.AwaitingSlots(state)
	if len(awaiting) == 0 {
		return ""
	}
	// Deterministic pick: seating order decides among the awaiting slots.
	for _, slot := range eng.Slots() {
		for _, a := range awaiting {
			if slot == a {
				return slot
			}
		}
	}
	return awaiting[0]
}
