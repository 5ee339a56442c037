package games

import (
	"fmt"

	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/engine"
)

// Showdown is a simultaneous-move variant: each round, both players
// independently commit a pick (rock, paper or scissors); once both have
// committed the round resolves and scores. First to the target score wins.
//
// A player's uncommitted pick is hidden information: the projection shows
// the opponent (and spectators) only that a pick is committed, never which.
type Showdown struct {
	// Target is the winning score. Zero defaults to 3.
	Target int64
}

// GameTypeShowdown is the registry name of this variant.
const GameTypeShowdown = "showdown"

const showdownHidden = "committed"

var showdownSlots = []string{"a", "b"}

var showdownBeats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

// Slots returns the fixed two-player slot set.
func (Showdown) Slots() []string { return showdownSlots }

func (g Showdown) target() int64 {
	if g.Target > 0 {
		return g.Target
	}
	return 3
}

// Init produces round one with no picks committed.
func (g Showdown) Init(slots []string) (document.Document, error) {
	if len(slots) != 2 {
		return nil, fmt.Errorf("showdown: need exactly 2 slots, got %d", len(slots))
	}
	return document.Document{
		"target":  g.target(),
		"round":   1,
		"score":   map[string]any{"a": 0, "b": 0},
		"pending": map[string]any{"a": "", "b": ""},
		"winner":  "",
	}, nil
}

// ApplyMove commits move["pick"] for a slot. Rejects unknown picks,
// double commits within a round, and moves after the duel is decided.
// When the second pick lands the round resolves immediately.
func (g Showdown) ApplyMove(state document.Document, slot string, move document.Document) (document.Document, error) {
	if g.TerminalReason(state) != "" {
		return nil, fmt.Errorf("%w: duel already decided", engine.ErrInvalidMove)
	}
	if slot != "a" && slot != "b" {
		return nil, fmt.Errorf("%w: unknown slot %q", engine.ErrInvalidMove, slot)
	}

	pick := move.String("pick")
	if _, ok := showdownBeats[pick]; !ok {
		return nil, fmt.Errorf("%w: unknown pick %q", engine.ErrInvalidMove, pick)
	}

	pending := state.Child("pending")
	if pending.String(slot) != "" {
		return nil, fmt.Errorf("%w: %s already committed this round", engine.ErrInvalidMove, slot)
	}

	next := state.Clone()
	next.Child("pending")[slot] = pick

	a := next.Child("pending").String("a")
	b := next.Child("pending").String("b")
	if a == "" || b == "" {
		return next, nil
	}

	// Both committed: resolve the round.
	score := next.Child("score")
	switch {
	case showdownBeats[a] == b:
		score["a"] = score.Int64("a") + 1
	case showdownBeats[b] == a:
		score["b"] = score.Int64("b") + 1
	}
	next["round"] = next.Int64("round") + 1
	next["pending"] = map[string]any{"a": "", "b": ""}

	switch {
	case score.Int64("a") >= g.target():
		next["winner"] = "a"
	case score.Int64("b") >= g.target():
		next["winner"] = "b"
	}
	return next, nil
}

// TerminalReason reports "target_reached" once a player holds the target
// score.
func (Showdown) TerminalReason(state document.Document) string {
	if state.String("winner") != "" {
		return "target_reached"
	}
	return ""
}

// AwaitingSlots lists the slots that have not committed a pick this round,
// in seating order.
func (g Showdown) AwaitingSlots(state document.Document) []string {
	pending := state.Child("pending")
	var awaiting []string
	for _, slot := range showdownSlots {
		if pending.String(slot) == "" {
			awaiting = append(awaiting, slot)
		}
	}
	return awaiting
}

// PublicState redacts the opponent's committed-but-unrevealed pick. The
// viewer sees their own pending pick verbatim; any other committed pick is
// replaced with a marker. Spectators (empty viewer) see only markers.
func (Showdown) PublicState(state document.Document, viewer string) document.Document {
	out := state.Clone()
	pending := out.Child("pending")
	for _, slot := range showdownSlots {
		if slot == viewer {
			continue
		}
		if pending.String(slot) != "" {
			pending[slot] = showdownHidden
		}
	}
	return out
}
