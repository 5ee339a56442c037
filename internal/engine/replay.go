package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/match"
)

// Replay reconstructs authoritative state by folding a match's events, in
// strict append order, through the variant's transition function.
//
// Moves the variant rejects under its CURRENT rules are skipped: state does
// not change and no error is raised, only a debug diagnostic. Replay output
// therefore converges on the current rule set rather than re-enacting the
// rules in force at append time; events do not carry a rule-set version, so
// bit-exact historical replay is out of reach and deliberately so.
//
// Event types other than move_submitted are state no-ops (audit records).
//
// The terminal reason is recomputed from the state after every applied
// event, never summed across events.
func Replay(eng Engine, events []match.Event) (document.Document, string, error) {
	state, err := eng.Init(eng.Slots())
	if err != nil {
		return nil, "", fmt.Errorf("engine: replay init: %w", err)
	}

	terminal := ""
	for _, ev := range events {
		if ev.Type != match.EventTypeMoveSubmitted {
			continue
		}

		move := ev.Payload.Child("move")
		next, err := eng.ApplyMove(state, ev.Actor.Slot, move)
		if err != nil {
			// Current-rules convergence: the historical event may predate a
			// tightened rule. Skip, keep folding.
			slog.Debug("replay skipped rejected move",
				"match_id", ev.MatchID,
				"seq", ev.Seq,
				"slot", ev.Actor.Slot,
				"error", err)
			continue
		}
		state = next
		terminal = eng.TerminalReason(state)
	}

	return state, terminal, nil
}
