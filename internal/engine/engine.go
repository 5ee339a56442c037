// Package engine defines the contract each game variant implements and the
// projection layer that reconstructs and redacts match state: replay of the
// event log through a variant's transition function, per-viewer public
// views, and next-player resolution.
//
// The variants' internals are not this package's concern; it only folds and
// reads their opaque state documents.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/parlor/internal/document"
)

// ErrInvalidMove reports a move the variant's current rules reject.
// Wrap it from ApplyMove so callers can distinguish rule rejections from
// infrastructure failures; replay skips events carrying it, the match
// service surfaces it to the mover.
var ErrInvalidMove = errors.New("engine: invalid move")

// Engine is the per-variant state-transition contract.
//
// State is an opaque document: the platform stores it, replays through it,
// and projects from it, but never interprets it beyond this interface.
type Engine interface {
	// Init produces the initial state for a fresh match. Slot order is the
	// variant's seating order.
	Init(slots []string) (document.Document, error)

	// ApplyMove validates and applies one move for a slot, returning the
	// next state. Rejections wrap ErrInvalidMove; state is never mutated
	// in place.
	ApplyMove(state document.Document, slot string, move document.Document) (document.Document, error)

	// TerminalReason reports why the state is terminal ("" while the match
	// is still live). Recomputed from state, never accumulated.
	TerminalReason(state document.Document) string

	// PublicState redacts the state for one viewer slot. Distinct viewers
	// may see different content (hidden information); an empty viewer
	// requests the spectator view.
	PublicState(state document.Document, viewer string) document.Document

	// Slots returns the variant's fixed slot set in seating order.
	Slots() []string
}

// Simultaneous is implemented by variants where every slot may move
// independently within one logical turn. AwaitingSlots lists the slots that
// have not yet submitted a move this turn.
//
// Alternating variants do not implement this; for them next-player tracking
// lives on the match document, owned by the match service.
type Simultaneous interface {
	Engine
	AwaitingSlots(state document.Document) []string
}

// Registry maps game_type names to their engines.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register binds a game type name to an engine. Re-registering a name
// replaces the previous binding.
func (r *Registry) Register(gameType string, eng Engine) {
	r.engines[gameType] = eng
}

// Lookup returns the engine for a game type.
func (r *Registry) Lookup(gameType string) (Engine, error) {
	eng, ok := r.engines[gameType]
	if !ok {
		return nil, fmt.Errorf("engine: unknown game type %q", gameType)
	}
	return eng, nil
}

// GameTypes returns the registered names in ascending order.
func (r *Registry) GameTypes() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
