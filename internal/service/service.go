// Package service implements the match service: the single mutation path
// for match snapshots and their event logs.
//
// All writes to one match serialize through a per-match mutex. The table
// store offers atomic per-key upserts but no compare-and-swap, so the
// "one accepted move per turn" and "expire exactly once" disciplines are
// enforced here, in the one owner that writes match rows.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/parlor/internal/bus"
	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/engine"
	"github.com/roach88/parlor/internal/match"
	"github.com/roach88/parlor/internal/store"
)

var (
	// ErrMatchNotFound reports an unknown match id.
	ErrMatchNotFound = errors.New("service: match not found")
	// ErrMatchOver reports a mutation against a terminal match.
	ErrMatchOver = errors.New("service: match already over")
	// ErrNotJoinable reports an accept against a match not pending one.
	ErrNotJoinable = errors.New("service: match is not pending accept")
	// ErrMatchNotActive reports a move against a match awaiting acceptance.
	ErrMatchNotActive = errors.New("service: match is not active")
	// ErrNotYourTurn reports a move by a slot that is not to act.
	ErrNotYourTurn = errors.New("service: not your turn")
)

// Service owns match lifecycle: creation, accepts, move submission, and
// deadline expiry. It is safe for concurrent use.
type Service struct {
	matches  *match.Matches
	events   *match.Events
	registry *engine.Registry
	bus      *bus.Bus

	now   func() int64
	newID func() string

	// turnTimeoutMS, when positive, re-arms deadline_at_ms after every
	// accepted move. Zero disables turn deadlines.
	turnTimeoutMS int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithNow injects a millisecond clock, for tests.
func WithNow(now func() int64) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs injects a match-id generator, for tests.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithTurnTimeout arms a per-turn deadline after every accepted move.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Service) { s.turnTimeoutMS = d.Milliseconds() }
}

// New creates a match service over a store, a variant registry, and a bus.
func New(st store.Store, registry *engine.Registry, b *bus.Bus, opts ...Option) *Service {
	s := &Service{
		matches:  match.NewMatches(st),
		events:   match.NewEvents(st),
		registry: registry,
		bus:      b,
		now:      func() int64 { return time.Now().UnixMilli() },
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockMatch serializes all mutation of one match id.
func (s *Service) lockMatch(id string) func() {
	s.mu.Lock()
	l := s.locks[id]
	if l == nil {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreateParams describes a new match.
type CreateParams struct {
	GameType   string
	Visibility string
	Players    map[string]match.Player // slot → player
	// PendingAccept creates the match as an open invite instead of active.
	PendingAccept bool
	// DeadlineAtMS arms the initial deadline; 0 means none.
	DeadlineAtMS int64
}

// CreateMatch initializes engine state and persists the new match row.
func (s *Service) CreateMatch(ctx context.Context, p CreateParams) (match.Match, error) {
	eng, err := s.registry.Lookup(p.GameType)
	if err != nil {
		return match.Match{}, err
	}

	state, err := eng.Init(eng.Slots())
	if err != nil {
		return match.Match{}, fmt.Errorf("service: init %s: %w", p.GameType, err)
	}

	now := s.now()
	status := match.StatusActive
	if p.PendingAccept {
		status = match.StatusPendingAccept
	}

	m := match.Match{
		ID:           s.newID(),
		GameType:     p.GameType,
		Status:       status,
		Visibility:   p.Visibility,
		Players:      p.Players,
		NextPlayer:   s.nextPlayer(eng, state),
		Snapshot:     state,
		DeadlineAtMS: p.DeadlineAtMS,
		InsertedAtMS: now,
		UpdatedAtMS:  now,
	}
	if err := s.matches.Put(ctx, m); err != nil {
		return match.Match{}, err
	}

	s.bus.BroadcastLobbyChanged(m.ID, string(m.Status), "created")
	return m, nil
}

// nextPlayer resolves next_player for a fresh or just-moved state.
// Alternating variants expose "move_count" in state and seat slots in
// Slots() order; simultaneous variants answer through AwaitingSlots.
func (s *Service) nextPlayer(eng engine.Engine, state document.Document) string {
	if _, ok := eng.(engine.Simultaneous); ok {
		return engine.NextPlayer(eng, state)
	}
	if eng.TerminalReason(state) != "" {
		return ""
	}
	slots := eng.Slots()
	return slots[int(state.Int64("move_count"))%len(slots)]
}

// AcceptMatch flips a pending invite to active.
func (s *Service) AcceptMatch(ctx context.Context, matchID string) (match.Match, error) {
	defer s.lockMatch(matchID)()

	m, ok, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !ok {
		return match.Match{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if m.Status != match.StatusPendingAccept {
		return match.Match{}, fmt.Errorf("%w: %s is %s", ErrNotJoinable, matchID, m.Status)
	}

	now := s.now()
	m.Status = match.StatusActive
	m.UpdatedAtMS = now
	if s.turnTimeoutMS > 0 {
		m.DeadlineAtMS = now + s.turnTimeoutMS
	}
	if err := s.matches.Put(ctx, m); err != nil {
		return match.Match{}, err
	}

	s.bus.BroadcastLobbyChanged(m.ID, string(m.Status), "accepted")
	return m, nil
}

// SubmitMove validates one move through the variant, appends its event,
// and updates the stored snapshot. Exactly one event is appended per
// accepted move; rejected moves append nothing.
func (s *Service) SubmitMove(ctx context.Context, matchID, slot string, move document.Document) (match.Match, error) {
	defer s.lockMatch(matchID)()

	m, ok, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !ok {
		return match.Match{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if m.Status.Terminal() {
		return match.Match{}, fmt.Errorf("%w: %s is %s", ErrMatchOver, matchID, m.Status)
	}
	if m.Status != match.StatusActive {
		return match.Match{}, fmt.Errorf("%w: %s is %s", ErrMatchNotActive, matchID, m.Status)
	}
	eng, err := s.registry.Lookup(m.GameType)
	if err != nil {
		return match.Match{}, err
	}

	// Simultaneous variants accept a move from any slot still awaiting
	// one; alternating variants only from the tracked next player.
	if sim, ok := eng.(engine.Simultaneous); ok {
		if !slices.Contains(sim.AwaitingSlots(m.Snapshot), slot) {
			return match.Match{}, fmt.Errorf("%w: %s already acted on %s", ErrNotYourTurn, slot, matchID)
		}
	} else if m.NextPlayer != "" && m.NextPlayer != slot {
		return match.Match{}, fmt.Errorf("%w: %s to act on %s", ErrNotYourTurn, m.NextPlayer, matchID)
	}

	state, err := eng.ApplyMove(m.Snapshot, slot, move)
	if err != nil {
		// Rule rejections propagate to the mover; nothing is recorded.
		return match.Match{}, err
	}

	now := s.now()
	player := m.Players[slot]
	event := match.Event{
		MatchID: m.ID,
		Seq:     m.TurnNumber + 1,
		Type:    match.EventTypeMoveSubmitted,
		Actor:   match.Actor{Slot: slot, ID: player.ID},
		Payload: document.Document{"move": move},
		AtMS:    now,
	}
	if err := s.events.Append(ctx, event); err != nil {
		return match.Match{}, err
	}

	m.Snapshot = state
	m.TurnNumber++
	m.NextPlayer = s.nextPlayer(eng, state)
	m.UpdatedAtMS = now

	if reason := eng.TerminalReason(state); reason != "" {
		m.Status = match.StatusFinished
		m.Result = resultFor(reason, state)
		m.DeadlineAtMS = 0
	} else if s.turnTimeoutMS > 0 {
		m.DeadlineAtMS = now + s.turnTimeoutMS
	}

	if err := s.matches.Put(ctx, m); err != nil {
		return match.Match{}, err
	}

	s.bus.BroadcastMatchEvent(m.ID, event.ToDocument())
	if m.Status.Terminal() {
		s.bus.BroadcastLobbyChanged(m.ID, string(m.Status), m.Result)
	}
	return m, nil
}

// resultFor composes the stored result from the terminal reason, naming
// the winning slot when the variant exposes one.
func resultFor(reason string, state document.Document) string {
	if winner := state.String("winner"); winner != "" {
		return reason + ":" + winner
	}
	return reason
}

// ExpireMatch performs deadline expiry as a single idempotent status
// transition. A match some earlier tick (or a finished game) already moved
// to a terminal status is left untouched and reports success, so
// overlapping sweep ticks can never double-expire.
func (s *Service) ExpireMatch(ctx context.Context, matchID string, reason match.TimeoutReason) error {
	defer s.lockMatch(matchID)()

	m, ok, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if m.Status.Terminal() {
		return nil
	}

	m.Status = match.StatusExpired
	m.Result = string(reason)
	m.UpdatedAtMS = s.now()
	if err := s.matches.Put(ctx, m); err != nil {
		return err
	}

	s.bus.BroadcastLobbyChanged(m.ID, string(m.Status), string(reason))
	return nil
}

// AbortMatch terminates a match by operator decision. Terminal matches
// are left untouched, like ExpireMatch.
func (s *Service) AbortMatch(ctx context.Context, matchID, reason string) error {
	defer s.lockMatch(matchID)()

	m, ok, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if m.Status.Terminal() {
		return nil
	}

	m.Status = match.StatusAborted
	m.Result = reason
	m.UpdatedAtMS = s.now()
	if err := s.matches.Put(ctx, m); err != nil {
		return err
	}

	s.bus.BroadcastLobbyChanged(m.ID, string(m.Status), reason)
	return nil
}

// GetMatch returns a match by id.
func (s *Service) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	m, ok, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !ok {
		return match.Match{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return m, nil
}

// ListMatches returns every stored match.
func (s *Service) ListMatches(ctx context.Context) ([]match.Match, error) {
	return s.matches.List(ctx)
}

// View projects a match for one viewer slot (empty for spectators).
func (s *Service) View(ctx context.Context, matchID, viewer string) (engine.PublicView, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return engine.PublicView{}, err
	}
	eng, err := s.registry.Lookup(m.GameType)
	if err != nil {
		return engine.PublicView{}, err
	}
	return engine.ProjectPublicView(eng, m, viewer), nil
}

// ReplayMatch reconstructs a match's authoritative state from its event
// log. Used for recovery and audits; the stored snapshot is not consulted.
func (s *Service) ReplayMatch(ctx context.Context, matchID string) (document.Document, string, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, "", err
	}
	eng, err := s.registry.Lookup(m.GameType)
	if err != nil {
		return nil, "", err
	}
	events, err := s.events.ListForMatch(ctx, matchID)
	if err != nil {
		return nil, "", err
	}
	return engine.Replay(eng, events)
}
