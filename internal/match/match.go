// Package match defines the match and match-event document schema and the
// typed repositories that persist them through the table store.
//
// Consumers (projection, sweeper) depend on the exact field names here and
// on the terminal-status set; the documents themselves stay backend-neutral.
package match

import (
	"github.com/roach88/parlor/internal/document"
)

// Status is a match lifecycle status. Transitions are monotone: once a
// match reaches a terminal status it is never mutated again.
type Status string

const (
	StatusPendingAccept Status = "pending_accept"
	StatusActive        Status = "active"
	StatusFinished      Status = "finished"
	StatusExpired       Status = "expired"
	StatusAborted       Status = "aborted"
)

// Terminal reports whether the status permits no further mutation.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusExpired, StatusAborted:
		return true
	default:
		return false
	}
}

// TimeoutReason classifies a deadline expiry.
type TimeoutReason string

const (
	// TimeoutAccept is used when the invite was never accepted.
	TimeoutAccept TimeoutReason = "accept_timeout"
	// TimeoutTurn is used when an accepted match ran out its turn clock.
	TimeoutTurn TimeoutReason = "turn_timeout"
)

// Player describes one occupant of a match slot.
type Player struct {
	ID   string
	Name string
}

// Match is the stored match snapshot. It owns exactly one row in the match
// table at all times after creation; the sweeper never deletes it.
type Match struct {
	ID         string
	GameType   string
	Status     Status
	Visibility string
	Players    map[string]Player // slot → player
	TurnNumber int64
	NextPlayer string
	Result     string

	// Snapshot is the authoritative game-engine state, opaque to this core.
	Snapshot document.Document

	// DeadlineAtMS of 0 means no deadline.
	DeadlineAtMS int64
	InsertedAtMS int64
	UpdatedAtMS  int64
}

// EventTypeMoveSubmitted is the only event type that mutates state during
// replay. Other types are reserved for audit and observability records.
const EventTypeMoveSubmitted = "move_submitted"

// Actor identifies who produced an event.
type Actor struct {
	Slot string
	ID   string
}

// Event is one immutable, append-only record of a match's log, keyed by
// (match_id, seq). Ordering within a match equals append order; replay
// processes events in exactly that order.
type Event struct {
	MatchID string
	Seq     int64
	Type    string
	Actor   Actor
	Payload document.Document
	AtMS    int64
}
