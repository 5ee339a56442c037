// Package harness runs YAML conformance scenarios against the full match
// stack: service, store, sweeper, and replay. Scenarios express match
// flows declaratively, so lifecycle properties read as specifications
// rather than test plumbing.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/parlor/internal/bus"
	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/games"
	"github.com/roach88/parlor/internal/match"
	"github.com/roach88/parlor/internal/service"
	"github.com/roach88/parlor/internal/store"
	"github.com/roach88/parlor/internal/sweeper"
	"github.com/roach88/parlor/internal/testutil"
)

// Result reports a scenario run. A scenario passes when Failures is empty;
// assertion failures accumulate rather than aborting, so one run reports
// everything that is wrong.
type Result struct {
	Scenario string
	Failures []string
}

// Passed reports whether the scenario held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

func (r *Result) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Runner executes scenarios on a fresh in-memory stack per run.
type Runner struct {
	// Store overrides the backend (defaults to a fresh memory store), so
	// scenarios can also exercise durable backends.
	Store store.Store
}

// Run executes one scenario. An error is a harness problem (bad step,
// broken store); scenario verdicts go into the Result.
func (h *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	st := h.Store
	if st == nil {
		st = store.NewMemory()
	}
	clock := testutil.NewClock(0)

	opts := []service.Option{service.WithNow(clock.Now)}
	if s.TurnTimeoutMS > 0 {
		opts = append(opts, service.WithTurnTimeout(time.Duration(s.TurnTimeoutMS)*time.Millisecond))
	}
	svc := service.New(st, games.DefaultRegistry(), bus.New(), opts...)
	sw := sweeper.New(match.NewMatches(st), svc,
		sweeper.WithNow(clock.Now),
		sweeper.WithLogger(slog.New(slog.DiscardHandler)))

	players := make(map[string]match.Player, len(s.Players))
	for slot, id := range s.Players {
		players[slot] = match.Player{ID: id, Name: id}
	}
	m, err := svc.CreateMatch(ctx, service.CreateParams{
		GameType:      s.GameType,
		Visibility:    "public",
		Players:       players,
		PendingAccept: s.Pending,
		DeadlineAtMS:  s.DeadlineMS,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: create match: %w", s.Name, err)
	}

	result := &Result{Scenario: s.Name}
	for i, step := range s.Flow {
		if err := h.runStep(ctx, svc, sw, clock, m.ID, i, step, result); err != nil {
			return nil, err
		}
	}

	h.assertAll(ctx, svc, st, m.ID, s, result)
	return result, nil
}

func (h *Runner) runStep(ctx context.Context, svc *service.Service, sw *sweeper.Sweeper, clock *testutil.Clock, matchID string, i int, step Step, result *Result) error {
	var err error
	switch step.Do {
	case StepMove:
		_, err = svc.SubmitMove(ctx, matchID, step.Slot, document.Document(step.Move))
	case StepAccept:
		_, err = svc.AcceptMatch(ctx, matchID)
	case StepAdvance:
		clock.Advance(step.MS)
		return nil
	case StepSweep:
		sw.Tick(ctx)
		return nil
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", i, step.Do)
	}

	switch {
	case step.Expect == nil && err != nil:
		result.failf("flow[%d] %s: unexpected rejection: %v", i, step.Do, err)
	case step.Expect != nil && err == nil:
		result.failf("flow[%d] %s: expected rejection, step succeeded", i, step.Do)
	case step.Expect != nil && step.Expect.ErrorContains != "" &&
		!strings.Contains(err.Error(), step.Expect.ErrorContains):
		result.failf("flow[%d] %s: rejection %q does not contain %q",
			i, step.Do, err.Error(), step.Expect.ErrorContains)
	}
	return nil
}

func (h *Runner) assertAll(ctx context.Context, svc *service.Service, st store.Store, matchID string, s *Scenario, result *Result) {
	m, err := svc.GetMatch(ctx, matchID)
	if err != nil {
		result.failf("load final match: %v", err)
		return
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertStatus:
			if string(m.Status) != a.Value {
				result.failf("assertions[%d]: status %q, want %q", i, m.Status, a.Value)
			}
		case AssertResult:
			if m.Result != a.Value {
				result.failf("assertions[%d]: result %q, want %q", i, m.Result, a.Value)
			}
		case AssertNextPlayer:
			if m.NextPlayer != a.Value {
				result.failf("assertions[%d]: next player %q, want %q", i, m.NextPlayer, a.Value)
			}
		case AssertEventCount:
			events, err := match.NewEvents(st).ListForMatch(ctx, matchID)
			if err != nil {
				result.failf("assertions[%d]: list events: %v", i, err)
				continue
			}
			if len(events) != a.Count {
				result.failf("assertions[%d]: %d events, want %d", i, len(events), a.Count)
			}
		case AssertState:
			for key, want := range a.Expect {
				got, ok := m.Snapshot[key]
				if !ok {
					result.failf("assertions[%d]: state has no field %q", i, key)
					continue
				}
				if !valuesEqual(got, want) {
					result.failf("assertions[%d]: state.%s = %v, want %v", i, key, got, want)
				}
			}
		case AssertReplay:
			state, _, err := svc.ReplayMatch(ctx, matchID)
			if err != nil {
				result.failf("assertions[%d]: replay: %v", i, err)
				continue
			}
			if !document.Equal(state, m.Snapshot) {
				result.failf("assertions[%d]: replay diverged from stored snapshot", i)
			}
		}
	}
}

// valuesEqual compares a stored value with a YAML-sourced expectation
// through canonical encoding, so 3 and int64(3) and 3.0 agree.
func valuesEqual(got, want any) bool {
	return document.Equal(
		document.Document{"v": got},
		document.Document{"v": want},
	)
}

