// Package sweeper scans stored matches for blown deadlines and expires
// them through the match service.
//
// The sweeper is best-effort and crash-safe: nothing is armed in memory,
// the deadline lives on the match row, and a tick that dies mid-scan is
// simply redone by the next one. Expiry itself is idempotent on the
// service side, so overlapping or repeated ticks are harmless.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/roach88/parlor/internal/match"
)

// Expirer is the slice of the match service the sweeper needs.
type Expirer interface {
	ExpireMatch(ctx context.Context, matchID string, reason match.TimeoutReason) error
}

const (
	defaultInterval     = 10 * time.Second
	defaultExpiryBudget = 5 * time.Second
)

// Sweeper periodically expires matches whose deadline has passed.
type Sweeper struct {
	matches *match.Matches
	expirer Expirer
	log     *slog.Logger

	now          func() int64
	interval     time.Duration
	expiryBudget time.Duration

	scheduler gocron.Scheduler
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithNow injects a millisecond clock, for tests.
func WithNow(now func() int64) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) { s.interval = d }
}

// WithExpiryBudget bounds how long a single expiry may take.
func WithExpiryBudget(d time.Duration) Option {
	return func(s *Sweeper) { s.expiryBudget = d }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Sweeper) { s.log = log }
}

// New creates a sweeper over the match table.
func New(matches *match.Matches, expirer Expirer, opts ...Option) *Sweeper {
	s := &Sweeper{
		matches:      matches,
		expirer:      expirer,
		log:          slog.Default(),
		now:          func() int64 { return time.Now().UnixMilli() },
		interval:     defaultInterval,
		expiryBudget: defaultExpiryBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the periodic tick. Stop releases it.
func (s *Sweeper) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("sweeper: scheduler: %w", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.Tick(ctx) }),
	); err != nil {
		return fmt.Errorf("sweeper: job: %w", err)
	}
	sched.Start()
	s.scheduler = sched

	s.log.Info("sweeper started", "interval", s.interval)
	return nil
}

// Stop shuts the scheduler down, waiting for a running tick to finish.
func (s *Sweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("sweeper: shutdown: %w", err)
	}
	s.scheduler = nil
	return nil
}

// Tick runs a single sweep: every non-terminal match with an armed
// deadline strictly before now is expired. A failed expiry is logged and
// skipped; the match stays eligible for the next tick.
func (s *Sweeper) Tick(ctx context.Context) {
	matches, err := s.matches.List(ctx)
	if err != nil {
		s.log.Error("sweep: list matches", "error", err)
		return
	}

	now := s.now()
	expired := 0
	for _, m := range matches {
		// Terminal wins over deadline, always. A finished match whose
		// deadline field still holds a stale value must never flip.
		if m.Status.Terminal() {
			continue
		}
		if m.DeadlineAtMS == 0 || m.DeadlineAtMS >= now {
			continue
		}

		reason := match.TimeoutTurn
		if m.Status == match.StatusPendingAccept {
			reason = match.TimeoutAccept
		}

		expiryCtx, cancel := context.WithTimeout(ctx, s.expiryBudget)
		err := s.expirer.ExpireMatch(expiryCtx, m.ID, reason)
		cancel()
		if err != nil {
			s.log.Error("sweep: expire match", "match_id", m.ID, "reason", reason, "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.log.Info("sweep complete", "expired", expired, "scanned", len(matches))
	}
}
