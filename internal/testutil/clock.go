// Package testutil provides deterministic time and identity sources for
// tests. Production code injects real implementations; tests inject these
// so the same scenario replays with identical timestamps and ids.
package testutil

import (
	"fmt"
	"sync"
)

// Clock is a settable millisecond wall clock.
//
// Thread-safety: all methods are safe for concurrent use.
type Clock struct {
	mu sync.Mutex
	ms int64
}

// NewClock creates a clock frozen at the given epoch milliseconds.
func NewClock(ms int64) *Clock {
	return &Clock{ms: ms}
}

// Now returns the current milliseconds. Pass the method value as the
// `now func() int64` dependency of the code under test.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Advance moves the clock forward by delta milliseconds.
func (c *Clock) Advance(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += delta
}

// Set jumps the clock to an absolute time.
func (c *Clock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = ms
}

// FixedIDs returns predetermined identifiers in order, then panics: a
// fail-fast way to catch a test creating more entities than it expected.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs creates a generator over the given ids.
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Next returns the next predetermined id.
func (g *FixedIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("testutil: all %d fixed ids exhausted", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
