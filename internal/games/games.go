package games

import (
	"github.com/roach88/parlor/internal/engine"
)

// DefaultRegistry returns a registry with every built-in variant wired.
func DefaultRegistry() *engine.Registry {
	r := engine.NewRegistry()
	r.Register(GameTypeFourInARow, FourInARow{})
	r.Register(GameTypeShowdown, Showdown{})
	return r
}
