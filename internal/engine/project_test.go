package engine_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/engine"
	"github.com/roach88/parlor/internal/games"
	"github.com/roach88/parlor/internal/match"
)

func showdownMatch(t *testing.T) match.Match {
	t.Helper()
	eng := games.Showdown{}

	state, err := eng.Init(eng.Slots())
	require.NoError(t, err)
	state, err = eng.ApplyMove(state, "a", document.Document{"pick": "rock"})
	require.NoError(t, err)

	return match.Match{
		ID:       "m-1",
		GameType: games.GameTypeShowdown,
		Status:   match.StatusActive,
		Players: map[string]match.Player{
			"a": {ID: "alice"},
			"b": {ID: "bob"},
		},
		TurnNumber:   1,
		Snapshot:     state,
		InsertedAtMS: 1000,
		UpdatedAtMS:  2000,
	}
}

func TestProjectPublicView_ViewersDivergeOnlyOnGameState(t *testing.T) {
	eng := games.Showdown{}
	m := showdownMatch(t)

	forA := engine.ProjectPublicView(eng, m, "a")
	forB := engine.ProjectPublicView(eng, m, "b")

	// Structural metadata is viewer-independent.
	assert.Equal(t, forA.ID, forB.ID)
	assert.Equal(t, forA.Status, forB.Status)
	assert.Equal(t, forA.Players, forB.Players)
	assert.Equal(t, forA.TurnNumber, forB.TurnNumber)

	// Hidden information diverges.
	assert.Equal(t, "rock", forA.GameState.Child("pending").String("a"))
	assert.NotEqual(t, "rock", forB.GameState.Child("pending").String("a"))
}

func TestNextPlayer_SimultaneousAwaitsTheOtherSlot(t *testing.T) {
	eng := games.Showdown{}

	state, err := eng.Init(eng.Slots())
	require.NoError(t, err)
	assert.Equal(t, "a", engine.NextPlayer(eng, state), "both awaiting: seating order decides")

	state, err = eng.ApplyMove(state, "a", document.Document{"pick": "rock"})
	require.NoError(t, err)
	assert.Equal(t, "b", engine.NextPlayer(eng, state))
}

func TestNextPlayer_TerminalStateHasNone(t *testing.T) {
	eng := games.Showdown{Target: 1}

	state, err := eng.Init(eng.Slots())
	require.NoError(t, err)
	state, err = eng.ApplyMove(state, "a", document.Document{"pick": "rock"})
	require.NoError(t, err)
	state, err = eng.ApplyMove(state, "b", document.Document{"pick": "scissors"})
	require.NoError(t, err)

	assert.Empty(t, engine.NextPlayer(eng, state))
}

func TestNextPlayer_AlternatingVariantResolvesEmpty(t *testing.T) {
	eng := games.FourInARow{}

	state, err := eng.Init(eng.Slots())
	require.NoError(t, err)

	// Alternating games track next_player on the match document; the
	// projection stays out of it.
	assert.Empty(t, engine.NextPlayer(eng, state))
}

// TestProjectPublicView_Golden pins the projected spectator view for a
// replayed connect-four log. Regenerate with:
//
//	go test ./internal/engine -update
func TestProjectPublicView_Golden(t *testing.T) {
	eng := games.FourInARow{}
	state, terminal, err := engine.Replay(eng, dropEvents("m-golden", 0, 1, 0))
	require.NoError(t, err)
	require.Empty(t, terminal)

	m := match.Match{
		ID:       "m-golden",
		GameType: games.GameTypeFourInARow,
		Status:   match.StatusActive,
		Players: map[string]match.Player{
			"a": {ID: "alice"},
			"b": {ID: "bob"},
		},
		TurnNumber:   3,
		NextPlayer:   "b",
		Visibility:   "public",
		Snapshot:     state,
		InsertedAtMS: 1000,
		UpdatedAtMS:  4000,
	}
	view := engine.ProjectPublicView(eng, m, "")

	players := make(map[string]any, len(view.Players))
	for slot, id := range view.Players {
		players[slot] = id
	}
	snapshot, err := document.MarshalCanonical(document.Document{
		"id":             view.ID,
		"game_type":      view.GameType,
		"status":         string(view.Status),
		"visibility":     view.Visibility,
		"players":        players,
		"turn_number":    view.TurnNumber,
		"next_player":    view.NextPlayer,
		"result":         view.Result,
		"game_state":     view.GameState,
		"deadline_at_ms": view.DeadlineAtMS,
		"inserted_at_ms": view.InsertedAtMS,
		"updated_at_ms":  view.UpdatedAtMS,
	})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "public_view_spectator", snapshot)
}
