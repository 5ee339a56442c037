package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useAppendLog points every command invocation at a shared durable
// backend, so state survives across separate process-style invocations.
func useAppendLog(t *testing.T) {
	t.Helper()
	t.Setenv("PARLOR_STORE_BACKEND", "appendlog")
	t.Setenv("PARLOR_STORE_PATH", t.TempDir())
}

func decodeData(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data payload: %v", resp.Data)
	return data
}

func TestCLI_MatchLifecycle(t *testing.T) {
	useAppendLog(t)

	out, _, err := execute(t, "create", "four_in_a_row",
		"--player", "a=alice", "--player", "b=bob", "--format", "json")
	require.NoError(t, err)

	created := decodeData(t, out)
	matchID, _ := created["id"].(string)
	require.NotEmpty(t, matchID)
	assert.Equal(t, "active", created["status"])

	out, _, err = execute(t, "move", matchID, "a", `{"column": 3}`, "--format", "json")
	require.NoError(t, err)
	moved := decodeData(t, out)
	assert.Equal(t, float64(1), moved["turn_number"])
	assert.Equal(t, "b", moved["next_player"])

	out, _, err = execute(t, "matches")
	require.NoError(t, err)
	assert.Contains(t, out, matchID)
	assert.Contains(t, out, "four_in_a_row")

	out, _, err = execute(t, "show", matchID, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"game_state"`)

	out, _, err = execute(t, "replay", matchID)
	require.NoError(t, err)
	assert.Contains(t, out, "replay converged")
}

func TestCLI_MoveRejectionExitsWithFailure(t *testing.T) {
	useAppendLog(t)

	out, _, err := execute(t, "create", "four_in_a_row",
		"--player", "a=alice", "--player", "b=bob", "--format", "json")
	require.NoError(t, err)
	matchID := decodeData(t, out)["id"].(string)

	// Out of turn.
	_, _, err = execute(t, "move", matchID, "b", `{"column": 0}`)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// Unknown match is an operator mistake, not a rules outcome.
	_, _, err = execute(t, "move", "no-such-id", "a", `{"column": 0}`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCLI_PendingInviteAccept(t *testing.T) {
	useAppendLog(t)

	out, _, err := execute(t, "create", "showdown",
		"--player", "a=alice", "--player", "b=bob", "--pending", "--format", "json")
	require.NoError(t, err)
	created := decodeData(t, out)
	matchID := created["id"].(string)
	require.Equal(t, "pending_accept", created["status"])

	// Moves are rejected until the invite is accepted.
	_, _, err = execute(t, "move", matchID, "a", `{"pick": "rock"}`)
	require.Error(t, err)

	out, _, err = execute(t, "accept", matchID, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "active", decodeData(t, out)["status"])

	_, _, err = execute(t, "move", matchID, "a", `{"pick": "rock"}`)
	require.NoError(t, err)
}

func TestCLI_TablesRequiresSQLite(t *testing.T) {
	useAppendLog(t)

	_, _, err := execute(t, "tables")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCLI_TablesOnSQLite(t *testing.T) {
	t.Setenv("PARLOR_STORE_BACKEND", "sqlite")
	t.Setenv("PARLOR_STORE_PATH", t.TempDir()+"/parlor.db")

	out, _, err := execute(t, "create", "four_in_a_row",
		"--player", "a=alice", "--player", "b=bob", "--format", "json")
	require.NoError(t, err)
	matchID := decodeData(t, out)["id"].(string)
	require.NotEmpty(t, matchID)

	out, _, err = execute(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "game_matches")
}
