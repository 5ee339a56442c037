package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validScenario = `
name: smoke
description: one move goes through
game_type: four_in_a_row
players:
  a: alice
  b: bob
flow:
  - do: move
    slot: a
    move: {column: 0}
assertions:
  - type: event_count
    count: 1
`

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, validScenario))
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)
	assert.Len(t, s.Flow, 1)
	assert.Len(t, s.Assertions, 1)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	// "assertion" (singular) is the classic typo; strict decoding
	// refuses it instead of running a scenario with nothing to check.
	_, err := LoadScenario(writeScenario(t, `
name: typo
description: x
game_type: four_in_a_row
players: {a: alice}
flow:
  - do: move
    slot: a
    move: {}
assertion:
  - type: event_count
`))
	assert.Error(t, err)
}

func TestLoadScenario_RequiresAssertions(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: empty
description: x
game_type: four_in_a_row
players: {a: alice}
flow:
  - do: move
    slot: a
    move: {}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertions")
}

func TestLoadScenario_RejectsUnknownStepAction(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: bad_step
description: x
game_type: four_in_a_row
players: {a: alice}
flow:
  - do: teleport
assertions:
  - type: event_count
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestLoadScenario_RejectsExpectWithoutFail(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, `
name: bad_expect
description: x
game_type: four_in_a_row
players: {a: alice}
flow:
  - do: move
    slot: a
    move: {}
    expect:
      error_contains: whatever
assertions:
  - type: event_count
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail: true")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
