package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a match is created, a flow of
// steps is executed against it, and assertions validate the final match
// row, its event log, and replay convergence.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// GameType selects the variant the match is created with.
	GameType string `yaml:"game_type"`

	// Players seats slots, slot → player id.
	Players map[string]string `yaml:"players"`

	// Pending creates the match as an open invite instead of active.
	Pending bool `yaml:"pending,omitempty"`

	// DeadlineMS arms the initial deadline, in milliseconds from scenario
	// start. Zero means no deadline.
	DeadlineMS int64 `yaml:"deadline_ms,omitempty"`

	// TurnTimeoutMS re-arms the deadline after every accepted move, in
	// milliseconds. Zero disables turn deadlines.
	TurnTimeoutMS int64 `yaml:"turn_timeout_ms,omitempty"`

	// Flow contains the steps to execute in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the match after the flow completes.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one flow action.
type Step struct {
	// Do selects the action: move, accept, advance, or sweep.
	Do string `yaml:"do"`

	// Slot is the acting seat (move only).
	Slot string `yaml:"slot,omitempty"`

	// Move is the variant move payload (move only).
	Move map[string]any `yaml:"move,omitempty"`

	// MS advances the scenario clock (advance only).
	MS int64 `yaml:"ms,omitempty"`

	// Expect validates the step outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected step failure.
type ExpectClause struct {
	// Fail marks the step as one that must be rejected.
	Fail bool `yaml:"fail"`

	// ErrorContains additionally requires the rejection message to
	// contain this substring.
	ErrorContains string `yaml:"error_contains,omitempty"`
}

// Step action constants.
const (
	StepMove    = "move"
	StepAccept  = "accept"
	StepAdvance = "advance"
	StepSweep   = "sweep"
)

// Assertion validates the final match.
type Assertion struct {
	// Type selects what is checked:
	//  - "status": the match status equals Value
	//  - "result": the match result equals Value
	//  - "next_player": the next player equals Value ("" for none)
	//  - "event_count": the event log holds exactly Count records
	//  - "state": Expect is a subset of the stored snapshot
	//  - "replay_converges": replaying the log reproduces the snapshot
	Type string `yaml:"type"`

	Value  string         `yaml:"value,omitempty"`
	Count  int            `yaml:"count,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus     = "status"
	AssertResult     = "result"
	AssertNextPlayer = "next_player"
	AssertEventCount = "event_count"
	AssertState      = "state"
	AssertReplay     = "replay_converges"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, so a typo in a scenario fails loudly instead of silently
// skipping an assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.GameType == "" {
		return fmt.Errorf("game_type is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("players is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions is required and must be non-empty")
	}

	for i, step := range s.Flow {
		switch step.Do {
		case StepMove:
			if step.Slot == "" {
				return fmt.Errorf("flow[%d]: slot is required for move", i)
			}
			if step.Move == nil {
				return fmt.Errorf("flow[%d]: move payload is required (use empty map for none)", i)
			}
		case StepAccept, StepSweep:
			// No arguments.
		case StepAdvance:
			if step.MS <= 0 {
				return fmt.Errorf("flow[%d]: ms must be positive for advance", i)
			}
		default:
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Do)
		}
		if step.Expect != nil && !step.Expect.Fail {
			return fmt.Errorf("flow[%d]: expect requires fail: true", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertStatus, AssertResult, AssertNextPlayer:
			// Value may legitimately be empty (e.g. no next player).
		case AssertEventCount:
			if a.Count < 0 {
				return fmt.Errorf("assertions[%d]: count must be non-negative", i)
			}
		case AssertState:
			if len(a.Expect) == 0 {
				return fmt.Errorf("assertions[%d]: expect is required for state", i)
			}
		case AssertReplay:
			// No arguments.
		case "":
			return fmt.Errorf("assertions[%d]: type is required", i)
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}
	return nil
}
