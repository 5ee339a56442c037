package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/parlor/internal/document"
)

// ReplayResult holds the outcome of a replay audit.
type ReplayResult struct {
	MatchID  string `json:"match_id"`
	Events   int    `json:"events"`
	Terminal string `json:"terminal_reason,omitempty"`
	// Converged reports whether the replayed state equals the stored
	// snapshot byte for byte in canonical form.
	Converged bool `json:"converged"`
}

// NewReplayCommand creates the replay command: rebuild a match's state
// from its event log and verify it reproduces the stored snapshot.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "replay <match-id>",
		Short:         "Replay a match's event log and audit the snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd, args[0])
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command, matchID string) error {
	formatter := formatterFor(opts, cmd)

	env, closeEnv, err := OpenEnv(opts, formatter)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := cmd.Context()
	m, err := env.Service.GetMatch(ctx, matchID)
	if err != nil {
		return serviceError(formatter, err)
	}

	state, terminal, err := env.Service.ReplayMatch(ctx, matchID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	result := ReplayResult{
		MatchID:   matchID,
		Events:    int(m.TurnNumber),
		Terminal:  terminal,
		Converged: document.Equal(state, m.Snapshot),
	}

	if !result.Converged {
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeDiverged, "replayed state does not match the stored snapshot", result)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ replay diverged for %s\n", matchID)
			fmt.Fprintf(formatter.Writer, "  replayed: %v\n", state)
			fmt.Fprintf(formatter.Writer, "  stored:   %v\n", m.Snapshot)
		}
		return NewExitError(ExitFailure, "replay diverged")
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ replay converged for %s (%d events", matchID, result.Events)
	if terminal != "" {
		fmt.Fprintf(formatter.Writer, ", terminal %s", terminal)
	}
	fmt.Fprintln(formatter.Writer, ")")
	return nil
}
