package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/parlor/internal/document"
	"github.com/roach88/parlor/internal/engine"
	"github.com/roach88/parlor/internal/service"
)

// NewAcceptCommand creates the accept command.
func NewAcceptCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "accept <match-id>",
		Short:         "Accept a pending match invite",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(rootOpts, cmd)

			env, closeEnv, err := OpenEnv(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeEnv()

			m, err := env.Service.AcceptMatch(cmd.Context(), args[0])
			if err != nil {
				return serviceError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(summarize(m))
			}
			fmt.Fprintf(formatter.Writer, "match %s is now %s\n", m.ID, m.Status)
			return nil
		},
	}
}

// NewAbortCommand creates the abort command.
func NewAbortCommand(rootOpts *RootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:           "abort <match-id>",
		Short:         "Abort a match by operator decision",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(rootOpts, cmd)

			env, closeEnv, err := OpenEnv(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeEnv()

			if err := env.Service.AbortMatch(cmd.Context(), args[0], reason); err != nil {
				return serviceError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"id": args[0], "status": "aborted"})
			}
			fmt.Fprintf(formatter.Writer, "match %s aborted\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "aborted", "stored result for the aborted match")
	return cmd
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <match-id> <slot> <move-json>",
		Short: "Submit a move",
		Long: `Submit a move for one slot of an active match. The move is a JSON
object in the variant's move format, e.g.:

  parlor move 0198... a '{"column": 3}'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(rootOpts, cmd)

			var move document.Document
			if err := json.Unmarshal([]byte(args[2]), &move); err != nil {
				_ = formatter.Error(ErrCodeRejected, fmt.Sprintf("invalid move json: %v", err), nil)
				return NewExitError(ExitCommandError, "invalid move json")
			}

			env, closeEnv, err := OpenEnv(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeEnv()

			m, err := env.Service.SubmitMove(cmd.Context(), args[0], args[1], move)
			if err != nil {
				return serviceError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(summarize(m))
			}
			fmt.Fprintf(formatter.Writer, "move accepted: turn %d, next %s\n", m.TurnNumber, orDash(m.NextPlayer))
			if m.Status.Terminal() {
				fmt.Fprintf(formatter.Writer, "match %s %s (%s)\n", m.ID, m.Status, m.Result)
			}
			return nil
		},
	}
}

// serviceError maps service errors to formatter output and exit codes.
// Rule rejections and turn-order violations are domain failures; an
// unknown match is a command error.
func serviceError(formatter *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	case errors.Is(err, engine.ErrInvalidMove),
		errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrMatchOver),
		errors.Is(err, service.ErrMatchNotActive),
		errors.Is(err, service.ErrNotJoinable):
		_ = formatter.Error(ErrCodeRejected, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	default:
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
