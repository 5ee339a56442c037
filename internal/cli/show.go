package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/parlor/internal/match"
)

// matchSummary is the JSON shape commands print for one match row.
type matchSummary struct {
	ID         string `json:"id"`
	GameType   string `json:"game_type"`
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
	TurnNumber int64  `json:"turn_number"`
	NextPlayer string `json:"next_player,omitempty"`
	Result     string `json:"result,omitempty"`
	DeadlineAt int64  `json:"deadline_at_ms,omitempty"`
	UpdatedAt  int64  `json:"updated_at_ms"`
}

func summarize(m match.Match) matchSummary {
	return matchSummary{
		ID:         m.ID,
		GameType:   m.GameType,
		Status:     string(m.Status),
		Visibility: m.Visibility,
		TurnNumber: m.TurnNumber,
		NextPlayer: m.NextPlayer,
		Result:     m.Result,
		DeadlineAt: m.DeadlineAtMS,
		UpdatedAt:  m.UpdatedAtMS,
	}
}

// NewMatchesCommand creates the matches command.
func NewMatchesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "matches",
		Short:         "List stored matches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(rootOpts, cmd)

			env, closeEnv, err := OpenEnv(rootOpts, formatter)
			if err != nil {
				return err
			}
			defer closeEnv()

			matches, err := env.Service.ListMatches(cmd.Context())
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				rows := make([]matchSummary, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, summarize(m))
				}
				return formatter.Success(rows)
			}

			w := tabwriter.NewWriter(formatter.Writer, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGAME\tSTATUS\tTURN\tNEXT\tRESULT")
			for _, m := range matches {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					m.ID, m.GameType, m.Status, m.TurnNumber, orDash(m.NextPlayer), orDash(m.Result))
			}
			return w.Flush()
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var viewer string

	cmd := &cobra.Command{
		Use:   "show <match-id>",
		Short: "Show a match as one viewer sees it",
		Long: `Show the public projection of a match. With --as, hidden state the
variant keeps for that slot is included; without it the spectator view is
shown.`,
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

			view, err := env.Service.View(cmd.Context(), args[0], viewer)
			if err != nil {
				return serviceError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(view)
			}

			fmt.Fprintf(formatter.Writer, "match %s (%s)\n", view.ID, view.GameType)
			fmt.Fprintf(formatter.Writer, "  status: %s", view.Status)
			if view.Result != "" {
				fmt.Fprintf(formatter.Writer, " (%s)", view.Result)
			}
			fmt.Fprintln(formatter.Writer)
			fmt.Fprintf(formatter.Writer, "  turn:   %d, next %s\n", view.TurnNumber, orDash(view.NextPlayer))
			fmt.Fprintf(formatter.Writer, "  state:  %v\n", view.GameState)
			return nil
		},
	}

	cmd.Flags().StringVar(&viewer, "as", "", "view as this slot (default: spectator)")
	return cmd
}
