package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/parlor/internal/match"
	"github.com/roach88/parlor/internal/service"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		players    []string
		visibility string
		pending    bool
	)

	cmd := &cobra.Command{
		Use:   "create <game-type>",
		Short: "Create a match",
		Long: `Create a match of the given game type.

Each --player takes slot=player-id, one per seat, e.g.:

  parlor create four_in_a_row --player a=alice --player b=bob`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, cmd, args[0], players, visibility, pending)
		},
	}

	cmd.Flags().StringArrayVar(&players, "player", nil, "seat assignment as slot=player-id (repeatable)")
	cmd.Flags().StringVar(&visibility, "visibility", "public", "match visibility (public|private)")
	cmd.Flags().BoolVar(&pending, "pending", false, "create as an open invite instead of active")
	return cmd
}

func runCreate(opts *RootOptions, cmd *cobra.Command, gameType string, players []string, visibility string, pending bool) error {
	formatter := formatterFor(opts, cmd)

	seats, err := parsePlayers(players)
	if err != nil {
		_ = formatter.Error(ErrCodeRejected, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	env, closeEnv, err := OpenEnv(opts, formatter)
	if err != nil {
		return err
	}
	defer closeEnv()

	m, err := env.Service.CreateMatch(cmd.Context(), service.CreateParams{
		GameType:      gameType,
		Visibility:    visibility,
		Players:       seats,
		PendingAccept: pending,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeRejected, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(summarize(m))
	}
	fmt.Fprintf(formatter.Writer, "created match %s (%s, %s)\n", m.ID, m.GameType, m.Status)
	return nil
}

// parsePlayers turns repeated slot=player-id flags into seat assignments.
func parsePlayers(raw []string) (map[string]match.Player, error) {
	seats := make(map[string]match.Player, len(raw))
	for _, r := range raw {
		slot, id, ok := strings.Cut(r, "=")
		if !ok || slot == "" || id == "" {
			return nil, fmt.Errorf("invalid --player %q: want slot=player-id", r)
		}
		if _, dup := seats[slot]; dup {
			return nil, fmt.Errorf("duplicate --player slot %q", slot)
		}
		seats[slot] = match.Player{ID: id, Name: id}
	}
	return seats, nil
}
