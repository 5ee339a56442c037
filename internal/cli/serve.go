package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/parlor/internal/match"
	"github.com/roach88/parlor/internal/sweeper"
)

// NewServeCommand creates the serve command: open the backend and run the
// deadline sweeper until interrupted.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the match platform with its deadline sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	env, closeEnv, err := OpenEnv(opts, formatterFor(opts, cmd))
	if err != nil {
		return err
	}
	defer closeEnv()

	log.Info("store opened",
		"backend", env.Config.Store.Backend,
		"path", env.Config.Store.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sw := sweeper.New(
		match.NewMatches(env.Store),
		env.Service,
		sweeper.WithInterval(env.Config.Sweep.Interval),
		sweeper.WithExpiryBudget(env.Config.Sweep.ExpiryBudget),
		sweeper.WithLogger(log),
	)
	if err := sw.Start(ctx); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("start sweeper: %v", err))
	}
	defer func() {
		if err := sw.Stop(); err != nil {
			log.Error("stop sweeper", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}
