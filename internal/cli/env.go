package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/parlor/internal/bus"
	"github.com/roach88/parlor/internal/config"
	"github.com/roach88/parlor/internal/games"
	"github.com/roach88/parlor/internal/service"
	"github.com/roach88/parlor/internal/store"
)

// Env is the wired runtime every command operates against: configuration,
// an opened backend, and the match service on top of it.
type Env struct {
	Config  config.Config
	Store   store.Store
	Bus     *bus.Bus
	Service *service.Service
}

// OpenEnv loads configuration and opens the configured backend, reporting
// failures through the formatter. The returned closer releases backend
// resources; it is safe to call for every backend kind.
func OpenEnv(opts *RootOptions, formatter *OutputFormatter) (*Env, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, nil, NewExitError(ExitCommandError, err.Error())
	}

	st, err := store.Open(cfg.StoreOptions())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, nil, NewExitError(ExitCommandError, err.Error())
	}

	b := bus.New()
	svcOpts := []service.Option{}
	if cfg.Sweep.TurnTimeout > 0 {
		svcOpts = append(svcOpts, service.WithTurnTimeout(cfg.Sweep.TurnTimeout))
	}
	svc := service.New(st, games.DefaultRegistry(), b, svcOpts...)

	closer := func() {
		if c, ok := st.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				formatter.VerboseLog("warning: close store: %v", err)
			}
		}
	}
	return &Env{Config: cfg, Store: st, Bus: b, Service: svc}, closer, nil
}

// formatterFor builds the output formatter for one command invocation.
func formatterFor(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
