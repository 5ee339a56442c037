package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// tableLister is the optional admin surface the sqlite backend exposes.
type tableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables",
		Short:         "List the backend's logical tables (sqlite only)",
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

			lister, ok := env.Store.(tableLister)
			if !ok {
				msg := fmt.Sprintf("backend %q does not enumerate tables", env.Config.Store.Backend)
				_ = formatter.Error(ErrCodeStore, msg, nil)
				return NewExitError(ExitCommandError, msg)
			}

			tables, err := lister.ListTables(cmd.Context())
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(tables)
			}
			for _, t := range tables {
				fmt.Fprintln(formatter.Writer, t)
			}
			return nil
		},
	}
}
