package main

import (
	"os"

	"github.com/roach88/parlor/internal/cli"
)

func main() {
	// Commands report their own failures through the output formatter;
	// the process exit code is the remaining contract.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
