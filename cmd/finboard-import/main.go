// Command finboard-import loads ledger documents into the sqlite store and
// inspects period overviews from the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"finboard/internal/cli"
	"finboard/internal/log"

	"github.com/google/subcommands"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}
	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	ctx, stop := cli.SignalContext(logger.Logger)
	ctx = log.NewContext(ctx, logger)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
