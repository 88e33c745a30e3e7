package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/undrift/tuxmux/internal/cmd"
)

// Version is set via ldflags at build time
var version = "dev"

func main() {
	cmd.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		cmd.PrintError(err)
		os.Exit(cmd.ExitCode(err))
	}
}
