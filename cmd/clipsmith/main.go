// Command clipsmith is the entrypoint for the clipsmith media pipeline CLI.
// It loads configuration from .env and the environment, then hands the
// command line to the cobra command tree.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/clipsmith/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Cancel on SIGINT/SIGTERM so the running ffmpeg is killed and the
	// batch reports the remaining segments as interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, cli.NewApp(), os.Args[1:])
}
