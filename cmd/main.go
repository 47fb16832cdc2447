package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "chartsync",
		Usage:    "Keep a YouTube playlist in sync with a Beatport genre chart",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}
}
