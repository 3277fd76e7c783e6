package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/recurring-finder/internal/cli"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/logging"
)

func main() {
	// Parse flags
	flags, err := cli.ParseFindFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := cli.LoadConfig(flags.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	flags.Apply(cfg)

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "find-recurring")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.RunFind(ctx, cfg, flags, os.Stdout, logger); err != nil {
		logger.Error("find-recurring failed", "error", err)
		stop()
		os.Exit(1)
	}
}
