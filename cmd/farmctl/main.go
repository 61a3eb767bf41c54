package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"farmstead/internal/cli"
	"farmstead/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level).WithComponent(log.ComponentCLI)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	board, ledger, plantings := cli.NewServices(res, nil, logger)
	app := &cli.App{
		Board:     board,
		Ledger:    ledger,
		Plantings: plantings,
		Color:     isatty.IsTerminal(os.Stdout.Fd()),
	}
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
