package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/juelinl/pebble/internal/app"
	"github.com/juelinl/pebble/internal/cli"
	"github.com/juelinl/pebble/internal/config"
	"github.com/juelinl/pebble/internal/hcl"
	"github.com/juelinl/pebble/internal/sequencer"
	"github.com/juelinl/pebble/internal/yaml"
)

// main is the entrypoint for the pebble sweep orchestrator.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors (e.g. an unreadable sweep
	// file), so we recover here to provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			os.Exit(cli.ExitInternal)
		}
	}()

	pebbleApp := app.NewApp(outW, appConfig, loaderFor(appConfig.SweepPath))

	// An interrupt must reach the in-flight launch and terminate its whole
	// worker set before the orchestrator exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return pebbleApp.Run(ctx)
}

// loaderFor picks the sweep-definition loader by file extension. Directories
// default to HCL, the primary format.
func loaderFor(path string) config.Loader {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.NewLoader()
	}
	return hcl.NewLoader()
}

// exitCode maps error types onto the documented exit-code ranges, so an
// operator can tell "never ran" from "ran and partially failed".
func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var valErr *sequencer.ValidationError
	if errors.As(err, &valErr) {
		return cli.ExitValidationFailed
	}
	var runsErr *app.RunsFailedError
	if errors.As(err, &runsErr) {
		return cli.ExitRunsFailed
	}
	return cli.ExitInternal
}
