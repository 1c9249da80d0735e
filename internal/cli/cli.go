package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/juelinl/pebble/internal/app"
)

// Process exit codes. Documented in the usage text so operators can script
// against them.
const (
	ExitOK               = 0
	ExitInternal         = 1
	ExitUsage            = 2
	ExitValidationFailed = 3
	ExitRunsFailed       = 4
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pebble", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pebble - distributed GNN training sweep orchestrator.

Usage:
  pebble [options] SWEEP_PATH

Arguments:
  SWEEP_PATH
    Path to a sweep definition (.hcl, .yaml or .yml file) or a directory
    containing sweep files.

Exit codes:
  0  every run in the sweep succeeded
  1  internal error
  2  usage error
  3  sweep validation failed; nothing was launched
  4  sweep ran; one or more runs failed

Options:
`)
		flagSet.PrintDefaults()
	}

	sweepFlag := flagSet.String("sweep", "", "Path to the sweep file or directory.")
	sFlag := flagSet.String("s", "", "Path to the sweep file or directory (shorthand).")
	systemIDFlag := flagSet.String("system-id", "", "System identifier baked into artifact names. Required.")
	onFailureFlag := flagSet.String("on-failure", "abort", "Failure policy. Options: 'abort' or 'continue'.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Per-run wall-clock budget (e.g. '2h'). 0 disables it.")
	entrypointFlag := flagSet.String("entrypoint", "torchrun", "Distributed launch program.")
	scriptFlag := flagSet.String("script", "train.py", "Training entry-point script handed to the launch program.")
	outputDirFlag := flagSet.String("output-dir", "", "Directory for result-log artifacts. Defaults to the working directory.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Resolve and print invocations without launching anything.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP progress/health server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *sweepFlag != "" {
		path = *sweepFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Sweep path determined.", "path", path)

	if path == "" {
		slog.Debug("No sweep path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	if *systemIDFlag == "" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "missing required flag: -system-id"}
	}

	onFailure := strings.ToLower(*onFailureFlag)
	if onFailure != "abort" && onFailure != "continue" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid on-failure: must be 'abort' or 'continue'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *timeoutFlag < 0 {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid timeout: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		SweepPath:       path,
		SystemID:        *systemIDFlag,
		OnFailure:       onFailure,
		Timeout:         *timeoutFlag,
		Entrypoint:      *entrypointFlag,
		Script:          *scriptFlag,
		OutputDir:       *outputDirFlag,
		DryRun:          *dryRunFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
