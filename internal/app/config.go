package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// SweepPath points to a sweep file or a directory of sweep files.
	SweepPath string
	// SystemID identifies the system under test; it is baked into every
	// artifact name.
	SystemID string

	// OnFailure selects the failure policy: "abort" or "continue".
	OnFailure string
	// Timeout is the per-run wall-clock budget. Zero disables it.
	Timeout time.Duration

	// Entrypoint is the distributed launch program, Script the training
	// entry point handed to it.
	Entrypoint string
	Script     string
	// OutputDir is where result-log artifacts are written.
	OutputDir string

	// DryRun resolves and prints invocations without launching anything.
	DryRun bool

	HealthcheckPort int
	LogFormat       string
	LogLevel        string
}

// NewConfig validates a Config and applies defaults for optional fields.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SweepPath == "" {
		return nil, errors.New("SweepPath is a required configuration field and cannot be empty")
	}
	if cfg.SystemID == "" {
		return nil, errors.New("SystemID is a required configuration field and cannot be empty")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("Timeout cannot be negative")
	}
	if cfg.OnFailure == "" {
		cfg.OnFailure = "abort"
	}
	if cfg.Entrypoint == "" {
		cfg.Entrypoint = "torchrun"
	}
	if cfg.Script == "" {
		cfg.Script = "train.py"
	}
	return &cfg, nil
}
