package launcher

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/juelinl/pebble/internal/artifact"
	"github.com/juelinl/pebble/internal/ctxlog"
	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/topology"
)

// Status classifies how a launch ended.
type Status string

const (
	// StatusSuccess: all workers exited and the entry point returned zero.
	StatusSuccess Status = "success"
	// StatusLaunchFailure: the launch process could not be started at all.
	StatusLaunchFailure Status = "launch_failure"
	// StatusRuntimeFailure: the entry point ran and exited nonzero.
	StatusRuntimeFailure Status = "runtime_failure"
	// StatusTimeoutFailure: the run exceeded its wall-clock budget and was
	// forcibly terminated.
	StatusTimeoutFailure Status = "timeout_failure"
)

// RunResult is the immutable outcome of one launch.
type RunResult struct {
	Entry    string
	Config   *model.ExperimentConfig
	Topology topology.Topology

	Status Status
	// ExitCode is the entry point's verbatim exit code. It is only
	// meaningful for StatusSuccess and StatusRuntimeFailure and is -1
	// otherwise.
	ExitCode int
	Duration time.Duration

	// ArtifactPath is the result log written by the entry point, set only on
	// success.
	ArtifactPath string

	// Err describes why the launch could not start or was cut short. Nil for
	// StatusSuccess and StatusRuntimeFailure.
	Err error
}

// Failed reports whether the run ended in any failure status.
func (r RunResult) Failed() bool {
	return r.Status != StatusSuccess
}

// Options configures how invocations are built and executed.
type Options struct {
	// Program is the distributed launch binary, e.g. "torchrun".
	Program string
	// Script is the training entry point handed to Program.
	Script string
	// OutputDir is where artifact names resolve to paths. Empty means the
	// working directory.
	OutputDir string
	// Timeout is the per-run wall-clock budget. Zero disables it.
	Timeout time.Duration
	// SystemID feeds artifact naming.
	SystemID string
}

// CommandRunner executes one invocation to completion and returns the
// process exit code. Implementations must not return until every worker the
// launch spawned has terminated or ctx is done.
type CommandRunner interface {
	Run(ctx context.Context, inv *Invocation) (int, error)
}

// Launcher builds and executes one invocation per experiment.
type Launcher struct {
	opts   Options
	env    model.LaunchEnv
	runner CommandRunner
}

// New creates a Launcher that executes invocations with os/exec.
func New(opts Options, env model.LaunchEnv) *Launcher {
	return NewWithRunner(opts, env, &execRunner{})
}

// NewWithRunner creates a Launcher with an injected command runner. Tests use
// this to substitute a fake.
func NewWithRunner(opts Options, env model.LaunchEnv, runner CommandRunner) *Launcher {
	return &Launcher{opts: opts, env: env, runner: runner}
}

// Invocation renders the invocation for an experiment without executing it.
// The dry-run path uses this to show what would launch.
func (l *Launcher) Invocation(cfg *model.ExperimentConfig, topo topology.Topology) *Invocation {
	return newInvocation(l.opts, cfg, topo, l.env, l.artifactPath(cfg))
}

// Launch executes one experiment as a scoped blocking operation. It returns
// only once the whole worker set has terminated, the timeout fired, or ctx
// was cancelled. Failures are reported in the RunResult, never as a Go error;
// the sequencer decides what happens next.
func (l *Launcher) Launch(ctx context.Context, cfg *model.ExperimentConfig, topo topology.Topology) RunResult {
	logger := ctxlog.FromContext(ctx).With("experiment", cfg.Name)

	res := RunResult{
		Entry:    cfg.Name,
		Config:   cfg,
		Topology: topo,
		ExitCode: -1,
	}

	inv := l.Invocation(cfg, topo)
	logger.Info("🚀 Launching distributed run",
		"workers", topo.Workers, "nodes", topo.Nodes, "workers_per_node", topo.WorkersPerNode)
	logger.Debug("Invocation rendered.", "argv", inv.String(), "env", inv.Env)

	runCtx := ctx
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	code, err := l.runner.Run(runCtx, inv)
	res.Duration = time.Since(start)

	switch {
	case err != nil && isStartError(err):
		res.Status = StatusLaunchFailure
		res.Err = err
		logger.Error("Launch could not be started.", "error", err)
	case err != nil && runCtx.Err() != nil && ctx.Err() == nil:
		// The per-run deadline fired; the outer context is still alive. A run
		// that managed to exit cleanly at the deadline is not a timeout.
		res.Status = StatusTimeoutFailure
		res.Err = context.DeadlineExceeded
		logger.Error("Run exceeded its wall-clock budget and was terminated.",
			"timeout", l.opts.Timeout, "elapsed", res.Duration)
	case err != nil && runCtx.Err() != nil:
		// Cancelled from outside; report it as a launch-level failure so the
		// sequencer still records exactly one result for the entry.
		res.Status = StatusLaunchFailure
		res.Err = runCtx.Err()
		logger.Warn("Run cancelled.", "elapsed", res.Duration)
	case err != nil:
		res.Status = StatusLaunchFailure
		res.Err = err
		logger.Error("Launch failed.", "error", err)
	case code != 0:
		res.Status = StatusRuntimeFailure
		res.ExitCode = code
		logger.Error("Entry point exited nonzero.", "exit_code", code, "elapsed", res.Duration)
	default:
		res.Status = StatusSuccess
		res.ExitCode = 0
		res.ArtifactPath = l.artifactPath(cfg)
		logger.Info("✅ Run finished", "elapsed", res.Duration, "artifact", res.ArtifactPath)
	}

	return res
}

func (l *Launcher) artifactPath(cfg *model.ExperimentConfig) string {
	name := artifact.Name(l.opts.SystemID, cfg)
	if l.opts.OutputDir == "" {
		return name
	}
	return filepath.Join(l.opts.OutputDir, name)
}

// StartError wraps an error that prevented the launch process from starting
// (e.g. the program is missing or resources are unschedulable).
type StartError struct {
	Inner error
}

func (e *StartError) Error() string {
	return "failed to start launch process: " + e.Inner.Error()
}

func (e *StartError) Unwrap() error {
	return e.Inner
}

func isStartError(err error) bool {
	var se *StartError
	return errors.As(err, &se)
}
