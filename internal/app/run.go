package app

import (
	"context"
	"fmt"

	"github.com/juelinl/pebble/internal/ctxlog"
	"github.com/juelinl/pebble/internal/launcher"
	"github.com/juelinl/pebble/internal/sequencer"
	"github.com/juelinl/pebble/internal/topology"
)

// RunsFailedError reports a sweep that validated and ran, but in which one
// or more entries failed. It carries the counts the operator needs to tell
// partial failure from a sweep that never started.
type RunsFailedError struct {
	Failed    int
	Attempted int
	Total     int
}

func (e *RunsFailedError) Error() string {
	return fmt.Sprintf("%d of %d attempted runs failed (%d total entries)",
		e.Failed, e.Attempted, e.Total)
}

// Run executes the loaded sweep. Validation failures surface as a
// *sequencer.ValidationError before anything launches; completed-but-failed
// runs surface as a *RunsFailedError. Cancellation of ctx propagates into
// the in-flight launch.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	l := launcher.New(launcher.Options{
		Program:   a.config.Entrypoint,
		Script:    a.config.Script,
		OutputDir: a.config.OutputDir,
		Timeout:   a.config.Timeout,
		SystemID:  a.config.SystemID,
	}, a.sweep.Env)

	policy, err := sequencer.ParseFailurePolicy(a.config.OnFailure)
	if err != nil {
		return err
	}

	if a.config.DryRun {
		return a.dryRun(ctx, l)
	}

	a.seq = sequencer.New(a.config.SystemID, l, policy)
	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer func() {
			_ = a.closeHealthcheckServer()
		}()
	}

	res, err := a.seq.Run(ctx, a.sweep)
	if err != nil {
		return err
	}

	if res.Failed > 0 {
		return &RunsFailedError{Failed: res.Failed, Attempted: res.Attempted, Total: res.Total}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// dryRun validates the sweep and prints every invocation that would launch,
// without claiming any resources.
func (a *App) dryRun(ctx context.Context, l *launcher.Launcher) error {
	a.logger.Info("Dry run: resolving and printing invocations, launching nothing.")

	if err := sequencer.Validate(a.config.SystemID, a.sweep); err != nil {
		return err
	}

	for i, cfg := range a.sweep.Entries {
		topo, err := topology.Resolve(cfg.NumHost, cfg.GPUPerHost)
		if err != nil {
			return err
		}
		inv := l.Invocation(cfg, topo)
		fmt.Fprintf(a.outW, "[%d] %s\n", i, inv.String())
		for _, kv := range inv.Env {
			fmt.Fprintf(a.outW, "    env %s\n", kv)
		}
	}
	return nil
}
