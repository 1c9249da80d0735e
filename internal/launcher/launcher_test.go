package launcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts the command runner's behavior for one launch.
type fakeRunner struct {
	exitCode  int
	err       error
	blockCtx  bool // block until the context is done, like a hung run
	cleanExit bool // with blockCtx: report a zero exit despite the done context
	lastInv   *Invocation
	callCount int
}

func (f *fakeRunner) Run(ctx context.Context, inv *Invocation) (int, error) {
	f.callCount++
	f.lastInv = inv
	if f.blockCtx {
		<-ctx.Done()
		if f.cleanExit {
			return 0, nil
		}
		return -1, ctx.Err()
	}
	return f.exitCode, f.err
}

func launchTopo(t *testing.T) topology.Topology {
	t.Helper()
	topo, err := topology.Resolve(1, 4)
	require.NoError(t, err)
	return topo
}

func TestLaunch(t *testing.T) {
	opts := Options{Program: "torchrun", Script: "train.py", SystemID: "dgl", OutputDir: "/tmp/logs"}

	t.Run("success", func(t *testing.T) {
		runner := &fakeRunner{exitCode: 0}
		l := NewWithRunner(opts, model.LaunchEnv{}, runner)

		res := l.Launch(context.Background(), sageConfig(), launchTopo(t))
		assert.Equal(t, StatusSuccess, res.Status)
		assert.False(t, res.Failed())
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "/tmp/logs/dgl-orkut-h512-n1.json", res.ArtifactPath)
		assert.NoError(t, res.Err)
		assert.Equal(t, 1, runner.callCount)
	})

	t.Run("nonzero exit is a runtime failure with the verbatim code", func(t *testing.T) {
		runner := &fakeRunner{exitCode: 137}
		l := NewWithRunner(opts, model.LaunchEnv{}, runner)

		res := l.Launch(context.Background(), sageConfig(), launchTopo(t))
		assert.Equal(t, StatusRuntimeFailure, res.Status)
		assert.True(t, res.Failed())
		assert.Equal(t, 137, res.ExitCode)
		assert.Empty(t, res.ArtifactPath)
	})

	t.Run("start failure has no exit code", func(t *testing.T) {
		runner := &fakeRunner{exitCode: -1, err: &StartError{Inner: errors.New("no such file")}}
		l := NewWithRunner(opts, model.LaunchEnv{}, runner)

		res := l.Launch(context.Background(), sageConfig(), launchTopo(t))
		assert.Equal(t, StatusLaunchFailure, res.Status)
		assert.Equal(t, -1, res.ExitCode)
		require.Error(t, res.Err)
	})

	t.Run("timeout terminates the run", func(t *testing.T) {
		timeoutOpts := opts
		timeoutOpts.Timeout = 20 * time.Millisecond
		runner := &fakeRunner{blockCtx: true}
		l := NewWithRunner(timeoutOpts, model.LaunchEnv{}, runner)

		start := time.Now()
		res := l.Launch(context.Background(), sageConfig(), launchTopo(t))
		assert.Equal(t, StatusTimeoutFailure, res.Status)
		assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("a clean exit at the deadline is not a timeout", func(t *testing.T) {
		timeoutOpts := opts
		timeoutOpts.Timeout = 20 * time.Millisecond
		runner := &fakeRunner{blockCtx: true, cleanExit: true}
		l := NewWithRunner(timeoutOpts, model.LaunchEnv{}, runner)

		res := l.Launch(context.Background(), sageConfig(), launchTopo(t))
		assert.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, 0, res.ExitCode)
		assert.NoError(t, res.Err)
	})

	t.Run("external cancellation is not misreported as timeout", func(t *testing.T) {
		runner := &fakeRunner{blockCtx: true}
		l := NewWithRunner(opts, model.LaunchEnv{}, runner)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		res := l.Launch(ctx, sageConfig(), launchTopo(t))
		assert.Equal(t, StatusLaunchFailure, res.Status)
		assert.ErrorIs(t, res.Err, context.Canceled)
	})

	t.Run("result snapshots config and topology", func(t *testing.T) {
		runner := &fakeRunner{exitCode: 0}
		l := NewWithRunner(opts, model.LaunchEnv{}, runner)

		cfg := sageConfig()
		topo := launchTopo(t)
		res := l.Launch(context.Background(), cfg, topo)
		assert.Equal(t, cfg, res.Config)
		assert.Equal(t, topo, res.Topology)
		assert.Equal(t, "orkut-sage", res.Entry)
	})
}
