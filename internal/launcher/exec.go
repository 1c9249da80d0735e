package launcher

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/juelinl/pebble/internal/ctxlog"
)

// teardownGrace bounds how long a cancelled launch gets to reap its own
// workers before the whole group is killed outright.
const teardownGrace = 10 * time.Second

// execRunner executes invocations with os/exec. The launch process inherits
// the orchestrator's environment plus the per-run settings, and its output
// streams pass straight through so training logs stay visible.
//
// The launch runs as the leader of its own process group. Cancellation must
// terminate every worker the launch spawned, not just the leader, so the
// cancel path signals the group: SIGTERM first, giving the launch program a
// chance to reap its workers, then SIGKILL to the group once the grace
// period is spent.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, inv *Invocation) (int, error) {
	logger := ctxlog.FromContext(ctx)

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	cmd.WaitDelay = teardownGrace

	if err := cmd.Start(); err != nil {
		return -1, &StartError{Inner: err}
	}
	logger.Debug("Launch process started.", "pid", cmd.Process.Pid)

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// The leader is gone; sweep up any worker that ignored SIGTERM.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		return -1, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, waitErr
	}
	return 0, nil
}
