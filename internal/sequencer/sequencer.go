// Package sequencer drives a sweep: it validates every entry up front,
// launches entries strictly one at a time in sweep order, applies the
// configured failure policy, and accumulates the ordered result list.
package sequencer

import (
	"context"
	"fmt"
	"sync"

	"github.com/juelinl/pebble/internal/ctxlog"
	"github.com/juelinl/pebble/internal/launcher"
	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/topology"
)

// FailurePolicy decides whether a failed run stops the sweep.
type FailurePolicy string

const (
	AbortOnFirstFailure FailurePolicy = "abort"
	ContinueOnFailure   FailurePolicy = "continue"
)

// ParseFailurePolicy validates a user-supplied policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case AbortOnFirstFailure, ContinueOnFailure:
		return FailurePolicy(s), nil
	}
	return "", fmt.Errorf("unknown failure policy %q (supported: abort, continue)", s)
}

// State is the sequencer's lifecycle position.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateValidationFailed State = "validation_failed"
	StateRunning          State = "running"
	StateDone             State = "done"
)

// Progress is a point-in-time snapshot for observers such as the health
// endpoint. It is safe to call from other goroutines.
type Progress struct {
	State     State `json:"state"`
	Attempted int   `json:"attempted"`
	Total     int   `json:"total"`
}

// SweepResult is the aggregate outcome of one sweep. Results appear in exact
// sweep order; an entry that was never attempted has no result, and the
// counts make that absence explicit.
type SweepResult struct {
	State     State
	Total     int
	Attempted int
	Succeeded int
	Failed    int
	Results   []launcher.RunResult
}

// PartiallyCompleted reports whether the sweep stopped before attempting
// every entry.
func (r *SweepResult) PartiallyCompleted() bool {
	return r.Attempted < r.Total
}

// JobLauncher is the sequencer's view of the launcher. Launch must block
// until the whole worker set for the run has terminated.
type JobLauncher interface {
	Launch(ctx context.Context, cfg *model.ExperimentConfig, topo topology.Topology) launcher.RunResult
}

// Sequencer owns one sweep execution. It is single-use: create one per sweep.
type Sequencer struct {
	systemID string
	launcher JobLauncher
	policy   FailurePolicy

	mu        sync.Mutex
	state     State
	attempted int
	total     int
}

// New creates a sequencer in the Idle state.
func New(systemID string, l JobLauncher, policy FailurePolicy) *Sequencer {
	return &Sequencer{
		systemID: systemID,
		launcher: l,
		policy:   policy,
		state:    StateIdle,
	}
}

// Progress returns a snapshot of the sequencer's current position.
func (s *Sequencer) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress{State: s.state, Attempted: s.attempted, Total: s.total}
}

func (s *Sequencer) transition(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run executes the sweep. Any validation failure aborts before a single
// launch, returning a *ValidationError carrying every violation found. After
// that, entries run strictly sequentially: each holds the full declared
// accelerator set, so no two runs may ever overlap. Cancelling ctx terminates
// the in-flight launch; completed results are preserved in the returned
// SweepResult alongside ctx.Err().
func (s *Sequencer) Run(ctx context.Context, sweep *model.Sweep) (*SweepResult, error) {
	logger := ctxlog.FromContext(ctx)

	res := &SweepResult{Total: sweep.Len()}
	s.mu.Lock()
	s.total = sweep.Len()
	s.mu.Unlock()

	s.transition(StateValidating)
	logger.Info("Validating sweep before execution.", "entries", sweep.Len())
	if err := Validate(s.systemID, sweep); err != nil {
		s.transition(StateValidationFailed)
		res.State = StateValidationFailed
		logger.Error("Sweep validation failed; nothing was launched.", "error", err)
		return res, err
	}
	logger.Info("✅ Sweep validated", "entries", sweep.Len())

	s.transition(StateRunning)
	for i, cfg := range sweep.Entries {
		if ctx.Err() != nil {
			logger.Warn("Sweep cancelled before entry.", "index", i, "experiment", cfg.Name)
			res.State = StateDone
			s.transition(StateDone)
			return res, ctx.Err()
		}

		// Both resolutions were validated above and cannot fail here.
		topo, err := topology.Resolve(cfg.NumHost, cfg.GPUPerHost)
		if err != nil {
			res.State = StateDone
			s.transition(StateDone)
			return res, fmt.Errorf("entry %d resolved differently after validation: %w", i, err)
		}

		logger.Info("▶️ Starting sweep entry", "index", i, "experiment", cfg.Name)
		runRes := s.launcher.Launch(ctx, cfg, topo)
		res.Results = append(res.Results, runRes)
		res.Attempted++
		s.mu.Lock()
		s.attempted = res.Attempted
		s.mu.Unlock()

		if runRes.Failed() {
			res.Failed++
			if s.policy == AbortOnFirstFailure {
				logger.Warn("Aborting sweep on first failure.",
					"index", i, "experiment", cfg.Name, "status", runRes.Status)
				break
			}
			continue
		}
		res.Succeeded++
	}

	res.State = StateDone
	s.transition(StateDone)

	logger.Info("🏁 Sweep finished",
		"total", res.Total, "attempted", res.Attempted,
		"succeeded", res.Succeeded, "failed", res.Failed)

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}
