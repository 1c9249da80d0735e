package sequencer

import (
	"errors"
	"fmt"

	"github.com/juelinl/pebble/internal/artifact"
	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/topology"
)

// ValidationError aggregates every violation found in a sweep. It is
// returned before any resource is claimed so the author can fix the whole
// sweep in one pass.
type ValidationError struct {
	Issues []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sweep validation failed with %d issue(s):\n%v",
		len(e.Issues), errors.Join(e.Issues...))
}

// Unwrap exposes the joined issues to errors.Is / errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Issues
}

// Validate checks the whole sweep: per-entry topology and fanout/model
// consistency, then sweep-wide artifact-name uniqueness. All violations are
// collected, not just the first.
func Validate(systemID string, sweep *model.Sweep) error {
	var issues []error

	for i, cfg := range sweep.Entries {
		if _, err := topology.Resolve(cfg.NumHost, cfg.GPUPerHost); err != nil {
			issues = append(issues, fmt.Errorf("entry %d (%s): %w", i, cfg.Name, err))
		}
		if err := topology.ValidateExperiment(cfg); err != nil {
			issues = append(issues, fmt.Errorf("entry %d: %w", i, err))
		}
	}

	if err := artifact.ValidateUniqueness(systemID, sweep); err != nil {
		issues = append(issues, err)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
