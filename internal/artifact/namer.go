// Package artifact derives the deterministic result-log name for each run
// and enforces the sweep-wide uniqueness invariant before anything launches.
package artifact

import (
	"errors"
	"fmt"
	"sort"

	"github.com/juelinl/pebble/internal/model"
)

// DuplicateNameError reports one artifact name claimed by two or more sweep
// entries. Indices are positions in the sweep's entry list.
type DuplicateNameError struct {
	ArtifactName string
	Indices      []int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("artifact name %q is produced by sweep entries %v; runs would overwrite each other's logs",
		e.ArtifactName, e.Indices)
}

// Name derives the artifact name for one run. It is a pure function of the
// system identifier, dataset, hidden size and host count; entries differing
// only in epoch budget or fanouts collide on purpose and are caught by
// ValidateUniqueness. An explicit log_file in the sweep entry wins.
func Name(systemID string, cfg *model.ExperimentConfig) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	return fmt.Sprintf("%s-%s-h%d-n%d.json", systemID, cfg.Dataset, cfg.HiddenSize, cfg.NumHost)
}

// ValidateUniqueness scans the whole sweep and fails if any artifact name
// would be produced by more than one entry. Every collision is reported, not
// just the first, so a sweep author can fix them in one pass.
func ValidateUniqueness(systemID string, sweep *model.Sweep) error {
	byName := make(map[string][]int)
	for i, cfg := range sweep.Entries {
		name := Name(systemID, cfg)
		byName[name] = append(byName[name], i)
	}

	var names []string
	for name, indices := range byName {
		if len(indices) > 1 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, &DuplicateNameError{ArtifactName: name, Indices: byName[name]})
	}
	return errors.Join(errs...)
}
