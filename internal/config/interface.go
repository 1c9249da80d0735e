// Package config declares the format-agnostic loading contract for sweep
// definitions. Concrete formats (HCL, YAML) live in their own packages and
// all translate into the shared model.
package config

import (
	"context"

	"github.com/juelinl/pebble/internal/model"
)

// Loader is the interface for a format-specific sweep-definition loader.
type Loader interface {
	// Load reads sweep files from a path (a single file or a directory),
	// applies the defaults block, and returns the ordered sweep model.
	// Loaders shape and type-check the input; cross-field invariants are
	// the sequencer's validation concern.
	Load(ctx context.Context, path string) (*model.Sweep, error)
}
