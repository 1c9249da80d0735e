// Package topology resolves a cluster description into concrete distributed
// launch parameters and validates experiment configurations against it.
package topology

import (
	"fmt"

	"github.com/juelinl/pebble/internal/model"
)

// Topology is the derived worker/process layout for one run. Every node runs
// the same number of workers; heterogeneous layouts are not supported.
type Topology struct {
	Workers        int
	Nodes          int
	WorkersPerNode int
}

// InvalidTopologyError reports a non-positive host or accelerator count.
type InvalidTopologyError struct {
	NumHost    int
	GPUPerHost int
}

func (e *InvalidTopologyError) Error() string {
	return fmt.Sprintf("invalid topology: num_host=%d, gpu_per_host=%d (both must be positive)",
		e.NumHost, e.GPUPerHost)
}

// ConfigMismatchError reports a fanout schedule whose length does not match
// the model family's expected hop count.
type ConfigMismatchError struct {
	Entry   string
	Model   model.ModelFamily
	Fanouts int
	Hops    int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("experiment %q: fanout schedule has %d hops but model %q expects %d",
		e.Entry, e.Fanouts, e.Model, e.Hops)
}

// Resolve converts a cluster description into launch parameters. It is a pure
// function; no upper bound on cluster size is enforced here.
func Resolve(numHost, gpuPerHost int) (Topology, error) {
	if numHost <= 0 || gpuPerHost <= 0 {
		return Topology{}, &InvalidTopologyError{NumHost: numHost, GPUPerHost: gpuPerHost}
	}
	return Topology{
		Workers:        numHost * gpuPerHost,
		Nodes:          numHost,
		WorkersPerNode: gpuPerHost,
	}, nil
}

// ValidateExperiment checks the cross-field invariants of a single entry
// before any launch is attempted: the fanout schedule must match the model
// family's hop count, every fanout must be positive, and the scalar training
// parameters must be positive.
func ValidateExperiment(cfg *model.ExperimentConfig) error {
	if _, err := model.ParseModelFamily(string(cfg.Model)); err != nil {
		return fmt.Errorf("experiment %q: %w", cfg.Name, err)
	}
	if len(cfg.Fanouts) != cfg.Model.Hops() {
		return &ConfigMismatchError{
			Entry:   cfg.Name,
			Model:   cfg.Model,
			Fanouts: len(cfg.Fanouts),
			Hops:    cfg.Model.Hops(),
		}
	}
	for i, f := range cfg.Fanouts {
		if f <= 0 {
			return fmt.Errorf("experiment %q: fanout[%d] = %d, must be positive", cfg.Name, i, f)
		}
	}
	if cfg.HiddenSize <= 0 {
		return fmt.Errorf("experiment %q: hidden_size = %d, must be positive", cfg.Name, cfg.HiddenSize)
	}
	if cfg.NumEpoch <= 0 {
		return fmt.Errorf("experiment %q: num_epoch = %d, must be positive", cfg.Name, cfg.NumEpoch)
	}
	if cfg.Dataset == "" {
		return fmt.Errorf("experiment %q: dataset must not be empty", cfg.Name)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("experiment %q: data_dir must not be empty", cfg.Name)
	}
	return nil
}
