package model

// Sweep is an ordered batch of experiment configurations executed under one
// failure policy. Entry order is execution order; loaders must preserve the
// order entries appear in the sweep definition.
type Sweep struct {
	Entries []*ExperimentConfig

	// Env holds launch environment settings shared by every entry in the
	// sweep. They are attached to each invocation individually rather than
	// exported into the orchestrator's own process environment.
	Env LaunchEnv
}

// NewSweep creates an empty sweep.
func NewSweep() *Sweep {
	return &Sweep{Entries: []*ExperimentConfig{}}
}

// Len returns the number of entries in the sweep.
func (s *Sweep) Len() int {
	return len(s.Entries)
}
