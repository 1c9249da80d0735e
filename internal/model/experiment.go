package model

// Hyperparameter defaults mirror the training entry point's own argparse
// defaults, so a sweep file only states what it wants to deviate.
const (
	DefaultBatchSize   = 1024
	DefaultLR          = 5e-3
	DefaultWeightDecay = 5e-4
	DefaultDropout     = 0.5
	DefaultNumHead     = 4
	DefaultSampleMode  = "gpu"
)

// ExperimentConfig is one training run's full parameterization. It is a pure
// description: constructed once by a loader, immutable afterwards. Cross-field
// invariants (fanout length vs. model hops, positivity of the topology) are
// checked at resolution time by the topology package, not here.
type ExperimentConfig struct {
	// Name is the sweep-file label for the entry, used in logs and errors.
	Name string

	Dataset    string
	Fanouts    []int
	Model      ModelFamily
	HiddenSize int
	NumEpoch   int
	DataDir    string

	// Cluster shape for this run.
	NumHost    int
	GPUPerHost int

	// LogFile, when set, overrides the derived artifact name.
	LogFile string

	// Pass-through hyperparameters for the entry point.
	BatchSize   int
	LR          float64
	WeightDecay float64
	Dropout     float64
	NumHead     int
	SampleMode  string
	Eval        bool
}

// ApplyHyperparamDefaults fills zero-valued pass-through hyperparameters with
// the entry point's defaults. Loaders call this once per decoded entry.
func (c *ExperimentConfig) ApplyHyperparamDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.LR == 0 {
		c.LR = DefaultLR
	}
	if c.WeightDecay == 0 {
		c.WeightDecay = DefaultWeightDecay
	}
	if c.Dropout == 0 {
		c.Dropout = DefaultDropout
	}
	if c.NumHead == 0 {
		c.NumHead = DefaultNumHead
	}
	if c.SampleMode == "" {
		c.SampleMode = DefaultSampleMode
	}
}
