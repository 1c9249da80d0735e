package launcher

import (
	"strconv"
	"strings"

	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/topology"
)

// Invocation is the fully rendered command for one distributed launch. It is
// ephemeral: built per run, handed to the command runner, then discarded.
type Invocation struct {
	Program string
	Args    []string
	Env     []string
}

// Argv returns the complete command line, program included, mainly for
// logging and dry-run output.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.Program}, inv.Args...)
}

// String renders the invocation as a shell-like line for logs.
func (inv *Invocation) String() string {
	return strings.Join(inv.Argv(), " ")
}

// newInvocation encodes an experiment and its resolved topology into the
// training entry point's argument surface. The same inputs always produce
// the same argv; the entry point relies on that for idempotent re-runs.
func newInvocation(opts Options, cfg *model.ExperimentConfig, topo topology.Topology, env model.LaunchEnv, artifactPath string) *Invocation {
	args := []string{
		"--nnodes", strconv.Itoa(topo.Nodes),
		"--nproc-per-node", strconv.Itoa(topo.WorkersPerNode),
	}
	if topo.Nodes > 1 {
		args = append(args, "--rdzv-backend", "c10d")
	}
	args = append(args, opts.Script)

	args = append(args,
		"--data_dir", cfg.DataDir,
		"--graph_name", cfg.Dataset,
		"--fanouts", joinFanouts(cfg.Fanouts),
		"--model", string(cfg.Model),
		"--hid_size", strconv.Itoa(cfg.HiddenSize),
		"--num_epoch", strconv.Itoa(cfg.NumEpoch),
		"--batch_size", strconv.Itoa(cfg.BatchSize),
		"--sample_mode", cfg.SampleMode,
		"--lr", formatFloat(cfg.LR),
		"--weight_decay", formatFloat(cfg.WeightDecay),
		"--dropout", formatFloat(cfg.Dropout),
	)
	if cfg.Model.Attentional() {
		args = append(args, "--num_head", strconv.Itoa(cfg.NumHead))
	}
	if cfg.Eval {
		args = append(args, "--eval")
	} else {
		args = append(args, "--no-eval")
	}
	args = append(args, "--log_file", artifactPath)

	return &Invocation{
		Program: opts.Program,
		Args:    args,
		Env:     env.Environ(),
	}
}

// joinFanouts serializes a fanout schedule the way the entry point parses it:
// a comma-delimited list, e.g. "15,15,15".
func joinFanouts(fanouts []int) string {
	parts := make([]string, len(fanouts))
	for i, f := range fanouts {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
