package launcher

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sageConfig() *model.ExperimentConfig {
	cfg := &model.ExperimentConfig{
		Name:       "orkut-sage",
		Dataset:    "orkut",
		Fanouts:    []int{10, 10, 10},
		Model:      model.FamilySAGE,
		HiddenSize: 512,
		NumEpoch:   10,
		DataDir:    "/data/gnn",
		NumHost:    1,
		GPUPerHost: 4,
		Eval:       true,
	}
	cfg.ApplyHyperparamDefaults()
	return cfg
}

func TestNewInvocation(t *testing.T) {
	opts := Options{Program: "torchrun", Script: "train.py", SystemID: "quiver-p2p"}

	t.Run("encodes the full entry-point contract", func(t *testing.T) {
		topo, err := topology.Resolve(1, 4)
		require.NoError(t, err)

		inv := newInvocation(opts, sageConfig(), topo, model.LaunchEnv{}, "quiver-p2p-orkut-h512-n1.json")

		want := []string{
			"torchrun",
			"--nnodes", "1",
			"--nproc-per-node", "4",
			"train.py",
			"--data_dir", "/data/gnn",
			"--graph_name", "orkut",
			"--fanouts", "10,10,10",
			"--model", "sage",
			"--hid_size", "512",
			"--num_epoch", "10",
			"--batch_size", "1024",
			"--sample_mode", "gpu",
			"--lr", "0.005",
			"--weight_decay", "0.0005",
			"--dropout", "0.5",
			"--eval",
			"--log_file", "quiver-p2p-orkut-h512-n1.json",
		}
		if diff := cmp.Diff(want, inv.Argv()); diff != "" {
			t.Errorf("argv mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("multi-node launches add a rendezvous backend", func(t *testing.T) {
		topo, err := topology.Resolve(2, 4)
		require.NoError(t, err)

		inv := newInvocation(opts, sageConfig(), topo, model.LaunchEnv{}, "out.json")
		assert.Contains(t, inv.Args, "--rdzv-backend")
		assert.Contains(t, inv.Args, "c10d")
	})

	t.Run("attention head count only for attentional families", func(t *testing.T) {
		topo, _ := topology.Resolve(1, 4)

		sage := newInvocation(opts, sageConfig(), topo, model.LaunchEnv{}, "out.json")
		assert.NotContains(t, sage.Args, "--num_head")

		gatCfg := sageConfig()
		gatCfg.Model = model.FamilyGAT
		gat := newInvocation(opts, gatCfg, topo, model.LaunchEnv{}, "out.json")
		assert.Contains(t, gat.Args, "--num_head")
	})

	t.Run("eval toggle", func(t *testing.T) {
		topo, _ := topology.Resolve(1, 4)

		cfg := sageConfig()
		cfg.Eval = false
		inv := newInvocation(opts, cfg, topo, model.LaunchEnv{}, "out.json")
		assert.Contains(t, inv.Args, "--no-eval")
		assert.NotContains(t, inv.Args, "--eval")
	})

	t.Run("per-run environment is attached, not global", func(t *testing.T) {
		topo, _ := topology.Resolve(1, 4)
		env := model.LaunchEnv{CudaAllocConf: "expandable_segments:True", DistDebug: "WARN"}

		inv := newInvocation(opts, sageConfig(), topo, env, "out.json")
		assert.Contains(t, inv.Env, "PYTORCH_CUDA_ALLOC_CONF=expandable_segments:True")
		assert.Contains(t, inv.Env, "NCCL_DEBUG=WARN")
	})

	t.Run("identical inputs render identical argv", func(t *testing.T) {
		topo, _ := topology.Resolve(1, 4)
		a := newInvocation(opts, sageConfig(), topo, model.LaunchEnv{}, "out.json")
		b := newInvocation(opts, sageConfig(), topo, model.LaunchEnv{}, "out.json")
		assert.Equal(t, a.Argv(), b.Argv())
	})
}

func TestJoinFanouts(t *testing.T) {
	assert.Equal(t, "15,15,15", joinFanouts([]int{15, 15, 15}))
	assert.Equal(t, "25,10", joinFanouts([]int{25, 10}))
	assert.Equal(t, "", joinFanouts(nil))
}
