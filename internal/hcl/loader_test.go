package hcl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/juelinl/pebble/internal/model"
	"github.com/juelinl/pebble/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicSweep = `
defaults {
  data_dir = "/data/gnn"
  num_host = 1
  num_gpu  = 4
  num_epoch = 10

  env {
    cuda_alloc_conf = "expandable_segments:True"
    dist_debug      = "WARN"
  }
}

experiment "orkut-sage" {
  dataset     = "orkut"
  model       = "sage"
  fanouts     = [10, 10, 10]
  hidden_size = 512
}

experiment "reddit-gcn" {
  dataset     = "reddit"
  model       = "gcn"
  fanouts     = [25, 10]
  hidden_size = 256
  num_host    = 2
  lr          = 0.01
  eval        = false
}
`

func load(t *testing.T, files map[string]string) (*model.Sweep, error) {
	t.Helper()
	dir := testutil.WriteSweepFiles(t, files)
	return NewLoader().Load(context.Background(), dir)
}

func TestLoad(t *testing.T) {
	t.Run("parses entries in declaration order", func(t *testing.T) {
		sweep, err := load(t, map[string]string{"sweep.hcl": basicSweep})
		require.NoError(t, err)
		require.Equal(t, 2, sweep.Len())
		assert.Equal(t, "orkut-sage", sweep.Entries[0].Name)
		assert.Equal(t, "reddit-gcn", sweep.Entries[1].Name)
	})

	t.Run("defaults apply and experiments override", func(t *testing.T) {
		sweep, err := load(t, map[string]string{"sweep.hcl": basicSweep})
		require.NoError(t, err)

		first := sweep.Entries[0]
		assert.Equal(t, "/data/gnn", first.DataDir)
		assert.Equal(t, 1, first.NumHost)
		assert.Equal(t, 4, first.GPUPerHost)
		assert.Equal(t, 10, first.NumEpoch)
		assert.Equal(t, []int{10, 10, 10}, first.Fanouts)
		assert.Equal(t, model.FamilySAGE, first.Model)
		assert.True(t, first.Eval)

		second := sweep.Entries[1]
		assert.Equal(t, 2, second.NumHost, "experiment overrides default")
		assert.Equal(t, 4, second.GPUPerHost, "untouched default survives")
		assert.Equal(t, 0.01, second.LR)
		assert.False(t, second.Eval)
	})

	t.Run("hyperparameter defaults are filled", func(t *testing.T) {
		sweep, err := load(t, map[string]string{"sweep.hcl": basicSweep})
		require.NoError(t, err)
		assert.Equal(t, model.DefaultBatchSize, sweep.Entries[0].BatchSize)
		assert.Equal(t, model.DefaultLR, sweep.Entries[0].LR)
		assert.Equal(t, model.DefaultSampleMode, sweep.Entries[0].SampleMode)
	})

	t.Run("env block becomes the sweep launch environment", func(t *testing.T) {
		sweep, err := load(t, map[string]string{"sweep.hcl": basicSweep})
		require.NoError(t, err)
		assert.Equal(t, "expandable_segments:True", sweep.Env.CudaAllocConf)
		assert.Equal(t, "WARN", sweep.Env.DistDebug)
	})

	t.Run("multiple files append in lexical file order", func(t *testing.T) {
		sweep, err := load(t, map[string]string{
			"a_first.hcl": `
experiment "alpha" {
  dataset = "orkut"
  model   = "sage"
  fanouts = [5, 5, 5]
  data_dir = "/data"
  hidden_size = 64
  num_epoch = 1
  num_host = 1
  num_gpu = 1
}`,
			"b_second.hcl": `
experiment "beta" {
  dataset = "reddit"
  model   = "sage"
  fanouts = [5, 5, 5]
  data_dir = "/data"
  hidden_size = 64
  num_epoch = 1
  num_host = 1
  num_gpu = 1
}`,
		})
		require.NoError(t, err)
		require.Equal(t, 2, sweep.Len())
		assert.Equal(t, "alpha", sweep.Entries[0].Name)
		assert.Equal(t, "beta", sweep.Entries[1].Name)
	})

	t.Run("loads a single file path directly", func(t *testing.T) {
		dir := testutil.WriteSweepFiles(t, map[string]string{"sweep.hcl": basicSweep})
		sweep, err := NewLoader().Load(context.Background(), filepath.Join(dir, "sweep.hcl"))
		require.NoError(t, err)
		assert.Equal(t, 2, sweep.Len())
	})

	t.Run("rejects unsupported attributes", func(t *testing.T) {
		_, err := load(t, map[string]string{"sweep.hcl": `
experiment "x" {
  dataset = "orkut"
  model   = "sage"
  fanouts = [5, 5, 5]
  learning_rate = 0.1
}`})
		require.Error(t, err)
		assert.ErrorContains(t, err, `unsupported attribute "learning_rate"`)
	})

	t.Run("rejects missing required attributes", func(t *testing.T) {
		_, err := load(t, map[string]string{"sweep.hcl": `
experiment "x" {
  dataset = "orkut"
  model   = "sage"
}`})
		require.Error(t, err)
		assert.ErrorContains(t, err, `missing required attribute "fanouts"`)
	})

	t.Run("rejects a second defaults block", func(t *testing.T) {
		_, err := load(t, map[string]string{"sweep.hcl": `
defaults { num_host = 1 }
defaults { num_host = 2 }
experiment "x" {
  dataset = "orkut"
  model = "sage"
  fanouts = [5, 5, 5]
}`})
		require.Error(t, err)
		assert.ErrorContains(t, err, "duplicate defaults block")
	})

	t.Run("rejects malformed HCL", func(t *testing.T) {
		_, err := load(t, map[string]string{"sweep.hcl": `experiment "x" {`})
		require.Error(t, err)
	})

	t.Run("errors when no sweep files exist", func(t *testing.T) {
		dir := testutil.WriteSweepFiles(t, map[string]string{"readme.md": "nothing here"})
		_, err := NewLoader().Load(context.Background(), dir)
		require.Error(t, err)
		assert.ErrorContains(t, err, "no .hcl sweep files")
	})
}
