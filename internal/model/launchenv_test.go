package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLaunchEnvEnviron(t *testing.T) {
	t.Run("empty settings produce no pairs", func(t *testing.T) {
		assert.Empty(t, LaunchEnv{}.Environ())
	})

	t.Run("allocator setting", func(t *testing.T) {
		env := LaunchEnv{CudaAllocConf: "expandable_segments:True"}
		assert.Equal(t, []string{"PYTORCH_CUDA_ALLOC_CONF=expandable_segments:True"}, env.Environ())
	})

	t.Run("debug verbosity fans out to both frameworks", func(t *testing.T) {
		env := LaunchEnv{DistDebug: "INFO"}
		assert.Equal(t, []string{
			"TORCH_DISTRIBUTED_DEBUG=INFO",
			"NCCL_DEBUG=INFO",
		}, env.Environ())
	})
}
