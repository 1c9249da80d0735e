package model

// LaunchEnv captures environment settings that shape the training framework's
// behavior for a single run: the CUDA caching-allocator configuration and the
// distributed-debug verbosity. They are scoped per invocation so two runs
// with different needs can coexist in one orchestrator process.
type LaunchEnv struct {
	// CudaAllocConf is forwarded as PYTORCH_CUDA_ALLOC_CONF,
	// e.g. "expandable_segments:True".
	CudaAllocConf string

	// DistDebug is forwarded as TORCH_DISTRIBUTED_DEBUG and NCCL_DEBUG,
	// e.g. "INFO" or "WARN".
	DistDebug string
}

// Environ renders the settings as KEY=VALUE pairs suitable for exec.Cmd.Env.
// Unset fields produce no pair, leaving the entry point's own defaults alone.
func (e LaunchEnv) Environ() []string {
	var env []string
	if e.CudaAllocConf != "" {
		env = append(env, "PYTORCH_CUDA_ALLOC_CONF="+e.CudaAllocConf)
	}
	if e.DistDebug != "" {
		env = append(env, "TORCH_DISTRIBUTED_DEBUG="+e.DistDebug)
		env = append(env, "NCCL_DEBUG="+e.DistDebug)
	}
	return env
}
