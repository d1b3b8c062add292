package sandbox

import (
	"context"
	"time"
)

// NewRunner picks the best available runner: Docker when the daemon is
// reachable, the local process-group runner otherwise.
func NewRunner(cfg RunnerConfig) Runner {
	docker, err := NewDockerRunner(cfg)
	if err != nil {
		return NewLocalRunner(cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := docker.Ping(ctx); err != nil {
		_ = docker.Close()
		return NewLocalRunner(cfg)
	}
	return docker
}

// IsDockerAvailable checks if Docker is available and accessible.
func IsDockerAvailable() bool {
	docker, err := NewDockerRunner(DefaultRunnerConfig())
	if err != nil {
		return false
	}
	defer docker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return docker.Ping(ctx) == nil
}
