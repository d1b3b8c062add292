package sandbox

import "time"

// Default runner configuration values.
const (
	DefaultImage        = "python:3.11-slim"
	DefaultInterpreter  = "python3"
	DefaultMemoryMB     = 512
	DefaultCPUPercent   = 1.0
	DefaultMaxProcesses = 100
	DefaultTimeout      = 180 * time.Second
	DefaultWorkDir      = "/workspace"
	MaxOutputBytes      = 1024 * 1024
)

// RunnerConfig holds configuration shared by the container and local runners.
type RunnerConfig struct {
	// Image is the container image used by the Docker runner.
	// Default: python:3.11-slim
	Image string

	// Interpreter launches the script, e.g. python3 or sh.
	Interpreter string

	// MemoryMB is the container memory limit in megabytes.
	MemoryMB int64

	// CPUPercent is the CPU limit as a fraction of one CPU.
	CPUPercent float64

	// MaxProcesses caps the PIDs inside the container.
	MaxProcesses int64

	// NetworkEnabled allows network access. Automation scripts need to
	// reach the target site, so this defaults to true.
	NetworkEnabled bool

	// WorkDir is the working directory inside the container; the per-run
	// directory is mounted there.
	WorkDir string

	// Timeout is the default cap for a script run when the spec does not
	// set one.
	Timeout time.Duration

	// MaxOutputBytes limits captured stdout/stderr per stream.
	MaxOutputBytes int
}

// DefaultRunnerConfig returns a RunnerConfig with sensible defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Image:          DefaultImage,
		Interpreter:    DefaultInterpreter,
		MemoryMB:       DefaultMemoryMB,
		CPUPercent:     DefaultCPUPercent,
		MaxProcesses:   DefaultMaxProcesses,
		NetworkEnabled: true,
		WorkDir:        DefaultWorkDir,
		Timeout:        DefaultTimeout,
		MaxOutputBytes: MaxOutputBytes,
	}
}

// WithImage returns a copy of the config with the specified image.
func (c RunnerConfig) WithImage(image string) RunnerConfig {
	c.Image = image
	return c
}

// WithInterpreter returns a copy of the config with the specified interpreter.
func (c RunnerConfig) WithInterpreter(interp string) RunnerConfig {
	c.Interpreter = interp
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c RunnerConfig) WithTimeout(timeout time.Duration) RunnerConfig {
	c.Timeout = timeout
	return c
}

// WithNetwork returns a copy of the config with network enabled or disabled.
func (c RunnerConfig) WithNetwork(enabled bool) RunnerConfig {
	c.NetworkEnabled = enabled
	return c
}

// Validate checks the configuration and applies defaults in place.
func (c *RunnerConfig) Validate() {
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.Interpreter == "" {
		c.Interpreter = DefaultInterpreter
	}
	if c.MemoryMB <= 0 {
		c.MemoryMB = DefaultMemoryMB
	}
	if c.CPUPercent <= 0 || c.CPUPercent > 4.0 {
		c.CPUPercent = DefaultCPUPercent
	}
	if c.MaxProcesses <= 0 {
		c.MaxProcesses = DefaultMaxProcesses
	}
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = MaxOutputBytes
	}
}
