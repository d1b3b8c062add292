// Package sandbox runs generated automation scripts in isolated child
// processes, either inside a throwaway container or as a local process group
// that can be killed as a unit.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Environment variables passed to every script run. The script reports its
// outcome by writing a JSON document to the path in RESULT_FILE; everything
// else is advisory input.
const (
	EnvResultFile  = "RESULT_FILE"
	EnvBackend     = "BACKEND"
	EnvTargetURL   = "TARGET_URL"
	EnvArtifactDir = "ARTIFACT_DIR"
)

// Spec describes one script run.
type Spec struct {
	// ScriptPath is the script on the host filesystem.
	ScriptPath string

	// RunDir is the per-run working directory. The result file and any
	// artifacts land here.
	RunDir string

	// ResultFile is where the script must write its JSON outcome.
	ResultFile string

	// ArtifactDir receives screenshots and other files the script saves.
	ArtifactDir string

	// Backend names the browser the script should drive.
	Backend string

	// TargetURL is the page under automation.
	TargetURL string

	// Timeout caps the run. Zero means the runner's default.
	Timeout time.Duration
}

// Execution is what actually happened at the process level. Script-level
// success or failure lives in the result file, not here.
type Execution struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Elapsed  time.Duration
}

// Runner executes a script spec to completion, timeout, or infrastructure
// failure. Implementations must guarantee that no child processes survive a
// timeout.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Execution, error)
	Name() string
	Close() error
}

// RunResult is the JSON document a script writes to its result file.
type RunResult struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error,omitempty"`
	Logs        []string `json:"logs,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
}

// ReadResultFile loads and parses a script's result file. A missing or
// unparseable file is an error the caller records as a failed attempt, never
// a crash.
func ReadResultFile(path string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("result file not found: %w", err)
	}
	var res RunResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("result file corrupt: %w", err)
	}
	return &res, nil
}

func (s Spec) env() []string {
	return []string{
		EnvResultFile + "=" + s.ResultFile,
		EnvBackend + "=" + s.Backend,
		EnvTargetURL + "=" + s.TargetURL,
		EnvArtifactDir + "=" + s.ArtifactDir,
	}
}
