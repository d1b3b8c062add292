package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hkuds/upilot/internal/failure"
)

// LocalRunner executes scripts directly on the host with os/exec. The child
// is placed in its own process group so a timeout kills the whole tree,
// including any browser the script launched.
type LocalRunner struct {
	cfg RunnerConfig
}

// NewLocalRunner creates a LocalRunner. Defaults are applied to the config.
func NewLocalRunner(cfg RunnerConfig) *LocalRunner {
	cfg.Validate()
	return &LocalRunner{cfg: cfg}
}

func (r *LocalRunner) Name() string { return "local" }

func (r *LocalRunner) Close() error { return nil }

func (r *LocalRunner) Run(ctx context.Context, spec Spec) (*Execution, error) {
	if _, err := os.Stat(spec.ScriptPath); err != nil {
		return nil, failure.New(failure.SandboxFailure, fmt.Errorf("script missing: %w", err))
	}
	script, err := os.ReadFile(spec.ScriptPath)
	if err != nil {
		return nil, failure.New(failure.SandboxFailure, err)
	}
	if reason := GuardScript(string(script)); reason != "" {
		return nil, failure.Newf(failure.SandboxFailure, "script blocked: %s", reason)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(r.cfg.Interpreter, spec.ScriptPath)
	cmd.Dir = spec.RunDir
	cmd.Env = append(os.Environ(), spec.env()...)
	setProcAttrs(cmd)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdoutBuf, limit: r.cfg.MaxOutputBytes}
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: r.cfg.MaxOutputBytes}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, failure.New(failure.SandboxFailure, err)
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	timedOut := false
	select {
	case err = <-waitDone:
	case <-runCtx.Done():
		timedOut = true
		killTree(cmd)
		// Reap the child so it does not linger as a zombie.
		err = <-waitDone
	}
	elapsed := time.Since(start)

	res := &Execution{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode(err),
		TimedOut: timedOut,
		Elapsed:  elapsed,
	}

	if timedOut {
		return res, failure.Newf(failure.ExecutionTimeout, "script killed after %v", timeout)
	}
	if ctx.Err() != nil {
		return res, failure.New(failure.ExecutionTimeout, ctx.Err())
	}
	return res, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// limitedWriter caps captured output, silently discarding the excess.
type limitedWriter struct {
	w       *bytes.Buffer
	limit   int
	written int
}

func (lw *limitedWriter) Write(p []byte) (n int, err error) {
	originalLen := len(p)

	if lw.written >= lw.limit {
		return originalLen, nil
	}

	remaining := lw.limit - lw.written
	if len(p) > remaining {
		p = p[:remaining]
	}

	n, err = lw.w.Write(p)
	lw.written += n
	return originalLen, err
}

// PrepareRunDir creates the per-run directory layout under base and returns a
// spec skeleton pointing into it.
func PrepareRunDir(base, backend string, attempt int) (Spec, error) {
	runDir := filepath.Join(base, fmt.Sprintf("%s_attempt_%d", backend, attempt))
	artifactDir := filepath.Join(runDir, "artifacts")
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return Spec{}, fmt.Errorf("create run dir: %w", err)
	}
	return Spec{
		RunDir:      runDir,
		ArtifactDir: artifactDir,
		ResultFile:  filepath.Join(runDir, "result.json"),
		ScriptPath:  filepath.Join(runDir, "script.py"),
		Backend:     backend,
	}, nil
}
