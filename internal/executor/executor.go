// Package executor drives generated scripts through a backend-by-attempt
// matrix, recording every attempt and stopping at the first success.
package executor

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hkuds/upilot/internal/failure"
	"github.com/hkuds/upilot/internal/sandbox"
)

// Status tracks an attempt through its lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
)

// Attempt is the record of one script run against one backend.
type Attempt struct {
	Backend     string        `json:"backend"`
	Number      int           `json:"number"`
	Status      Status        `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Logs        []string      `json:"logs,omitempty"`
	Screenshots []string      `json:"screenshots,omitempty"`
	RunDir      string        `json:"run_dir,omitempty"`
}

// Summary is the outcome of a full matrix run.
type Summary struct {
	Success  bool      `json:"success"`
	Attempts []Attempt `json:"attempts"`
	Winner   *Attempt  `json:"winner,omitempty"`
}

// ScriptRequest is what the controller hands to the script source for each
// attempt. PrevError carries the previous attempt's reason so a generator can
// repair its script.
type ScriptRequest struct {
	Backend   string
	Attempt   int
	TargetURL string
	PrevError string
}

// ScriptSource produces the script body for one attempt.
type ScriptSource func(ctx context.Context, req ScriptRequest) (string, error)

// Options configure a Controller.
type Options struct {
	// Backends to try, in order.
	Backends []string

	// MaxAttempts per backend.
	MaxAttempts int

	// RunTimeout caps a single script run.
	RunTimeout time.Duration

	// WorkDir is the base directory for per-run directories.
	WorkDir string
}

func (o *Options) applyDefaults() {
	if len(o.Backends) == 0 {
		o.Backends = []string{"chrome", "edge"}
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 2
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = sandbox.DefaultTimeout
	}
	if o.WorkDir == "" {
		o.WorkDir = os.TempDir()
	}
}

// Controller runs the matrix.
type Controller struct {
	runner sandbox.Runner
	opts   Options
	logf   func(format string, args ...any)
}

// New creates a Controller using the given runner.
func New(runner sandbox.Runner, opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{runner: runner, opts: opts, logf: log.Printf}
}

// SetLogf redirects progress logging.
func (c *Controller) SetLogf(logf func(format string, args ...any)) {
	c.logf = logf
}

// Execute walks backends in order, attempting each up to MaxAttempts times,
// and returns as soon as one run reports success. Every started attempt is
// recorded whether it succeeds or not.
func (c *Controller) Execute(ctx context.Context, targetURL string, source ScriptSource) (*Summary, error) {
	summary := &Summary{}

	for _, backend := range c.opts.Backends {
		prevErr := ""
		for n := 1; n <= c.opts.MaxAttempts; n++ {
			if ctx.Err() != nil {
				return summary, failure.New(failure.ExecutionTimeout, ctx.Err())
			}

			c.logf("executor: %s attempt %d/%d for %s", backend, n, c.opts.MaxAttempts, targetURL)
			attempt := Attempt{Backend: backend, Number: n, Status: StatusPending}
			c.runAttempt(ctx, &attempt, targetURL, prevErr, source)
			summary.Attempts = append(summary.Attempts, attempt)

			if attempt.Status == StatusSuccess {
				summary.Success = true
				summary.Winner = &summary.Attempts[len(summary.Attempts)-1]
				return summary, nil
			}
			prevErr = attempt.Reason
			c.logf("executor: %s attempt %d failed: %s", backend, n, attempt.Reason)
		}
	}

	return summary, failure.Newf(failure.ExecutionFailure,
		"all %d attempts failed across %d backends", len(summary.Attempts), len(c.opts.Backends))
}

// runAttempt takes a pending attempt through its lifecycle: the script is
// generated and staged while pending, the status switches to running for the
// sandbox run, and the attempt always ends in a terminal status.
func (c *Controller) runAttempt(ctx context.Context, attempt *Attempt, targetURL, prevErr string, source ScriptSource) {
	start := time.Now()
	fail := func(reason string) {
		attempt.Status = StatusFailure
		attempt.Reason = reason
		attempt.Elapsed = time.Since(start)
	}

	script, err := source(ctx, ScriptRequest{
		Backend:   attempt.Backend,
		Attempt:   attempt.Number,
		TargetURL: targetURL,
		PrevError: prevErr,
	})
	if err != nil {
		fail(fmt.Sprintf("script generation: %s", failure.Concise(err.Error())))
		return
	}

	spec, err := sandbox.PrepareRunDir(c.opts.WorkDir, attempt.Backend, attempt.Number)
	if err != nil {
		fail(failure.Concise(err.Error()))
		return
	}
	attempt.RunDir = spec.RunDir
	if err := os.WriteFile(spec.ScriptPath, []byte(script), 0o644); err != nil {
		fail(failure.Concise(err.Error()))
		return
	}
	spec.TargetURL = targetURL
	spec.Timeout = c.opts.RunTimeout

	attempt.Status = StatusRunning
	exec, runErr := c.runner.Run(ctx, spec)
	attempt.Elapsed = time.Since(start)

	if runErr != nil {
		if failure.Is(runErr, failure.ExecutionTimeout) {
			attempt.Status = StatusTimeout
		} else {
			attempt.Status = StatusFailure
		}
		attempt.Reason = failure.Concise(runErr.Error())
		return
	}

	result, err := sandbox.ReadResultFile(spec.ResultFile)
	if err != nil {
		// The script ran but never reported; surface its stderr if any.
		reason := failure.Concise(err.Error())
		if exec != nil && exec.Stderr != "" {
			reason = failure.Concise(exec.Stderr)
		}
		attempt.Status = StatusFailure
		attempt.Reason = reason
		return
	}

	attempt.Logs = result.Logs
	attempt.Screenshots = result.Screenshots
	if result.Success {
		attempt.Status = StatusSuccess
		return
	}
	attempt.Status = StatusFailure
	attempt.Reason = failure.Concise(result.Error)
}
