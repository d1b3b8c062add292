package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hkuds/upilot/internal/failure"
	"github.com/hkuds/upilot/internal/sandbox"
)

// fakeRunner scripts the outcome of each run in order.
type fakeRunner struct {
	outcomes []fakeOutcome
	calls    int
	specs    []sandbox.Spec
}

type fakeOutcome struct {
	result   *sandbox.RunResult // written to the result file when non-nil
	runErr   error
	noResult bool // simulate a script that never reports
}

func (r *fakeRunner) Name() string { return "fake" }
func (r *fakeRunner) Close() error { return nil }

func (r *fakeRunner) Run(ctx context.Context, spec sandbox.Spec) (*sandbox.Execution, error) {
	i := r.calls
	r.calls++
	r.specs = append(r.specs, spec)
	if i >= len(r.outcomes) {
		i = len(r.outcomes) - 1
	}
	o := r.outcomes[i]
	if o.runErr != nil {
		return &sandbox.Execution{ExitCode: -1, TimedOut: failure.Is(o.runErr, failure.ExecutionTimeout)}, o.runErr
	}
	if !o.noResult && o.result != nil {
		data, _ := json.Marshal(o.result)
		if err := os.WriteFile(spec.ResultFile, data, 0o644); err != nil {
			return nil, err
		}
	}
	return &sandbox.Execution{ExitCode: 0, Stderr: "Traceback: stale element"}, nil
}

func staticSource(script string) ScriptSource {
	return func(ctx context.Context, req ScriptRequest) (string, error) {
		return script, nil
	}
}

func newController(t *testing.T, r sandbox.Runner, backends []string, attempts int) *Controller {
	t.Helper()
	c := New(r, Options{
		Backends:    backends,
		MaxAttempts: attempts,
		RunTimeout:  time.Second,
		WorkDir:     t.TempDir(),
	})
	c.SetLogf(func(format string, args ...any) {})
	return c
}

func TestExecuteAllFailRecordsFullMatrix(t *testing.T) {
	r := &fakeRunner{outcomes: []fakeOutcome{
		{result: &sandbox.RunResult{Success: false, Error: "element not found"}},
	}}
	c := newController(t, r, []string{"chrome", "rod"}, 2)

	summary, err := c.Execute(context.Background(), "http://example.com", staticSource("print('x')"))
	if err == nil {
		t.Fatal("expected error when every attempt fails")
	}
	if summary.Success {
		t.Error("summary should not be successful")
	}
	if len(summary.Attempts) != 4 {
		t.Fatalf("got %d attempts, want 4 (2 backends x 2 attempts)", len(summary.Attempts))
	}
	want := []struct {
		backend string
		number  int
	}{{"chrome", 1}, {"chrome", 2}, {"rod", 1}, {"rod", 2}}
	for i, w := range want {
		a := summary.Attempts[i]
		if a.Backend != w.backend || a.Number != w.number {
			t.Errorf("attempt %d = %s/%d, want %s/%d", i, a.Backend, a.Number, w.backend, w.number)
		}
		if a.Status != StatusFailure {
			t.Errorf("attempt %d status = %s", i, a.Status)
		}
		if a.Reason != "element not found" {
			t.Errorf("attempt %d reason = %q", i, a.Reason)
		}
	}
}

func TestExecuteStopsAtFirstSuccess(t *testing.T) {
	r := &fakeRunner{outcomes: []fakeOutcome{
		{result: &sandbox.RunResult{Success: false, Error: "timeout waiting for page"}},
		{result: &sandbox.RunResult{Success: false, Error: "timeout waiting for page"}},
		{result: &sandbox.RunResult{Success: true, Logs: []string{"logged in"}}},
	}}
	c := newController(t, r, []string{"chrome", "rod"}, 2)

	summary, err := c.Execute(context.Background(), "http://example.com", staticSource("print('x')"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !summary.Success {
		t.Fatal("summary should be successful")
	}
	if len(summary.Attempts) != 3 {
		t.Fatalf("got %d attempts, want 3 (no run after success)", len(summary.Attempts))
	}
	w := summary.Winner
	if w == nil || w.Backend != "rod" || w.Number != 1 {
		t.Errorf("winner = %+v, want rod attempt 1", w)
	}
	if len(w.Logs) != 1 || w.Logs[0] != "logged in" {
		t.Errorf("winner logs = %v", w.Logs)
	}
}

func TestExecuteMissingResultFileIsFailure(t *testing.T) {
	r := &fakeRunner{outcomes: []fakeOutcome{{noResult: true}}}
	c := newController(t, r, []string{"chrome"}, 1)

	summary, err := c.Execute(context.Background(), "http://example.com", staticSource("print('x')"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(summary.Attempts) != 1 {
		t.Fatalf("got %d attempts", len(summary.Attempts))
	}
	a := summary.Attempts[0]
	if a.Status != StatusFailure {
		t.Errorf("status = %s, want failure", a.Status)
	}
	if a.Reason == "" {
		t.Error("missing result file must leave a reason")
	}
}

func TestExecuteTimeoutAttemptStatus(t *testing.T) {
	r := &fakeRunner{outcomes: []fakeOutcome{
		{runErr: failure.Newf(failure.ExecutionTimeout, "script killed after 1s")},
		{result: &sandbox.RunResult{Success: true}},
	}}
	c := newController(t, r, []string{"chrome"}, 2)

	summary, err := c.Execute(context.Background(), "http://example.com", staticSource("print('x')"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Attempts[0].Status != StatusTimeout {
		t.Errorf("first attempt status = %s, want timeout", summary.Attempts[0].Status)
	}
	if summary.Attempts[1].Status != StatusSuccess {
		t.Errorf("second attempt status = %s", summary.Attempts[1].Status)
	}
}

func TestExecuteFeedsPreviousErrorToSource(t *testing.T) {
	r := &fakeRunner{outcomes: []fakeOutcome{
		{result: &sandbox.RunResult{Success: false, Error: "no such element: #login"}},
		{result: &sandbox.RunResult{Success: true}},
	}}
	c := newController(t, r, []string{"chrome"}, 2)

	var prevErrs []string
	source := func(ctx context.Context, req ScriptRequest) (string, error) {
		prevErrs = append(prevErrs, req.PrevError)
		return "print('x')", nil
	}
	if _, err := c.Execute(context.Background(), "http://example.com", source); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(prevErrs) != 2 {
		t.Fatalf("source called %d times", len(prevErrs))
	}
	if prevErrs[0] != "" {
		t.Errorf("first attempt should have no previous error, got %q", prevErrs[0])
	}
	if prevErrs[1] == "" {
		t.Error("second attempt should carry the previous failure reason")
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRunner{outcomes: []fakeOutcome{{result: &sandbox.RunResult{Success: true}}}}
	c := newController(t, r, []string{"chrome"}, 2)

	summary, err := c.Execute(ctx, "http://example.com", staticSource("print('x')"))
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if len(summary.Attempts) != 0 {
		t.Errorf("no attempts should start after cancellation, got %d", len(summary.Attempts))
	}
	if r.calls != 0 {
		t.Errorf("runner called %d times", r.calls)
	}
}

func TestExecutePassesSpecDetails(t *testing.T) {
	r := &fakeRunner{outcomes: []fakeOutcome{{result: &sandbox.RunResult{Success: true}}}}
	c := newController(t, r, []string{"chrome"}, 1)

	if _, err := c.Execute(context.Background(), "http://example.com/login", staticSource("print('x')")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	spec := r.specs[0]
	if spec.TargetURL != "http://example.com/login" {
		t.Errorf("TargetURL = %q", spec.TargetURL)
	}
	if spec.Backend != "chrome" {
		t.Errorf("Backend = %q", spec.Backend)
	}
	if spec.Timeout != time.Second {
		t.Errorf("Timeout = %v", spec.Timeout)
	}
	if _, err := os.Stat(spec.ScriptPath); err != nil {
		t.Errorf("script not written: %v", err)
	}
}

// hookRunner calls a hook in place of a real sandbox run.
type hookRunner struct {
	hook  func(spec sandbox.Spec)
	calls int
}

func (r *hookRunner) Name() string { return "hook" }
func (r *hookRunner) Close() error { return nil }

func (r *hookRunner) Run(ctx context.Context, spec sandbox.Spec) (*sandbox.Execution, error) {
	r.calls++
	r.hook(spec)
	return &sandbox.Execution{}, nil
}

func TestAttemptLifecycleStatuses(t *testing.T) {
	attempt := Attempt{Backend: "chrome", Number: 1, Status: StatusPending}

	var seen Status
	r := &hookRunner{hook: func(spec sandbox.Spec) {
		seen = attempt.Status
		data, _ := json.Marshal(&sandbox.RunResult{Success: true})
		if err := os.WriteFile(spec.ResultFile, data, 0o644); err != nil {
			t.Errorf("write result file: %v", err)
		}
	}}
	c := newController(t, r, []string{"chrome"}, 1)

	c.runAttempt(context.Background(), &attempt, "http://example.com", "", staticSource("print('x')"))

	if seen != StatusRunning {
		t.Errorf("status during sandbox run = %q, want %q", seen, StatusRunning)
	}
	if attempt.Status != StatusSuccess {
		t.Errorf("final status = %q, want %q", attempt.Status, StatusSuccess)
	}
}

func TestAttemptGenerationFailureNeverRuns(t *testing.T) {
	attempt := Attempt{Backend: "chrome", Number: 1, Status: StatusPending}
	r := &hookRunner{hook: func(sandbox.Spec) {}}
	c := newController(t, r, []string{"chrome"}, 1)

	failing := func(ctx context.Context, req ScriptRequest) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}
	c.runAttempt(context.Background(), &attempt, "http://example.com", "", failing)

	if r.calls != 0 {
		t.Errorf("runner called %d times, want 0 when generation fails", r.calls)
	}
	if attempt.Status != StatusFailure {
		t.Errorf("final status = %q, want %q", attempt.Status, StatusFailure)
	}
}
