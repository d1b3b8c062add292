package acquire

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hkuds/upilot/internal/failure"
)

// AttemptStatus records how a single strategy fared.
type AttemptStatus string

const (
	StatusSuccess      AttemptStatus = "success"
	StatusFailure      AttemptStatus = "failure"
	StatusTimeout      AttemptStatus = "timeout"
	StatusNotAttempted AttemptStatus = "not_attempted"
)

// Attempt is the per-strategy record kept whether or not the run succeeds.
type Attempt struct {
	Method  Method        `json:"method"`
	Status  AttemptStatus `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Orchestrator runs strategies in order until one produces a page.
type Orchestrator struct {
	strategies []Strategy
	timeouts   map[Method]time.Duration
	logf       func(format string, args ...any)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout caps how long one strategy may run. Strategies without an
// explicit cap share whatever remains of the parent deadline.
func WithTimeout(m Method, d time.Duration) Option {
	return func(o *Orchestrator) { o.timeouts[m] = d }
}

// WithLogf routes progress logging; defaults to the standard logger.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(o *Orchestrator) { o.logf = logf }
}

// NewOrchestrator tries strategies in the order given.
func NewOrchestrator(strategies []Strategy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		strategies: strategies,
		timeouts:   make(map[Method]time.Duration),
		logf:       log.Printf,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run walks the strategy chain. On success it returns the outcome plus the
// attempt log; on total failure the error summarizes every strategy's fate.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Outcome, []Attempt, error) {
	attempts := make([]Attempt, 0, len(o.strategies))

	for i, s := range o.strategies {
		if ctx.Err() != nil {
			for _, rest := range o.strategies[i:] {
				attempts = append(attempts, Attempt{
					Method: rest.Name(),
					Status: StatusNotAttempted,
					Reason: "deadline exhausted",
				})
			}
			break
		}

		o.logf("acquire: trying %s for %s", s.Name(), req.URL)
		attempt := o.runOne(ctx, s, req)
		attempts = append(attempts, attempt.record)
		if attempt.outcome != nil {
			o.logf("acquire: %s succeeded in %s", s.Name(), attempt.record.Elapsed.Round(time.Millisecond))
			return attempt.outcome, attempts, nil
		}
		o.logf("acquire: %s failed: %s", s.Name(), attempt.record.Reason)
	}

	return nil, attempts, summarize(attempts)
}

type attemptResult struct {
	outcome *Outcome
	record  Attempt
}

func (o *Orchestrator) runOne(ctx context.Context, s Strategy, req Request) attemptResult {
	runCtx := ctx
	if d, ok := o.timeouts[s.Name()]; ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	outcome, err := s.Acquire(runCtx, req)
	elapsed := time.Since(start)

	if err == nil {
		return attemptResult{
			outcome: outcome,
			record:  Attempt{Method: s.Name(), Status: StatusSuccess, Elapsed: elapsed},
		}
	}

	status := StatusFailure
	if failure.Is(err, failure.StrategyTimeout) || runCtx.Err() != nil {
		status = StatusTimeout
	}
	return attemptResult{
		record: Attempt{
			Method:  s.Name(),
			Status:  status,
			Reason:  failure.Concise(err.Error()),
			Elapsed: elapsed,
		},
	}
}

func summarize(attempts []Attempt) error {
	if len(attempts) == 0 {
		return failure.Newf(failure.StrategyFailure, "no acquisition strategies configured")
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if a.Status == StatusNotAttempted {
			parts = append(parts, fmt.Sprintf("%s: not attempted", a.Method))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", a.Method, a.Reason))
	}
	return failure.Newf(failure.StrategyFailure, "all strategies failed (%s)", strings.Join(parts, "; "))
}
