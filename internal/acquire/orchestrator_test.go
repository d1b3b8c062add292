package acquire

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hkuds/upilot/internal/failure"
)

type fakeStrategy struct {
	name    Method
	outcome *Outcome
	err     error
	delay   time.Duration
	calls   int
}

func (s *fakeStrategy) Name() Method { return s.name }

func (s *fakeStrategy) Acquire(ctx context.Context, req Request) (*Outcome, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, failure.New(failure.StrategyTimeout, ctx.Err())
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

func discardLogf(format string, args ...any) {}

func TestRunFirstSuccessStopsChain(t *testing.T) {
	first := &fakeStrategy{name: MethodBrowser, outcome: &Outcome{Method: MethodBrowser, HTML: "<html></html>"}}
	second := &fakeStrategy{name: MethodHTTPSession}

	o := NewOrchestrator([]Strategy{first, second}, WithLogf(discardLogf))
	outcome, attempts, err := o.Run(context.Background(), Request{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Method != MethodBrowser {
		t.Errorf("Method = %s, want browser", outcome.Method)
	}
	if second.calls != 0 {
		t.Error("second strategy must not run after first succeeds")
	}
	if len(attempts) != 1 || attempts[0].Status != StatusSuccess {
		t.Errorf("attempts = %+v, want one success", attempts)
	}
}

func TestRunFallsBackInOrder(t *testing.T) {
	first := &fakeStrategy{name: MethodBrowser, err: failure.Newf(failure.StrategyFailure, "no such host")}
	second := &fakeStrategy{name: MethodHTTPSession, err: failure.Newf(failure.StrategyFailure, "connection refused")}
	third := &fakeStrategy{name: MethodHTTPBasic, outcome: &Outcome{Method: MethodHTTPBasic, HTML: "x"}}

	o := NewOrchestrator([]Strategy{first, second, third}, WithLogf(discardLogf))
	outcome, attempts, err := o.Run(context.Background(), Request{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Method != MethodHTTPBasic {
		t.Errorf("Method = %s, want http_basic", outcome.Method)
	}
	if len(attempts) != 3 {
		t.Fatalf("got %d attempts, want 3", len(attempts))
	}
	if attempts[0].Status != StatusFailure || attempts[1].Status != StatusFailure {
		t.Errorf("early attempts should be failures: %+v", attempts)
	}
	if attempts[0].Reason != "DNS resolution failed" {
		t.Errorf("reason = %q, want normalized DNS message", attempts[0].Reason)
	}
	if attempts[2].Status != StatusSuccess {
		t.Errorf("last attempt = %+v, want success", attempts[2])
	}
}

func TestRunAllFailSummarizesEveryStrategy(t *testing.T) {
	first := &fakeStrategy{name: MethodBrowser, err: failure.Newf(failure.StrategyFailure, "chrome not reachable")}
	second := &fakeStrategy{name: MethodHTTPBasic, err: failure.Newf(failure.StrategyFailure, "connection refused")}

	o := NewOrchestrator([]Strategy{first, second}, WithLogf(discardLogf))
	outcome, attempts, err := o.Run(context.Background(), Request{URL: "http://example.com"})
	if outcome != nil {
		t.Fatal("expected no outcome")
	}
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	msg := err.Error()
	for _, want := range []string{"browser:", "http_basic:", "browser not responding", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	if len(attempts) != 2 {
		t.Errorf("got %d attempts, want 2", len(attempts))
	}
}

func TestRunMarksUnreachedStrategiesNotAttempted(t *testing.T) {
	slow := &fakeStrategy{name: MethodBrowser, delay: time.Second}
	never := &fakeStrategy{name: MethodHTTPSession}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	o := NewOrchestrator([]Strategy{slow, never}, WithLogf(discardLogf))
	_, attempts, err := o.Run(ctx, Request{URL: "http://example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if never.calls != 0 {
		t.Error("strategy after deadline must not run")
	}
	if len(attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(attempts))
	}
	if attempts[0].Status != StatusTimeout {
		t.Errorf("first attempt = %s, want timeout", attempts[0].Status)
	}
	if attempts[1].Status != StatusNotAttempted {
		t.Errorf("second attempt = %s, want not_attempted", attempts[1].Status)
	}
	if !strings.Contains(err.Error(), "not attempted") {
		t.Errorf("error %q should mention the skipped strategy", err.Error())
	}
}

func TestRunPerStrategyTimeout(t *testing.T) {
	slow := &fakeStrategy{name: MethodBrowser, delay: time.Second}
	fast := &fakeStrategy{name: MethodHTTPBasic, outcome: &Outcome{Method: MethodHTTPBasic}}

	o := NewOrchestrator(
		[]Strategy{slow, fast},
		WithTimeout(MethodBrowser, 20*time.Millisecond),
		WithLogf(discardLogf),
	)
	outcome, attempts, err := o.Run(context.Background(), Request{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Method != MethodHTTPBasic {
		t.Errorf("Method = %s, want http_basic", outcome.Method)
	}
	if attempts[0].Status != StatusTimeout {
		t.Errorf("first attempt = %s, want timeout", attempts[0].Status)
	}
}
