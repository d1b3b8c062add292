package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/hkuds/upilot/internal/browser"
	"github.com/hkuds/upilot/internal/failure"
)

// BrowserStrategy drives a real browser backend to fetch a fully rendered
// page. Backends are tried in order, each inside its own goroutine so a hung
// browser cannot wedge the orchestrator past its deadline.
type BrowserStrategy struct {
	Backends []string
	Config   browser.Config

	// newDriver is swapped out in tests.
	newDriver func(ctx context.Context, name string, cfg browser.Config) (browser.Driver, error)
}

// NewBrowserStrategy tries the given backends in order. With no backends it
// defaults to chrome then rod.
func NewBrowserStrategy(cfg browser.Config, backends ...string) *BrowserStrategy {
	if len(backends) == 0 {
		backends = []string{"chrome", "rod"}
	}
	return &BrowserStrategy{
		Backends:  backends,
		Config:    cfg,
		newDriver: browser.New,
	}
}

func (s *BrowserStrategy) Name() Method { return MethodBrowser }

type browserResult struct {
	outcome *Outcome
	err     error
}

func (s *BrowserStrategy) Acquire(ctx context.Context, req Request) (*Outcome, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Minute)
	}

	var lastErr error
	for i, backend := range s.Backends {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, failure.Newf(failure.StrategyTimeout, "no time left for backend %s", backend)
		}

		// Leave headroom for later backends; the last one gets the rest.
		budget := remaining
		if i < len(s.Backends)-1 {
			budget = remaining * 2 / 3
		}

		outcome, err := s.tryBackend(ctx, backend, budget, req)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	if lastErr == nil {
		lastErr = failure.Newf(failure.StrategyFailure, "no browser backends configured")
	}
	return nil, lastErr
}

func (s *BrowserStrategy) tryBackend(ctx context.Context, backend string, budget time.Duration, req Request) (*Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// Buffered so a late finisher never blocks after we give up on it.
	ch := make(chan browserResult, 1)
	start := time.Now()
	go func() {
		outcome, err := s.fetch(runCtx, backend, req)
		ch <- browserResult{outcome: outcome, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, failure.New(failure.StrategyFailure, fmt.Errorf("%s: %w", backend, res.err))
		}
		res.outcome.Elapsed = time.Since(start)
		return res.outcome, nil
	case <-runCtx.Done():
		return nil, failure.Newf(failure.StrategyTimeout, "%s: %s", backend, failure.Concise(runCtx.Err().Error()))
	}
}

func (s *BrowserStrategy) fetch(ctx context.Context, backend string, req Request) (*Outcome, error) {
	cfg := s.Config
	if req.UserAgent != "" {
		cfg.UserAgent = req.UserAgent
	}
	d, err := s.newDriver(ctx, backend, cfg)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if err := d.Navigate(ctx, req.URL); err != nil {
		return nil, err
	}
	if req.SettleDelay > 0 {
		select {
		case <-time.After(req.SettleDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	html, err := d.PageSource(ctx)
	if err != nil {
		return nil, err
	}
	title, err := d.Title(ctx)
	if err != nil {
		return nil, err
	}
	finalURL, err := d.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Method:   MethodBrowser,
		Title:    title,
		FinalURL: finalURL,
		HTML:     html,
	}, nil
}
