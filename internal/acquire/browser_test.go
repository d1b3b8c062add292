package acquire

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hkuds/upilot/internal/browser"
	"github.com/hkuds/upilot/internal/failure"
)

type fakeDriver struct {
	name      string
	html      string
	title     string
	url       string
	hangOnNav bool
	closed    bool
}

func (d *fakeDriver) Name() string { return d.name }

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	if d.hangOnNav {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (d *fakeDriver) PageSource(ctx context.Context) (string, error) { return d.html, nil }
func (d *fakeDriver) Title(ctx context.Context) (string, error)      { return d.title, nil }
func (d *fakeDriver) CurrentURL(ctx context.Context) (string, error) { return d.url, nil }
func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	return nil
}
func (d *fakeDriver) TypeText(ctx context.Context, selector, text string) error {
	return nil
}
func (d *fakeDriver) Elements(ctx context.Context, selector string) ([]browser.Element, error) {
	return nil, nil
}
func (d *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

func TestBrowserStrategyUsesFirstWorkingBackend(t *testing.T) {
	d := &fakeDriver{name: "chrome", html: "<html></html>", title: "ok", url: "http://example.com/"}
	s := NewBrowserStrategy(browser.DefaultConfig(), "chrome", "rod")
	s.newDriver = func(ctx context.Context, name string, cfg browser.Config) (browser.Driver, error) {
		if name != "chrome" {
			t.Fatalf("unexpected backend %s", name)
		}
		return d, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := s.Acquire(ctx, Request{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome.Method != MethodBrowser || outcome.Title != "ok" {
		t.Errorf("outcome = %+v", outcome)
	}
	if !d.closed {
		t.Error("driver must be closed after use")
	}
}

func TestBrowserStrategyFallsBackToNextBackend(t *testing.T) {
	var tried []string
	s := NewBrowserStrategy(browser.DefaultConfig(), "chrome", "rod")
	s.newDriver = func(ctx context.Context, name string, cfg browser.Config) (browser.Driver, error) {
		tried = append(tried, name)
		if name == "chrome" {
			return nil, errors.New("exec: \"google-chrome\": executable file not found in $PATH")
		}
		return &fakeDriver{name: name, html: "<html></html>"}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := s.Acquire(ctx, Request{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if outcome == nil {
		t.Fatal("expected outcome from second backend")
	}
	if len(tried) != 2 || tried[0] != "chrome" || tried[1] != "rod" {
		t.Errorf("tried = %v, want [chrome rod]", tried)
	}
}

func TestBrowserStrategyTimesOutHungBackend(t *testing.T) {
	s := NewBrowserStrategy(browser.DefaultConfig(), "chrome")
	s.newDriver = func(ctx context.Context, name string, cfg browser.Config) (browser.Driver, error) {
		return &fakeDriver{name: name, hangOnNav: true}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := s.Acquire(ctx, Request{URL: "http://example.com"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("Acquire must return promptly once the deadline passes")
	}
	var f *failure.Failure
	if !errors.As(err, &f) || f.Kind != failure.StrategyTimeout {
		t.Errorf("err = %v, want strategy timeout", err)
	}
}

func TestBrowserStrategyReportsLastError(t *testing.T) {
	s := NewBrowserStrategy(browser.DefaultConfig(), "chrome", "rod")
	s.newDriver = func(ctx context.Context, name string, cfg browser.Config) (browser.Driver, error) {
		return nil, errors.New("session not created")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.Acquire(ctx, Request{URL: "http://example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "session not created") {
		t.Errorf("err = %v", err)
	}
}
