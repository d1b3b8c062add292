package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

func init() {
	Register("chrome", func(ctx context.Context, cfg Config) (Driver, error) {
		return newChromeDriver(ctx, cfg)
	})
}

// chromeDriver drives a headless Chromium via chromedp.
type chromeDriver struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

func newChromeDriver(ctx context.Context, cfg Config) (*chromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	d := &chromeDriver{
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      browserCancel,
	}

	// Force the browser process to launch now so a missing or broken binary
	// fails construction instead of the first navigation.
	startCtx, startCancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer startCancel()
	err := d.run(startCtx,
		network.Enable(),
		emulation.SetUserAgentOverride(cfg.UserAgent),
	)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("chrome startup: %w", err)
	}
	return d, nil
}

func (d *chromeDriver) Name() string { return "chrome" }

// run executes chromedp actions against the browser tab while honoring the
// caller's context. A timed-out caller cancels the in-flight run without
// tearing down the browser.
func (d *chromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *chromeDriver) PageSource(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *chromeDriver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.run(ctx, chromedp.Title(&title))
	return title, err
}

func (d *chromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := d.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (d *chromeDriver) Elements(ctx context.Context, selector string) ([]Element, error) {
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).slice(0, 100).map(function(el) {
		var attrs = {};
		for (var i = 0; i < el.attributes.length; i++) {
			attrs[el.attributes[i].name] = el.attributes[i].value;
		}
		return {
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || '').trim().slice(0, 200),
			attributes: attrs
		};
	})`, selector)

	var elements []Element
	if err := d.run(ctx, chromedp.Evaluate(js, &elements)); err != nil {
		return nil, err
	}
	return elements, nil
}

func (d *chromeDriver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *chromeDriver) TypeText(ctx context.Context, selector, text string) error {
	return d.run(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (d *chromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// Close tears down the tab, the browser process, and the allocator. Safe to
// call multiple times and after failures.
func (d *chromeDriver) Close() error {
	d.closeOnce.Do(func() {
		// Cancel waits for the browser to exit gracefully; the plain cancels
		// afterwards reap whatever is left.
		d.closeErr = chromedp.Cancel(d.ctx)
		d.cancel()
		d.allocCancel()
	})
	return d.closeErr
}
