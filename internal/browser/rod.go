package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

func init() {
	Register("rod", func(ctx context.Context, cfg Config) (Driver, error) {
		return newRodDriver(ctx, cfg)
	})
}

// rodDriver drives a headless Chromium via go-rod's launcher.
type rodDriver struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	closeOnce sync.Once
	closeErr  error
}

func newRodDriver(ctx context.Context, cfg Config) (*rodDriver, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.ChromePath != "" {
		l = l.Bin(cfg.ChromePath)
	}

	startCtx, startCancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer startCancel()

	url, err := l.Context(startCtx).Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("rod launch: %w", err)
	}

	b := rod.New().ControlURL(url).Context(startCtx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("rod connect: %w", err)
	}

	d := &rodDriver{launcher: l, browser: b}

	p, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("rod open page: %w", err)
	}
	d.page = p

	if err := (proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}).Call(p); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("rod set user agent: %w", err)
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("rod set viewport: %w", err)
	}

	return d, nil
}

func (d *rodDriver) Name() string { return "rod" }

func (d *rodDriver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *rodDriver) PageSource(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

func (d *rodDriver) Title(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (d *rodDriver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (d *rodDriver) Elements(ctx context.Context, selector string) ([]Element, error) {
	js := fmt.Sprintf(`() => Array.from(document.querySelectorAll(%q)).slice(0, 100).map(el => {
		const attrs = {};
		for (const a of el.attributes) attrs[a.name] = a.value;
		return {
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || '').trim().slice(0, 200),
			attributes: attrs
		};
	})`, selector)

	obj, err := d.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(obj.Value)
	if err != nil {
		return nil, fmt.Errorf("rod elements: %w", err)
	}
	var elements []Element
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("rod elements: %w", err)
	}
	return elements, nil
}

func (d *rodDriver) Click(ctx context.Context, selector string) error {
	el, err := d.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (d *rodDriver) TypeText(ctx context.Context, selector, text string) error {
	el, err := d.page.Context(ctx).Element(selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

func (d *rodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, nil)
}

// Close shuts down the browser and kills the launched process tree. Safe to
// call multiple times and after partial construction.
func (d *rodDriver) Close() error {
	d.closeOnce.Do(func() {
		if d.browser != nil {
			d.closeErr = d.browser.Close()
		}
		if d.launcher != nil {
			d.launcher.Kill()
			d.launcher.Cleanup()
		}
	})
	return d.closeErr
}
