// Package browser provides the driver capability used to acquire rendered
// pages and interact with them. Two backends are available: "chrome"
// (chromedp over the DevTools protocol) and "rod" (go-rod with its own
// launcher). Both drive a local headless Chromium.
package browser

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Element describes one matched element. Drivers return plain data rather
// than live handles so callers never hold browser state.
type Element struct {
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
}

// Driver is the browser capability. All blocking operations take a context;
// Close is idempotent and safe to call after any failure.
type Driver interface {
	// Name returns the backend identifier.
	Name() string
	// Navigate loads a URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// PageSource returns the rendered DOM as HTML.
	PageSource(ctx context.Context) (string, error)
	// Title returns the current document title.
	Title(ctx context.Context) (string, error)
	// CurrentURL returns the document location after redirects.
	CurrentURL(ctx context.Context) (string, error)
	// Elements returns all elements matching a CSS selector.
	Elements(ctx context.Context, selector string) ([]Element, error)
	// Click clicks the first element matching a CSS selector.
	Click(ctx context.Context, selector string) error
	// TypeText types into the first element matching a CSS selector.
	TypeText(ctx context.Context, selector, text string) error
	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the browser and every child process it spawned.
	Close() error
}

// Config carries driver construction options. Zero values get defaults.
type Config struct {
	Headless    bool
	NoSandbox   bool
	ChromePath  string // optional explicit binary path
	UserAgent   string
	WindowWidth int
	WindowHeight int
	// StartupTimeout bounds browser launch and first connection.
	StartupTimeout time.Duration
}

// DefaultConfig returns the options used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		NoSandbox:      true,
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		WindowWidth:    1920,
		WindowHeight:   1080,
		StartupTimeout: 20 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = def.WindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = def.WindowHeight
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = def.StartupTimeout
	}
}

// Factory constructs a driver. Construction may launch a browser process,
// so it takes a context and must clean up after itself on failure.
type Factory func(ctx context.Context, cfg Config) (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available by name. Called from backend init().
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New constructs the named backend.
func New(ctx context.Context, name string, cfg Config) (Driver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown browser backend %q (available: %v)", name, Backends())
	}
	cfg.applyDefaults()
	return f(ctx, cfg)
}

// Backends lists the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
