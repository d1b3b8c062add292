// Package acquire fetches page content through an ordered set of strategies,
// falling back from a real browser to plain HTTP when earlier methods fail.
package acquire

import (
	"context"
	"time"
)

// Method identifies an acquisition strategy.
type Method string

const (
	MethodBrowser     Method = "browser"
	MethodHTTPSession Method = "http_session"
	MethodHTTPBasic   Method = "http_basic"
)

// Request describes a single page acquisition.
type Request struct {
	URL       string
	UserAgent string

	// SettleDelay is how long to wait after load before capturing the
	// page, giving scripts a chance to render.
	SettleDelay time.Duration
}

// Outcome is a successful acquisition.
type Outcome struct {
	Method   Method
	Title    string
	FinalURL string
	HTML     string
	Elapsed  time.Duration
}

// Strategy is one way of turning a URL into page content.
type Strategy interface {
	Name() Method
	Acquire(ctx context.Context, req Request) (*Outcome, error)
}
