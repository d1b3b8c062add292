package acquire

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hkuds/upilot/internal/failure"
)

const maxBodyBytes = 10 << 20 // 10 MiB is plenty for any page worth automating

// HTTPSessionStrategy fetches pages with a cookie-carrying client and
// browser-like headers, which gets past sites that reject bare requests.
type HTTPSessionStrategy struct {
	client *http.Client
}

func NewHTTPSessionStrategy() *HTTPSessionStrategy {
	jar, _ := cookiejar.New(nil)
	return &HTTPSessionStrategy{
		client: &http.Client{Jar: jar},
	}
}

func (s *HTTPSessionStrategy) Name() Method { return MethodHTTPSession }

func (s *HTTPSessionStrategy) Acquire(ctx context.Context, req Request) (*Outcome, error) {
	return fetchHTTP(ctx, s.client, req, MethodHTTPSession, true)
}

// HTTPBasicStrategy is the last resort: a plain GET with no session state.
type HTTPBasicStrategy struct {
	client *http.Client
}

func NewHTTPBasicStrategy() *HTTPBasicStrategy {
	return &HTTPBasicStrategy{client: &http.Client{}}
}

func (s *HTTPBasicStrategy) Name() Method { return MethodHTTPBasic }

func (s *HTTPBasicStrategy) Acquire(ctx context.Context, req Request) (*Outcome, error) {
	return fetchHTTP(ctx, s.client, req, MethodHTTPBasic, false)
}

func fetchHTTP(ctx context.Context, client *http.Client, req Request, method Method, browserHeaders bool) (*Outcome, error) {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, failure.New(failure.StrategyFailure, err)
	}
	ua := req.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	httpReq.Header.Set("User-Agent", ua)
	if browserHeaders {
		httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
		httpReq.Header.Set("Upgrade-Insecure-Requests", "1")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, failure.New(failure.StrategyTimeout, ctx.Err())
		}
		return nil, failure.New(failure.StrategyFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, failure.Newf(failure.StrategyFailure, "HTTP %d for %s", resp.StatusCode, req.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, failure.New(failure.StrategyTimeout, ctx.Err())
		}
		return nil, failure.New(failure.StrategyFailure, err)
	}

	html := string(body)
	return &Outcome{
		Method:   method,
		Title:    htmlTitle(html),
		FinalURL: resp.Request.URL.String(),
		HTML:     html,
		Elapsed:  time.Since(start),
	}, nil
}

func htmlTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
