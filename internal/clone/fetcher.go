package clone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/utils"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
	maxPageBytes     = 10 << 20
)

// Page is a downloaded document.
type Page struct {
	URL      *url.URL // final URL after redirects
	HTML     string
	Rendered bool // produced by the headless browser
}

// Renderer loads a page in a real browser and returns the rendered DOM.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Fetcher downloads partner pages. Plain HTTP first, then the optional
// Renderer when the site blocks bots or serves an empty app shell.
type Fetcher struct {
	client   *http.Client
	ua       string
	renderer Renderer
	log      logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.ua = ua
		}
	}
}

// WithRenderer enables the browser fallback.
func WithRenderer(r Renderer) Option { return func(f *Fetcher) { f.renderer = r } }

func WithLogger(l logger.Logger) Option { return func(f *Fetcher) { f.log = l } }

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		ua:     defaultUserAgent,
		log:    logger.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// ParsePageURL accepts only absolute http(s) URLs.
func ParsePageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := ParsePageURL(rawURL)
	if err != nil {
		return nil, err
	}

	page, err := f.get(ctx, u)
	switch {
	case err != nil:
		var fe *FetchError
		if f.renderer == nil || !errors.As(err, &fe) || !fe.blocked() {
			return nil, err
		}
		f.log.Info("site refused plain http, rendering in browser",
			logger.String("url", u.String()), logger.Int("status", fe.StatusCode))
		return f.render(ctx, u, err)

	case f.renderer != nil && looksLikeShell(page.HTML):
		f.log.Info("page looks like an app shell, rendering in browser", logger.String("url", u.String()))
		rendered, rerr := f.render(ctx, u, nil)
		if rerr != nil {
			f.log.Warn("browser render failed, keeping http body",
				logger.String("url", u.String()), logger.Error(rerr))
			return page, nil
		}
		return rendered, nil
	}
	return page, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: u.String(), Err: err}
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: u.String(), Err: err}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: u.String(), StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return nil, &FetchError{URL: u.String(), Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxPageBytes {
		return nil, &FetchError{URL: u.String(), Err: fmt.Errorf("page larger than %d bytes", maxPageBytes)}
	}

	f.log.Debug("page fetched",
		logger.String("url", u.String()),
		logger.Int("status", resp.StatusCode),
		logger.Int("size", len(body)))

	return &Page{URL: resp.Request.URL, HTML: string(body)}, nil
}

// render runs the browser path. cause is the HTTP failure that triggered
// it, kept as the reported error when the browser fails too.
func (f *Fetcher) render(ctx context.Context, u *url.URL, cause error) (*Page, error) {
	html, err := f.renderer.Render(ctx, u.String())
	if err != nil {
		if cause != nil {
			return nil, cause
		}
		return nil, &FetchError{URL: u.String(), Err: fmt.Errorf("browser render: %w", err)}
	}
	return &Page{URL: u, HTML: html, Rendered: true}, nil
}
