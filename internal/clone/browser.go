package clone

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/MrSnakeDoc/demogen/internal/logger"
)

// BrowserRenderer renders pages in headless Chrome through rod, with the
// stealth evasions applied to every tab.
type BrowserRenderer struct {
	timeout   time.Duration
	remoteURL string
	log       logger.Logger
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
}

// NewBrowserRenderer prepares a renderer. remoteURL points at an existing
// Chrome DevTools endpoint; empty launches a local headless Chrome in Start.
func NewBrowserRenderer(timeout time.Duration, remoteURL string, log logger.Logger) *BrowserRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserRenderer{timeout: timeout, remoteURL: remoteURL, log: log}
}

// Start launches or connects to Chrome. It is called once at startup.
func (r *BrowserRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	wsURL := r.remoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		r.launcher = l
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		if r.launcher != nil {
			r.launcher.Kill()
			r.launcher = nil
		}
		return fmt.Errorf("browser: connect: %w", err)
	}
	// detach from the startup context so later renders are not tied to it
	r.browser = b.Context(context.Background())
	r.log.Info("headless browser ready", logger.Bool("remote", r.remoteURL != ""))
	return nil
}

func (r *BrowserRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	r.mu.Lock()
	b := r.browser
	r.mu.Unlock()
	if b == nil {
		return "", errors.New("browser: not started")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("browser: create tab: %w", err)
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)
	if err := p.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		r.log.Warn("browser: wait load failed, using current DOM",
			logger.String("url", pageURL), logger.Error(err))
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read DOM: %w", err)
	}
	return html, nil
}

// Close shuts Chrome down.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
