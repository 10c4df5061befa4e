package clone

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/demogen/internal/logger"
)

// PageFetcher downloads a page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Clone is the sanitized visual copy of a partner page.
type Clone struct {
	HTML      string `json:"html"`
	SourceURL string `json:"sourceUrl"`
	Inlined   bool   `json:"inlined"`
	Rendered  bool   `json:"rendered"`
}

// Builder turns a URL into a script-free clone with absolute references.
// Errors wrap ErrFetch, ErrInvalidURL or ErrInline so callers can tell them apart.
type Builder struct {
	fetcher PageFetcher
	inliner *Inliner // nil disables CSS inlining
	log     logger.Logger
}

func NewBuilder(f PageFetcher, inliner *Inliner, log logger.Logger) *Builder {
	return &Builder{fetcher: f, inliner: inliner, log: log}
}

func (b *Builder) Build(ctx context.Context, rawURL string) (*Clone, error) {
	page, err := b.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	html, err := Sanitize(page.HTML, page.URL)
	if err != nil {
		return nil, &FetchError{URL: page.URL.String(), Err: err}
	}

	c := &Clone{HTML: html, SourceURL: page.URL.String(), Rendered: page.Rendered}
	if b.inliner == nil {
		return c, nil
	}

	inlined, err := b.inliner.Inline(ctx, html)
	if err != nil {
		b.log.Warn("critical css inlining failed", logger.String("url", c.SourceURL), logger.Error(err))
		return nil, fmt.Errorf("clone %s: %w", c.SourceURL, err)
	}
	c.HTML = inlined
	c.Inlined = true
	return c, nil
}
