package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/demogen/internal/clone"
	"github.com/MrSnakeDoc/demogen/internal/config"
	"github.com/MrSnakeDoc/demogen/internal/llm"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/placement"
)

// NewLLM resolves the configured language-model provider.
func NewLLM(ctx context.Context, cfg *config.Config, log logger.Logger) (llm.Client, error) {
	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	return llm.New(ctx, llm.Settings{
		Provider: provider,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Timeout:  cfg.LLMTimeout,
	}, log)
}

// NewSuggester builds the heuristic for the configured strategy and, when
// AI placement is on and a model is reachable, the advisor in front of it.
func NewSuggester(cfg *config.Config, client llm.Client, log logger.Logger) (*placement.Suggester, error) {
	strategies, err := placement.LoadStrategies(cfg.PlacementStrategyFile)
	if err != nil {
		return nil, err
	}
	st, err := strategies.Get(cfg.PlacementStrategy)
	if err != nil {
		return nil, err
	}
	h, err := placement.NewHeuristic(st)
	if err != nil {
		return nil, fmt.Errorf("invalid strategy %s: %w", st.Name, err)
	}

	var advisor placement.SuggestAdvisor
	switch {
	case cfg.AIPlacementEnabled && llm.Enabled(client):
		advisor = placement.NewAdvisor(client)
	case cfg.AIPlacementEnabled:
		log.Warn("ai placement requested without an llm provider, heuristic only")
	}
	return placement.NewSuggester(h, advisor, log), nil
}

// Cloner bundles the clone builder with the browser it may own.
type Cloner struct {
	*clone.Builder
	browser *clone.BrowserRenderer
}

// Close releases the headless browser, if any.
func (c *Cloner) Close() error {
	if c.browser == nil {
		return nil
	}
	return c.browser.Close()
}

// BrowserEnabled reports whether the headless fallback is live.
func (c *Cloner) BrowserEnabled() bool { return c.browser != nil }

// NewCloner wires the fetcher, the optional browser fallback and the
// optional CSS inliner. A browser that fails to start is logged and skipped.
func NewCloner(ctx context.Context, cfg *config.Config, client llm.Client, log logger.Logger) *Cloner {
	opts := []clone.Option{
		clone.WithUserAgent(cfg.UserAgent),
		clone.WithTimeout(cfg.FetchTimeout),
		clone.WithLogger(log),
	}

	var browser *clone.BrowserRenderer
	if cfg.BrowserFallback {
		br := clone.NewBrowserRenderer(cfg.BrowserTimeout, cfg.BrowserURL, log)
		if err := br.Start(ctx); err != nil {
			log.Warn("headless browser unavailable, fallback disabled", logger.Error(err))
		} else {
			browser = br
			opts = append(opts, clone.WithRenderer(br))
		}
	}

	var inliner *clone.Inliner
	switch {
	case cfg.CloneInlineCSS && llm.Enabled(client):
		inliner = clone.NewInliner(client)
	case cfg.CloneInlineCSS:
		log.Warn("css inlining requested without an llm provider, disabled")
	}

	return &Cloner{
		Builder: clone.NewBuilder(clone.NewFetcher(opts...), inliner, log),
		browser: browser,
	}
}
