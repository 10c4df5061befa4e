package integration

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/demogen/internal/domain"
)

var ErrNoPlacement = errors.New("demo has no placement to derive a plugin rule from")

// PluginOptions overrides the defaults of a derived plugin config.
type PluginOptions struct {
	Context      domain.InjectionContext
	Strategy     domain.InjectionStrategy
	ExcludeSlugs []string
}

// PluginConfigFromDemo turns the chosen placement of a demo into a plugin
// config for the given version. The result is validated.
func PluginConfigFromDemo(demo *domain.DemoConfig, version string, opts PluginOptions) (domain.WordpressPluginConfig, error) {
	if demo.Placement == nil {
		return domain.WordpressPluginConfig{}, ErrNoPlacement
	}
	if opts.Context == "" {
		opts.Context = domain.ContextSingular
	}
	if opts.Strategy == "" {
		opts.Strategy = domain.StrategyFirst
	}

	pos := domain.InsertBefore
	if demo.Placement.Position == domain.PositionAfter {
		pos = domain.InsertAfter
	}

	cfg := domain.WordpressPluginConfig{
		PartnerID:         domain.PartnerSlug(demo.Publication),
		Domain:            domain.Host(demo.WebsiteURL),
		Publication:       demo.Publication,
		InjectionContext:  opts.Context,
		InjectionStrategy: opts.Strategy,
		InjectionRules: []domain.InjectionRule{{
			TargetSelector: demo.Placement.Selector,
			InsertPosition: pos,
			ExcludeSlugs:   opts.ExcludeSlugs,
		}},
		Version: version,
	}
	if err := cfg.Validate(); err != nil {
		return domain.WordpressPluginConfig{}, fmt.Errorf("derive plugin config: %w", err)
	}
	return cfg, nil
}
