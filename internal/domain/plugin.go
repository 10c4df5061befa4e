package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type InsertPosition string

const (
	InsertPrepend InsertPosition = "prepend"
	InsertAppend  InsertPosition = "append"
	InsertBefore  InsertPosition = "before"
	InsertAfter   InsertPosition = "after"
)

type InjectionContext string

const (
	ContextSingular InjectionContext = "singular"
	ContextAll      InjectionContext = "all"
	ContextCustom   InjectionContext = "custom"
)

type InjectionStrategy string

const (
	StrategyFirst InjectionStrategy = "first"
	StrategyLast  InjectionStrategy = "last"
	StrategyAll   InjectionStrategy = "all"
)

// InjectionRule tells the generated WordPress plugin where to render the player.
type InjectionRule struct {
	TargetSelector string         `json:"target_selector"`
	InsertPosition InsertPosition `json:"insert_position"`
	ExcludeSlugs   []string       `json:"exclude_slugs"`
}

// WordpressPluginConfig is handed to the plugin build pipeline. It is
// written once per version and never mutated afterwards.
type WordpressPluginConfig struct {
	PartnerID         string            `json:"partner_id"`
	Domain            string            `json:"domain"`
	Publication       string            `json:"publication"`
	InjectionContext  InjectionContext  `json:"injection_context"`
	InjectionStrategy InjectionStrategy `json:"injection_strategy"`
	InjectionRules    []InjectionRule   `json:"injection_rules"`
	Version           string            `json:"version"`
}

var (
	semverRe    = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	partnerIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	nonSlugRe   = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidVersion reports whether v is a plain X.Y.Z version.
func ValidVersion(v string) bool {
	return semverRe.MatchString(v)
}

// PartnerSlug derives a partner id from a publication name ("Le Monde" -> "le-monde").
func PartnerSlug(publication string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(publication), "-")
	return strings.Trim(s, "-")
}

func (r InjectionRule) Validate() error {
	if strings.TrimSpace(r.TargetSelector) == "" {
		return fmt.Errorf("%w: empty target_selector", ErrInvalidPlugin)
	}
	switch r.InsertPosition {
	case InsertPrepend, InsertAppend, InsertBefore, InsertAfter:
	default:
		return fmt.Errorf("%w: unknown insert_position %q", ErrInvalidPlugin, r.InsertPosition)
	}
	return nil
}

func (c WordpressPluginConfig) Validate() error {
	if !partnerIDRe.MatchString(c.PartnerID) {
		return fmt.Errorf("%w: partner_id must be a lowercase slug, got %q", ErrInvalidPlugin, c.PartnerID)
	}
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("%w: empty domain", ErrInvalidPlugin)
	}
	if strings.TrimSpace(c.Publication) == "" {
		return fmt.Errorf("%w: empty publication", ErrInvalidPlugin)
	}
	switch c.InjectionContext {
	case ContextSingular, ContextAll, ContextCustom:
	default:
		return fmt.Errorf("%w: unknown injection_context %q", ErrInvalidPlugin, c.InjectionContext)
	}
	switch c.InjectionStrategy {
	case StrategyFirst, StrategyLast, StrategyAll:
	default:
		return fmt.Errorf("%w: unknown injection_strategy %q", ErrInvalidPlugin, c.InjectionStrategy)
	}
	if len(c.InjectionRules) == 0 {
		return fmt.Errorf("%w: at least one injection rule is required", ErrInvalidPlugin)
	}
	for i, r := range c.InjectionRules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	if !ValidVersion(c.Version) {
		return fmt.Errorf("%w: version must be X.Y.Z, got %q", ErrInvalidPlugin, c.Version)
	}
	return nil
}

// ReleaseTag is the tag the build pipeline publishes the plugin archive under.
func (c WordpressPluginConfig) ReleaseTag() string {
	return ReleaseTag(c.PartnerID, c.Version)
}

func ReleaseTag(partnerID, version string) string {
	return partnerID + "-v" + version
}
