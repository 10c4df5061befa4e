package domain

import (
	"fmt"
	"strings"
	"time"
)

// Design selects the embeddable player skin.
type Design string

const (
	DesignA Design = "A"
	DesignB Design = "B"
)

const (
	ColorLight = "light"
	ColorDark  = "dark"
)

// PlayerConfig holds the presentation toggles of the embeddable player.
type PlayerConfig struct {
	Design        Design `json:"design"`
	ShowAds       bool   `json:"showAds"`
	EnableMetrics bool   `json:"enableMetrics"`
	AudioFileName string `json:"audioFileName"`
	ColorType     string `json:"colorType,omitempty"`
}

// Normalize fills defaults in place.
func (c *PlayerConfig) Normalize() {
	if c.Design == "" {
		c.Design = DesignA
	}
	if c.ColorType == "" {
		c.ColorType = ColorLight
	}
}

func (c PlayerConfig) Validate() error {
	if c.Design != DesignA && c.Design != DesignB {
		return fmt.Errorf("%w: design must be A or B, got %q", ErrInvalidPlayer, c.Design)
	}
	if c.ColorType != ColorLight && c.ColorType != ColorDark {
		return fmt.Errorf("%w: colorType must be light or dark, got %q", ErrInvalidPlayer, c.ColorType)
	}
	return nil
}

// PlayerType is the value carried by the playertype attribute of the player element.
func (c PlayerConfig) PlayerType() string {
	return strings.ToLower(string(c.Design))
}

// DemoConfig is the persisted demo aggregate.
//
// A DemoConfig is uniquely identified by the NormalizeURL form of its WebsiteURL.
type DemoConfig struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is an opaque generated identifier used in preview links.
	ID string `json:"id"`

	// WebsiteURL is the partner URL as last saved by the operator. It is
	// what gets fetched; UniqueURL(WebsiteURL) is the unique key.
	WebsiteURL string `json:"websiteUrl"`

	// ─────────────────────────────
	// Operator choices (replaced on every upsert)
	// ─────────────────────────────

	PlayerConfig PlayerConfig `json:"playerConfig"`
	Placement    *Placement   `json:"placement"`

	// Publication is the human readable key the deployed player pings with.
	Publication string `json:"publication"`

	// ─────────────────────────────
	// Install state, set once
	// ─────────────────────────────

	IsInstalled bool       `json:"isInstalled"`
	InstalledAt *time.Time `json:"installedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// ViewCount is incremented by every read-by-id.
	ViewCount int64 `json:"viewCount"`
}

// DemoInput is the operator payload of a create-or-update.
type DemoInput struct {
	WebsiteURL   string       `json:"websiteUrl"`
	PlayerConfig PlayerConfig `json:"playerConfig"`
	Placement    *Placement   `json:"placement"`
	Publication  string       `json:"publication"`
}

// Normalize cleans the URL and fills player defaults. It must run before
// Validate and before any store mutation.
func (in *DemoInput) Normalize() error {
	u, err := CleanURL(in.WebsiteURL)
	if err != nil {
		return err
	}
	in.WebsiteURL = u
	in.Publication = strings.TrimSpace(in.Publication)
	in.PlayerConfig.Normalize()
	if in.Placement != nil {
		in.Placement.Selector = strings.TrimSpace(in.Placement.Selector)
	}
	return nil
}

func (in DemoInput) Validate() error {
	if _, err := CleanURL(in.WebsiteURL); err != nil {
		return err
	}
	if in.Publication == "" {
		return fmt.Errorf("%w: publication is required", ErrInvalidDemo)
	}
	if err := in.PlayerConfig.Validate(); err != nil {
		return err
	}
	return in.Placement.Validate()
}

// Apply overwrites the operator choices of d with in and advances UpdatedAt.
// The id, install state and counters are kept.
func (d *DemoConfig) Apply(in DemoInput, now time.Time) {
	d.WebsiteURL = in.WebsiteURL
	d.PlayerConfig = in.PlayerConfig
	d.Placement = in.Placement
	d.Publication = in.Publication
	d.UpdatedAt = now
}

// MarkInstalled performs the one-way not_installed -> installed transition.
// It reports false when the demo was already installed.
func (d *DemoConfig) MarkInstalled(now time.Time) bool {
	if d.IsInstalled {
		return false
	}
	t := now
	d.IsInstalled = true
	d.InstalledAt = &t
	return true
}

// NewDemo builds a fresh record from a normalized input.
func NewDemo(id string, in DemoInput, now time.Time) *DemoConfig {
	return &DemoConfig{
		ID:           id,
		WebsiteURL:   in.WebsiteURL,
		PlayerConfig: in.PlayerConfig,
		Placement:    in.Placement,
		Publication:  in.Publication,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
