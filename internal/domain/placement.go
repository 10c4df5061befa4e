package domain

import (
	"fmt"
	"strings"
)

// Position is the side of the matched element where the player is inserted.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

func (p Position) Valid() bool {
	return p == PositionBefore || p == PositionAfter
}

// PlacementCandidate is a CSS selector proposed by the heuristic or the AI
// advisor. Candidates are never mutated once produced.
type PlacementCandidate struct {
	Selector string `json:"selector"`
}

// Placement is the operator's chosen injection point. A demo without a
// placement carries a nil *Placement.
type Placement struct {
	Selector string   `json:"selector"`
	Position Position `json:"position"`
}

func (p *Placement) Validate() error {
	if p == nil {
		return nil
	}
	if strings.TrimSpace(p.Selector) == "" {
		return fmt.Errorf("%w: empty selector", ErrInvalidPlacement)
	}
	if !p.Position.Valid() {
		return fmt.Errorf("%w: position must be before or after, got %q", ErrInvalidPlacement, p.Position)
	}
	return nil
}
