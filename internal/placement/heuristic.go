package placement

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Heuristic suggests placements from a fixed selector list. It is pure and
// total: any input, including empty or broken markup, yields at least the
// body fallback.
type Heuristic struct {
	strategy Strategy
}

func NewHeuristic(s Strategy) (*Heuristic, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &Heuristic{strategy: s}, nil
}

func (h *Heuristic) Strategy() Strategy { return h.strategy }

func (h *Heuristic) Suggest(page string) Suggestion {
	return Suggestion{
		SuggestedLocations: h.locations(page),
		Reasoning:          h.strategy.Reasoning,
		Source:             SourceHeuristic,
	}
}

func (h *Heuristic) locations(page string) []string {
	fallback := []string{FallbackSelector}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return fallback
	}

	// several selectors can land on the same element, keep the first one
	seen := make(map[*html.Node]struct{}, h.strategy.Limit)
	out := make([]string, 0, h.strategy.Limit)

	for _, sel := range h.strategy.Selectors {
		// an invalid selector compiles to a matcher that matches nothing
		first := doc.Find(sel).First()
		if first.Length() == 0 {
			continue
		}
		node := first.Get(0)
		if _, dup := seen[node]; dup {
			continue
		}
		seen[node] = struct{}{}
		out = append(out, sel)
		if len(out) == h.strategy.Limit {
			break
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}
