package placement

import "github.com/MrSnakeDoc/demogen/internal/domain"

type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
)

// Suggestion is the ordered list of candidate selectors for one page.
type Suggestion struct {
	SuggestedLocations []string `json:"suggestedLocations"`
	Reasoning          string   `json:"reasoning"`
	Source             Source   `json:"source"`
}

func (s Suggestion) Candidates() []domain.PlacementCandidate {
	out := make([]domain.PlacementCandidate, len(s.SuggestedLocations))
	for i, sel := range s.SuggestedLocations {
		out[i] = domain.PlacementCandidate{Selector: sel}
	}
	return out
}
