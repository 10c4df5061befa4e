package placement

import (
	"context"
	"sync/atomic"

	"github.com/MrSnakeDoc/demogen/internal/logger"
)

// SuggestAdvisor is the enhanced, fallible suggestion source.
type SuggestAdvisor interface {
	Suggest(ctx context.Context, page string) (Suggestion, error)
}

// Suggester tries the advisor when enabled and degrades to the heuristic on
// any failure. It never returns an error.
type Suggester struct {
	heuristic atomic.Pointer[Heuristic]
	advisor   SuggestAdvisor
	log       logger.Logger
}

// NewSuggester wires the two tiers. A nil advisor means AI placement is off.
func NewSuggester(h *Heuristic, advisor SuggestAdvisor, log logger.Logger) *Suggester {
	s := &Suggester{advisor: advisor, log: log}
	s.heuristic.Store(h)
	return s
}

func (s *Suggester) AIEnabled() bool { return s.advisor != nil }

// Heuristic returns the fallback tier currently in use.
func (s *Suggester) Heuristic() *Heuristic { return s.heuristic.Load() }

// SetHeuristic swaps the fallback tier, for strategy file reloads.
func (s *Suggester) SetHeuristic(h *Heuristic) { s.heuristic.Store(h) }

func (s *Suggester) Suggest(ctx context.Context, page string) Suggestion {
	h := s.heuristic.Load()
	if s.advisor == nil {
		return h.Suggest(page)
	}

	sug, err := s.advisor.Suggest(ctx, page)
	if err != nil {
		s.log.Warn("ai placement failed, using heuristic",
			logger.String("strategy", h.Strategy().Name),
			logger.Error(err))
		return h.Suggest(page)
	}
	return sug
}
