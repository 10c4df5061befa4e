package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heuristic(t *testing.T, name string) *Heuristic {
	t.Helper()
	st, err := DefaultStrategies().Get(name)
	require.NoError(t, err)
	h, err := NewHeuristic(st)
	require.NoError(t, err)
	return h
}

func TestHeuristicFallback(t *testing.T) {
	docs := map[string]string{
		"empty":     "",
		"plain":     "<html><body><div><span>hi</span></div></body></html>",
		"broken":    "<div><<p>>unclosed <b",
		"text only": "just text",
	}

	for _, name := range []string{StrategyContentFirst, StrategyHeaderFirst} {
		h := heuristic(t, name)
		for label, doc := range docs {
			got := h.Suggest(doc)
			assert.Equal(t, []string{"body"}, got.SuggestedLocations, "%s/%s", name, label)
			assert.Equal(t, SourceHeuristic, got.Source)
			assert.NotEmpty(t, got.Reasoning)
		}
	}
}

func TestHeuristicContentFirst(t *testing.T) {
	h := heuristic(t, StrategyContentFirst)

	doc := `<html><body>
		<article>
			<h1>Title</h1>
			<p>Lead</p>
			<div class="entry-content"><p>Body</p></div>
		</article>
	</body></html>`

	got := h.Suggest(doc)
	assert.Equal(t, []string{".entry-content", "h1 + *"}, got.SuggestedLocations[:2])
	assert.LessOrEqual(t, len(got.SuggestedLocations), 3)
}

func TestHeuristicDedupByElement(t *testing.T) {
	h := heuristic(t, StrategyContentFirst)

	doc := `<html><body><main><h1>T</h1><div class="entry-content"><p>x</p></div></main></body></html>`

	got := h.Suggest(doc)
	// .entry-content and "h1 + *" resolve to the same div, main > *:first-child is the h1
	assert.Equal(t, []string{".entry-content", "main > *:first-child"}, got.SuggestedLocations)
}

func TestHeuristicHeaderFirstLimit(t *testing.T) {
	h := heuristic(t, StrategyHeaderFirst)

	doc := `<html><body>
		<header>H</header>
		<main role="main">
			<article class="post">
				<div class="entry-header"><h1>T</h1></div>
				<div class="content"><div class="entry-content"><p>x</p></div></div>
			</article>
		</main>
	</body></html>`

	got := h.Suggest(doc)
	// main and [role=main] are one element
	assert.Equal(t, []string{"h1", "header", ".entry-header", "main", "article"}, got.SuggestedLocations)
}

func TestHeuristicDeterministic(t *testing.T) {
	h := heuristic(t, StrategyHeaderFirst)
	doc := `<html><body><header></header><h1>a</h1><article><p>b</p></article></body></html>`

	first := h.Suggest(doc)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, h.Suggest(doc))
	}
}

func TestHeuristicSkipsInvalidSelectors(t *testing.T) {
	h, err := NewHeuristic(Strategy{
		Name:      "custom",
		Limit:     2,
		Reasoning: "r",
		Selectors: []string{"div[[[", "p"},
	})
	require.NoError(t, err)

	got := h.Suggest("<p>x</p>")
	assert.Equal(t, []string{"p"}, got.SuggestedLocations)
}
