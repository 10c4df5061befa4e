package placement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStrategies(t *testing.T) {
	s := DefaultStrategies()
	assert.Equal(t, []string{StrategyContentFirst, StrategyHeaderFirst}, s.Names())

	cf, err := s.Get(StrategyContentFirst)
	require.NoError(t, err)
	assert.Equal(t, 3, cf.Limit)
	assert.Equal(t, []string{".entry-content", ".post-content", "h1 + *", "article > *:first-child", "main > *:first-child"}, cf.Selectors)

	hf, err := s.Get(StrategyHeaderFirst)
	require.NoError(t, err)
	assert.Equal(t, 5, hf.Limit)
	assert.Contains(t, hf.Selectors, "[role=main]")

	_, err = s.Get("random")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestLoadStrategiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	content := `strategies:
  - name: amp
    limit: 1
    reasoning: amp pages
    selectors: [".amp-article-body", "article"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadStrategies(path)
	require.NoError(t, err)
	amp, err := s.Get("amp")
	require.NoError(t, err)
	assert.Equal(t, 1, amp.Limit)

	defaults, err := LoadStrategies("")
	require.NoError(t, err)
	assert.Len(t, defaults, 2)
}

func TestParseStrategiesRejects(t *testing.T) {
	tests := map[string]string{
		"empty":     ``,
		"no limit":  "strategies:\n  - name: a\n    selectors: [p]\n",
		"no select": "strategies:\n  - name: a\n    limit: 1\n",
		"duplicate": "strategies:\n  - {name: a, limit: 1, selectors: [p]}\n  - {name: a, limit: 1, selectors: [p]}\n",
		"not yaml":  "strategies: [",
	}
	for name, doc := range tests {
		_, err := ParseStrategies([]byte(doc))
		assert.Error(t, err, name)
	}
}
