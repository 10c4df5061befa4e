package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/demogen/internal/logger"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{in: "gemini", want: ProviderGemini},
		{in: " Gemini ", want: ProviderGemini},
		{in: "none", want: ProviderNone},
		{in: "", want: ProviderNone},
		{in: "openai", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	c, err := New(context.Background(), Settings{Provider: ProviderGemini}, logger.NewNop())
	require.NoError(t, err)
	assert.False(t, Enabled(c))

	err = c.GenerateJSON(context.Background(), Request{}, &struct{}{})
	assert.ErrorIs(t, err, ErrProviderDisabled)
	_, err = c.GenerateText(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrProviderDisabled)
}

func TestWithDefaultTimeout(t *testing.T) {
	ctx, cancel := withDefaultTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok)

	parent, pcancel := context.WithTimeout(context.Background(), time.Hour)
	defer pcancel()
	ctx, cancel2 := withDefaultTimeout(parent, time.Second)
	defer cancel2()
	dl, _ := ctx.Deadline()
	assert.Greater(t, time.Until(dl), time.Minute, "caller deadline is kept")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(` {"a":1} `))
}

// geminiServer answers generateContent calls with text and records the last request body.
func geminiServer(t *testing.T, text string, last *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if last != nil {
			_ = json.Unmarshal(body, last)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": text}},
					},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerateJSON(t *testing.T) {
	var last map[string]any
	srv := geminiServer(t, `{"selector":".entry-content > p","reasoning":"first paragraph"}`, &last)

	g, err := NewGemini(context.Background(), Settings{APIKey: "test", Model: "gemini-test", Timeout: 5 * time.Second}, srv.URL)
	require.NoError(t, err)

	var out struct {
		Selector  string `json:"selector"`
		Reasoning string `json:"reasoning"`
	}
	err = g.GenerateJSON(context.Background(), Request{
		System: "sys",
		Prompt: "where?",
		Schema: &ObjectSchema{
			Properties: map[string]Property{"selector": {}, "reasoning": {}},
			Required:   []string{"selector", "reasoning"},
		},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, ".entry-content > p", out.Selector)

	gen, ok := last["generationConfig"].(map[string]any)
	require.True(t, ok, "request carries a generation config")
	assert.Equal(t, "application/json", gen["responseMimeType"])
}

func TestGeminiErrors(t *testing.T) {
	t.Run("empty completion", func(t *testing.T) {
		srv := geminiServer(t, "   ", nil)
		g, err := NewGemini(context.Background(), Settings{APIKey: "test"}, srv.URL)
		require.NoError(t, err)

		_, err = g.GenerateText(context.Background(), Request{Prompt: "x"})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := geminiServer(t, "not json", nil)
		g, err := NewGemini(context.Background(), Settings{APIKey: "test"}, srv.URL)
		require.NoError(t, err)

		var out map[string]string
		err = g.GenerateJSON(context.Background(), Request{Prompt: "x"}, &out)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("http failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"boom","status":"INVALID_ARGUMENT"}}`)
		}))
		defer srv.Close()

		g, err := NewGemini(context.Background(), Settings{APIKey: "test"}, srv.URL)
		require.NoError(t, err)

		_, err = g.GenerateText(context.Background(), Request{Prompt: "x"})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrEmptyCompletion))
	})
}
