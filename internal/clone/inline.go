package clone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/demogen/internal/llm"
)

const inlineSystem = `You receive the HTML of a web page whose stylesheets are linked by absolute URL.
Inline the critical stylesheet rules needed to render the visible page into a <style> element in the head,
keep every existing element, attribute and link, and return one complete self-contained HTML file.
Do not add any script tags. Return only the HTML, no commentary.`

// Inliner asks the language model to inline critical CSS.
type Inliner struct {
	client llm.Client
}

func NewInliner(client llm.Client) *Inliner {
	return &Inliner{client: client}
}

// Inline returns the inlined document, with any script the model added stripped again.
func (i *Inliner) Inline(ctx context.Context, page string) (string, error) {
	out, err := i.client.GenerateText(ctx, llm.Request{
		System:      inlineSystem,
		Prompt:      page,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInline, err)
	}

	out = trimCodeFence(out)
	lower := strings.ToLower(out)
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<body") {
		return "", fmt.Errorf("%w: %w", ErrInline, errors.New("model did not return an html document"))
	}

	clean, err := StripScripts(out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInline, err)
	}
	return clean, nil
}

func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
