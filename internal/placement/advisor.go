package placement

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"github.com/microcosm-cc/bluemonday"

	"github.com/MrSnakeDoc/demogen/internal/llm"
)

// MaxPromptChars caps the HTML handed to the model.
const MaxPromptChars = 100_000

// ErrAdvisorFailed matches every *AdvisorError.
var ErrAdvisorFailed = errors.New("placement advisor failed")

type Stage string

const (
	StageRequest  Stage = "request"
	StageEmpty    Stage = "empty"
	StageParse    Stage = "parse"
	StageValidate Stage = "validate"
)

// AdvisorError tells at which step an AI suggestion failed.
type AdvisorError struct {
	Stage Stage
	Err   error
}

func (e *AdvisorError) Error() string {
	return fmt.Sprintf("placement advisor: %s: %v", e.Stage, e.Err)
}

func (e *AdvisorError) Unwrap() error { return e.Err }

func (e *AdvisorError) Is(target error) bool { return target == ErrAdvisorFailed }

const advisorSystem = `You are a front-end integration engineer. You receive the HTML of a news or blog article page.
Find the single best place to insert an audio player that reads the article aloud.
The insertion point is immediately before the first paragraph of the article body,
after the headline, the byline and the lead image.
Answer with one CSS selector matching the element the player must be inserted before,
prefer stable class or id based selectors over positional ones.
Respond with JSON only.`

var advisorSchema = &llm.ObjectSchema{
	Properties: map[string]llm.Property{
		"selector":  {Description: "CSS selector of the element the player goes before"},
		"reasoning": {Description: "one or two sentences explaining the choice"},
	},
	Required: []string{"selector", "reasoning"},
}

type advice struct {
	Selector  string `json:"selector"`
	Reasoning string `json:"reasoning"`
}

// Advisor asks the language model for a single placement. It never falls
// back on its own, every failure is returned as an *AdvisorError.
type Advisor struct {
	client llm.Client
	policy *bluemonday.Policy
}

func NewAdvisor(client llm.Client) *Advisor {
	return &Advisor{client: client, policy: bluemonday.StrictPolicy()}
}

func (a *Advisor) Suggest(ctx context.Context, page string) (Suggestion, error) {
	req := llm.Request{
		System:      advisorSystem,
		Prompt:      "HTML:\n" + Truncate(page, MaxPromptChars),
		Schema:      advisorSchema,
		Temperature: 0,
	}

	var out advice
	if err := a.client.GenerateJSON(ctx, req, &out); err != nil {
		return Suggestion{}, &AdvisorError{Stage: stageOf(err), Err: err}
	}

	sel := strings.TrimSpace(out.Selector)
	if sel == "" {
		return Suggestion{}, &AdvisorError{Stage: StageValidate, Err: errors.New("empty selector")}
	}
	if _, err := cascadia.Compile(sel); err != nil {
		return Suggestion{}, &AdvisorError{Stage: StageValidate, Err: fmt.Errorf("selector %q: %w", sel, err)}
	}

	return Suggestion{
		SuggestedLocations: []string{sel},
		Reasoning:          a.plain(out.Reasoning),
		Source:             SourceAI,
	}, nil
}

// plain strips any markup the model put in free text.
func (a *Advisor) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(a.policy.Sanitize(s)))
}

func stageOf(err error) Stage {
	switch {
	case errors.Is(err, llm.ErrEmptyCompletion):
		return StageEmpty
	case errors.Is(err, llm.ErrInvalidJSON):
		return StageParse
	default:
		return StageRequest
	}
}

// Truncate cuts s to at most max runes, backing up to the last complete tag
// when one ends inside the kept part.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := s
	n := 0
	for i := range s {
		if n == max {
			cut = s[:i]
			break
		}
		n++
	}
	if i := strings.LastIndexByte(cut, '>'); i > 0 {
		cut = cut[:i+1]
	}
	return cut
}
