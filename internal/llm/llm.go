// Package llm wraps the language-model provider behind a narrow interface.
// The provider is picked once at startup; callers only see Client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/logger"
)

var (
	// ErrEmptyCompletion is returned when the model answered with no text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
	// ErrInvalidJSON is returned when a structured completion does not decode.
	ErrInvalidJSON = errors.New("llm: invalid json completion")
	// ErrProviderDisabled is returned by the disabled client.
	ErrProviderDisabled = errors.New("llm: provider disabled")
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderNone   Provider = "none"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGemini, ProviderNone:
		return p, nil
	case "":
		return ProviderNone, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// Property describes one string field of a structured response.
type Property struct {
	Description string
}

// ObjectSchema is the shape a structured completion must follow. Only flat
// objects of string fields are needed here.
type ObjectSchema struct {
	Properties map[string]Property
	Required   []string
}

type Request struct {
	System          string
	Prompt          string
	Schema          *ObjectSchema // GenerateJSON only
	Temperature     float32
	MaxOutputTokens int32
}

// Client is the language-model collaborator.
type Client interface {
	// GenerateJSON asks for a JSON completion matching req.Schema and decodes it into out.
	GenerateJSON(ctx context.Context, req Request, out any) error
	// GenerateText returns the raw text completion.
	GenerateText(ctx context.Context, req Request) (string, error)
}

type Settings struct {
	Provider Provider
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New resolves the configured provider into a Client. A provider that lacks
// its credential degrades to the disabled client with a warning.
func New(ctx context.Context, s Settings, log logger.Logger) (Client, error) {
	switch s.Provider {
	case ProviderNone:
		log.Info("llm provider disabled")
		return Disabled{}, nil
	case ProviderGemini:
		if s.APIKey == "" {
			log.Warn("gemini selected but DEMOGEN_GEMINI_API_KEY is empty, llm features disabled")
			return Disabled{}, nil
		}
		g, err := NewGemini(ctx, s)
		if err != nil {
			return nil, err
		}
		log.Info("llm provider ready", logger.String("provider", string(s.Provider)), logger.String("model", s.Model))
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}

// Enabled reports whether c can actually reach a model.
func Enabled(c Client) bool {
	if c == nil {
		return false
	}
	_, disabled := c.(Disabled)
	return !disabled
}

// Disabled is the Client used when no provider is configured.
type Disabled struct{}

func (Disabled) GenerateJSON(context.Context, Request, any) error { return ErrProviderDisabled }
func (Disabled) GenerateText(context.Context, Request) (string, error) {
	return "", ErrProviderDisabled
}

// withDefaultTimeout bounds ctx by d unless the caller already set a deadline.
func withDefaultTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
