// Package generation provides the text-generation capability used for
// keyword and meta-tag suggestions. Exactly one provider is active at a time.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/seo-optimizer/seoengine/config"
)

// Generator turns a prompt into generated text. Implementations make a
// single attempt per call and never retry.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrUnavailable is returned when no provider is configured
var ErrUnavailable = errors.New("text generation unavailable")

// ProviderError is returned when a provider answers with a non-2xx status or
// an error payload
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unavailable is the provider used when none is configured
type Unavailable struct{}

func (Unavailable) Name() string { return "none" }

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// New builds the provider selected by cfg. Bedrock needs AWS credentials and
// is loaded through the default AWS configuration chain.
func New(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	client := &http.Client{Timeout: cfg.Timeout()}

	switch cfg.Provider {
	case "", "none":
		return Unavailable{}, nil
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, client), nil
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.Model, cfg.BaseURL, client), nil
	case "huggingface":
		return NewHuggingFace(cfg.APIKey, cfg.Model, cfg.BaseURL, client), nil
	case "bedrock":
		return NewBedrock(ctx, cfg.Region, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
