package generation

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-1.5-pro"
)

// Gemini generates text with the Google Generative Language API
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewGemini(apiKey, model, baseURL string, client *http.Client) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Gemini{apiKey: apiKey, model: model, baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model) + ":generateContent"
	request := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}

	var response geminiResponse
	if err := postJSON(ctx, g.client, g.Name(), endpoint, map[string]string{"x-goog-api-key": g.apiKey}, request, &response); err != nil {
		return "", err
	}

	if response.Error != nil {
		return "", &ProviderError{Provider: g.Name(), StatusCode: response.Error.Code, Message: response.Error.Message}
	}
	if len(response.Candidates) == 0 {
		return "", &ProviderError{Provider: g.Name(), Message: "no candidates returned"}
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
