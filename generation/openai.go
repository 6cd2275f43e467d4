package generation

import (
	"context"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
)

// OpenAI generates text with the chat completions API
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates an OpenAI provider. Empty model and baseURL use defaults.
func NewOpenAI(apiKey, model, baseURL string, client *http.Client) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{apiKey: apiKey, model: model, baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	request := openAIRequest{
		Model:       o.model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	}

	var response openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/chat/completions", headers, request, &response); err != nil {
		return "", err
	}

	if response.Error != nil {
		return "", &ProviderError{Provider: o.Name(), Message: response.Error.Message}
	}
	if len(response.Choices) == 0 {
		return "", &ProviderError{Provider: o.Name(), Message: "no choices returned"}
	}

	return response.Choices[0].Message.Content, nil
}
