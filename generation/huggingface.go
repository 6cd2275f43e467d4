package generation

import (
	"context"
	"net/http"
	"strings"
)

const (
	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	defaultHuggingFaceModel   = "meta-llama/Llama-2-7b-chat-hf"
)

// HuggingFace generates text with the hosted inference API
type HuggingFace struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type huggingFaceParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	ReturnFullText    bool    `json:"return_full_text"`
}

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceResult struct {
	GeneratedText string `json:"generated_text"`
}

func NewHuggingFace(apiKey, model, baseURL string, client *http.Client) *HuggingFace {
	if model == "" {
		model = defaultHuggingFaceModel
	}
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HuggingFace{apiKey: apiKey, model: model, baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Generate(ctx context.Context, prompt string) (string, error) {
	request := huggingFaceRequest{
		Inputs: prompt,
		Parameters: huggingFaceParameters{
			MaxNewTokens:      500,
			Temperature:       0.7,
			TopP:              0.95,
			RepetitionPenalty: 1.1,
		},
	}

	var results []huggingFaceResult
	headers := map[string]string{"Authorization": "Bearer " + h.apiKey}
	if err := postJSON(ctx, h.client, h.Name(), h.baseURL+"/models/"+h.model, headers, request, &results); err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "", &ProviderError{Provider: h.Name(), Message: "empty result"}
	}
	return results[0].GeneratedText, nil
}
