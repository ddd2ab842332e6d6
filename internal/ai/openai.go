package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/reportik/reportik/internal/config"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/httpclient"
	"github.com/reportik/reportik/internal/metrics"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIProvider summarizes via the chat completions API
type OpenAIProvider struct {
	cfg    config.AIProviderConfig
	client httpclient.Client
}

func NewOpenAIProvider(cfg config.AIProviderConfig, client httpclient.Client) *OpenAIProvider {
	return &OpenAIProvider{cfg: cfg, client: client}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) EstimateCost() int64 {
	model := p.model()
	if strings.Contains(model, "gpt-4o-mini") {
		return 1
	}
	if strings.Contains(model, "gpt-4") {
		return 10
	}
	return 5
}

func (p *OpenAIProvider) model() string {
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return "gpt-4o-mini"
}

func (p *OpenAIProvider) baseURL() string {
	if p.cfg.BaseURL != "" {
		return p.cfg.BaseURL
	}
	return defaultOpenAIBaseURL
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Summarize(ctx context.Context, m *metrics.Metrics, periodStart, periodEnd time.Time) (string, error) {
	if p.cfg.APIKey == "" {
		return "", ierr.NewError("openai api key not configured").
			Mark(ierr.ErrSystem)
	}

	body, err := json.Marshal(openAIRequest{
		Model: p.model(),
		Messages: []openAIMessage{
			{Role: "system", Content: "You are a digital marketing analyst specialized in performance reports."},
			{Role: "user", Content: buildPrompt(m, periodStart, periodEnd)},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := p.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    p.baseURL() + "/v1/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + p.cfg.APIKey,
		},
		Body: body,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithMessage("openai request failed").
			Mark(ierr.ErrIntegration)
	}

	var out openAIResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", ierr.WithError(err).
			WithMessage("openai returned an unexpected response").
			Mark(ierr.ErrIntegration)
	}
	if len(out.Choices) == 0 {
		return "", ierr.NewError("openai returned no choices").
			Mark(ierr.ErrIntegration)
	}

	return out.Choices[0].Message.Content, nil
}
