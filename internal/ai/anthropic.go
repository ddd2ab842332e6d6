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

const defaultAnthropicBaseURL = "https://api.anthropic.com"

// AnthropicProvider summarizes via the messages API
type AnthropicProvider struct {
	cfg    config.AIProviderConfig
	client httpclient.Client
}

func NewAnthropicProvider(cfg config.AIProviderConfig, client httpclient.Client) *AnthropicProvider {
	return &AnthropicProvider{cfg: cfg, client: client}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) EstimateCost() int64 {
	model := p.model()
	if strings.Contains(model, "haiku") {
		return 2
	}
	if strings.Contains(model, "sonnet") {
		return 5
	}
	return 3
}

func (p *AnthropicProvider) model() string {
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return "claude-3-haiku-20240307"
}

func (p *AnthropicProvider) baseURL() string {
	if p.cfg.BaseURL != "" {
		return p.cfg.BaseURL
	}
	return defaultAnthropicBaseURL
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *AnthropicProvider) Summarize(ctx context.Context, m *metrics.Metrics, periodStart, periodEnd time.Time) (string, error) {
	if p.cfg.APIKey == "" {
		return "", ierr.NewError("anthropic api key not configured").
			Mark(ierr.ErrSystem)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     p.model(),
		MaxTokens: 1500,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(m, periodStart, periodEnd)},
		},
	})
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	resp, err := p.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    p.baseURL() + "/v1/messages",
		Headers: map[string]string{
			"x-api-key":         p.cfg.APIKey,
			"anthropic-version": "2023-06-01",
		},
		Body: body,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithMessage("anthropic request failed").
			Mark(ierr.ErrIntegration)
	}

	var out anthropicResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", ierr.WithError(err).
			WithMessage("anthropic returned an unexpected response").
			Mark(ierr.ErrIntegration)
	}
	if len(out.Content) == 0 {
		return "", ierr.NewError("anthropic returned no content").
			Mark(ierr.ErrIntegration)
	}

	return out.Content[0].Text, nil
}
