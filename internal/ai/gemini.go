package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reportik/reportik/internal/config"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/httpclient"
	"github.com/reportik/reportik/internal/metrics"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider summarizes via the generateContent API
type GeminiProvider struct {
	cfg    config.AIProviderConfig
	client httpclient.Client
}

func NewGeminiProvider(cfg config.AIProviderConfig, client httpclient.Client) *GeminiProvider {
	return &GeminiProvider{cfg: cfg, client: client}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) EstimateCost() int64 {
	model := p.model()
	if strings.Contains(model, "flash") {
		return 1
	}
	if strings.Contains(model, "pro") {
		return 3
	}
	return 2
}

func (p *GeminiProvider) model() string {
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return "gemini-pro"
}

func (p *GeminiProvider) baseURL() string {
	if p.cfg.BaseURL != "" {
		return p.cfg.BaseURL
	}
	return defaultGeminiBaseURL
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Summarize(ctx context.Context, m *metrics.Metrics, periodStart, periodEnd time.Time) (string, error) {
	if p.cfg.APIKey == "" {
		return "", ierr.NewError("gemini api key not configured").
			Mark(ierr.ErrSystem)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(m, periodStart, periodEnd)}}},
		},
	})
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL(), p.model(), p.cfg.APIKey)

	resp, err := p.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    url,
		Body:   body,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithMessage("gemini request failed").
			Mark(ierr.ErrIntegration)
	}

	var out geminiResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", ierr.WithError(err).
			WithMessage("gemini returned an unexpected response").
			Mark(ierr.ErrIntegration)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ierr.NewError("gemini returned no candidates").
			Mark(ierr.ErrIntegration)
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}
