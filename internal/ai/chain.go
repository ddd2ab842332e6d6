package ai

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/reportik/reportik/internal/config"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/httpclient"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/metrics"
)

// Chain tries configured providers in order and returns the first success.
// Each provider gets one retry with exponential backoff before the chain
// moves on.
type Chain struct {
	providers []Provider
	logger    *logger.Logger
}

// NewChain assembles a chain from an ordered provider list
func NewChain(providers []Provider, log *logger.Logger) *Chain {
	return &Chain{providers: providers, logger: log}
}

// NewChainFromConfig builds providers in the order they appear in config.
// Unknown provider names are skipped with a warning.
func NewChainFromConfig(cfg *config.Configuration, client httpclient.Client, log *logger.Logger) *Chain {
	providers := make([]Provider, 0, len(cfg.AI.Providers))
	for _, pc := range cfg.AI.Providers {
		switch strings.ToLower(pc.Name) {
		case "openai":
			providers = append(providers, NewOpenAIProvider(pc, client))
		case "anthropic":
			providers = append(providers, NewAnthropicProvider(pc, client))
		case "gemini", "google":
			providers = append(providers, NewGeminiProvider(pc, client))
		default:
			log.Warnw("unknown ai provider in config, skipping", "name", pc.Name)
		}
	}
	return NewChain(providers, log)
}

// Providers returns the ordered provider list
func (c *Chain) Providers() []Provider {
	return c.providers
}

// EstimateCost returns the first provider's estimate, which is what the
// orchestrator reserves before running the chain
func (c *Chain) EstimateCost() (int64, error) {
	if len(c.providers) == 0 {
		return 0, ierr.NewError("no ai providers configured").
			WithHint("Configure at least one summarization provider").
			Mark(ierr.ErrSystem)
	}
	return c.providers[0].EstimateCost(), nil
}

// Generate runs the fallback loop. A transient provider failure is retried
// once with backoff; then the next provider is tried. When every provider
// fails the aggregated failure is returned as an integration error.
func (c *Chain) Generate(ctx context.Context, m *metrics.Metrics, periodStart, periodEnd time.Time) (*Result, error) {
	if len(c.providers) == 0 {
		return nil, ierr.NewError("no ai providers configured").
			WithHint("Configure at least one summarization provider").
			Mark(ierr.ErrSystem)
	}

	failures := make([]string, 0, len(c.providers))

	for _, provider := range c.providers {
		c.logger.Debugw("trying ai provider", "provider", provider.Name())

		var summary string
		operation := func() error {
			var err error
			summary, err = provider.Summarize(ctx, m, periodStart, periodEnd)
			return err
		}

		bo := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1),
			ctx,
		)
		err := backoff.Retry(operation, bo)
		if err != nil {
			c.logger.Warnw("ai provider failed",
				"provider", provider.Name(),
				"error", err,
			)
			failures = append(failures, provider.Name()+": "+err.Error())
			continue
		}

		cost := provider.EstimateCost()
		c.logger.Infow("ai summary generated",
			"provider", provider.Name(),
			"cost", cost,
		)
		return &Result{
			Summary:  summary,
			Provider: provider.Name(),
			Cost:     cost,
		}, nil
	}

	return nil, ierr.NewError("all ai providers failed").
		WithHint("Report generation is temporarily unavailable").
		WithReportableDetails(map[string]interface{}{
			"failures": strings.Join(failures, "; "),
		}).
		Mark(ierr.ErrIntegration)
}
