package webhook

import (
	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/pubsub"
	"github.com/reportik/reportik/internal/pubsub/memory"
	"github.com/reportik/reportik/internal/types"
	"github.com/reportik/reportik/internal/webhook/handler"
	"github.com/reportik/reportik/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		// PubSub for sending webhook events
		providePubSub,
	),

	fx.Provide(
		// Publisher for sending webhook events
		publisher.NewPublisher,

		// Handler for delivering webhook events
		handler.NewHandler,

		// Main webhook service
		NewWebhookService,
	),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger)
	}
	panic("unsupported pubsub type")
}
