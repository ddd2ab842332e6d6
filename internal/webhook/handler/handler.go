package handler

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/httpclient"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/pubsub"
	pubsubRouter "github.com/reportik/reportik/internal/pubsub/router"
	"github.com/reportik/reportik/internal/sentry"
	"github.com/reportik/reportik/internal/types"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub pubsub.PubSub
	config *config.Webhook
	client httpclient.Client
	logger *logger.Logger
	sentry *sentry.Service
}

// NewHandler creates a new webhook delivery handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
	sentry *sentry.Service,
) (Handler, error) {
	return &handler{
		pubSub: pubSub,
		config: &cfg.Webhook,
		client: client,
		logger: logger,
		sentry: sentry,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage processes a single webhook message
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	// set tenant_id in context
	ctx = context.WithValue(ctx, types.CtxTenantID, event.TenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, event.UserID)

	return h.deliver(ctx, &event, msg.UUID)
}

// deliver posts the event payload to the tenant's configured endpoint
func (h *handler) deliver(ctx context.Context, event *types.WebhookEvent, messageUUID string) error {
	tenantCfg, ok := h.config.Tenants[event.TenantID]
	if !ok {
		h.logger.Warnw("tenant config not found",
			"tenant_id", event.TenantID,
			"message_uuid", messageUUID,
		)
		// Don't retry if tenant not found
		return nil
	}

	if !tenantCfg.Enabled {
		h.logger.Debugw("webhooks disabled for tenant",
			"tenant_id", event.TenantID,
			"message_uuid", messageUUID,
		)
		return nil
	}

	for _, excludedEvent := range tenantCfg.ExcludedEvents {
		if excludedEvent == event.EventName {
			h.logger.Debugw("event excluded for tenant",
				"tenant_id", event.TenantID,
				"event", event.EventName,
			)
			return nil
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil // Don't retry on marshal errors
	}

	req := &httpclient.Request{
		Method:  "POST",
		URL:     tenantCfg.Endpoint,
		Headers: tenantCfg.Headers,
		Body:    body,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to send webhook",
			"error", err,
			"message_uuid", messageUUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully",
		"message_uuid", messageUUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)

	return nil
}
