package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/reportik/reportik/internal/ai"
	"github.com/reportik/reportik/internal/api"
	v1 "github.com/reportik/reportik/internal/api/v1"
	"github.com/reportik/reportik/internal/billing"
	"github.com/reportik/reportik/internal/cache"
	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/httpclient"
	"github.com/reportik/reportik/internal/idempotency"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/metrics"
	"github.com/reportik/reportik/internal/postgres"
	pubsubRouter "github.com/reportik/reportik/internal/pubsub/router"
	"github.com/reportik/reportik/internal/repository"
	"github.com/reportik/reportik/internal/sentry"
	"github.com/reportik/reportik/internal/service"
	"github.com/reportik/reportik/internal/types"
	"github.com/reportik/reportik/internal/validator"
	"github.com/reportik/reportik/internal/webhook"
)

// @title Reportik API
// @version 1.0
// @description Multi-tenant credit ledger and billing reconciliation API
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.Initialize,

			// Postgres
			postgres.NewDB,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Payment gateway
			billing.NewGateway,

			// AI provider chain
			ai.NewChainFromConfig,

			// Campaign metrics
			provideMetricsSource,

			// Idempotency
			idempotency.NewGenerator,

			// Repositories
			repository.NewAccountRepository,
			repository.NewLedgerRepository,
			repository.NewPaymentRepository,
			repository.NewClientRepository,
			repository.NewReportRepository,

			// PubSub
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewAccountService,
			service.NewCreditService,
			service.NewBillingService,
			service.NewReconcilerService,
			service.NewClientService,
			service.NewReportService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideMetricsSource() metrics.Source {
	return metrics.NewSyntheticSource()
}

func provideHandlers(
	logger *logger.Logger,
	accountService service.AccountService,
	creditService service.CreditService,
	billingService service.BillingService,
	reconciler service.ReconcilerService,
	clientService service.ClientService,
	reportService service.ReportService,
) api.Handlers {
	return api.Handlers{
		Account: v1.NewAccountHandler(accountService, creditService, logger),
		Billing: v1.NewBillingHandler(billingService, reconciler, logger),
		Client:  v1.NewClientHandler(clientService, logger),
		Report:  v1.NewReportHandler(reportService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	webhookService *webhook.WebhookService,
	router *pubsubRouter.Router,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeConsumer:
		startMessageRouter(lc, router, webhookService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := webhookService.Start(router); err != nil {
				return err
			}
			go func() {
				if err := router.Run(); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := webhookService.Stop(); err != nil {
				log.Errorw("failed to stop webhook service", "error", err)
			}
			return router.Close()
		},
	})
}
