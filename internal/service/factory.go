package service

import (
	"github.com/reportik/reportik/internal/ai"
	"github.com/reportik/reportik/internal/billing"
	"github.com/reportik/reportik/internal/cache"
	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/domain/account"
	domainClient "github.com/reportik/reportik/internal/domain/client"
	"github.com/reportik/reportik/internal/domain/ledger"
	"github.com/reportik/reportik/internal/domain/payment"
	"github.com/reportik/reportik/internal/domain/report"
	"github.com/reportik/reportik/internal/httpclient"
	"github.com/reportik/reportik/internal/idempotency"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/metrics"
	"github.com/reportik/reportik/internal/postgres"
	webhookPublisher "github.com/reportik/reportik/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	AccountRepo account.Repository
	LedgerRepo  ledger.Repository
	PaymentRepo payment.Repository
	ClientRepo  domainClient.Repository
	ReportRepo  report.Repository

	// Infrastructure
	Cache            cache.Cache
	Gateway          billing.Gateway
	AIChain          *ai.Chain
	MetricsSource    metrics.Source
	IdempotencyGen   *idempotency.Generator
	WebhookPublisher webhookPublisher.WebhookPublisher

	// http client
	Client httpclient.Client
}

// NewServiceParams assembles the shared dependency bundle
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db *postgres.DB,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	paymentRepo payment.Repository,
	clientRepo domainClient.Repository,
	reportRepo report.Repository,
	cacheClient cache.Cache,
	gateway billing.Gateway,
	aiChain *ai.Chain,
	metricsSource metrics.Source,
	idempotencyGen *idempotency.Generator,
	publisher webhookPublisher.WebhookPublisher,
	client httpclient.Client,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		AccountRepo:      accountRepo,
		LedgerRepo:       ledgerRepo,
		PaymentRepo:      paymentRepo,
		ClientRepo:       clientRepo,
		ReportRepo:       reportRepo,
		Cache:            cacheClient,
		Gateway:          gateway,
		AIChain:          aiChain,
		MetricsSource:    metricsSource,
		IdempotencyGen:   idempotencyGen,
		WebhookPublisher: publisher,
		Client:           client,
	}
}
