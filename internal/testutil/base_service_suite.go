package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/cache"
	"github.com/reportik/reportik/internal/config"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	"github.com/reportik/reportik/internal/types"
	"github.com/reportik/reportik/internal/validator"
)

// Stores holds the in-memory repositories for testing
type Stores struct {
	AccountRepo *InMemoryAccountStore
	LedgerRepo  *InMemoryLedgerStore
	PaymentRepo *InMemoryPaymentStore
	ClientRepo  *InMemoryClientStore
	ReportRepo  *InMemoryReportStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	gateway   *InMemoryGateway
	publisher *InMemoryWebhookPublisher
	db        postgres.IClient
	cache     cache.Cache
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Billing: config.BillingConfig{
			WebhookSecret: "test-webhook-secret",
			Currency:      "BRL",
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.cache = cache.Initialize(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		AccountRepo: NewInMemoryAccountStore(),
		LedgerRepo:  NewInMemoryLedgerStore(),
		PaymentRepo: NewInMemoryPaymentStore(),
		ClientRepo:  NewInMemoryClientStore(),
		ReportRepo:  NewInMemoryReportStore(),
	}
	s.gateway = NewInMemoryGateway()
	s.publisher = NewInMemoryWebhookPublisher()
	s.db = NewMockPostgresClient()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.AccountRepo.Clear()
	s.stores.LedgerRepo.Clear()
	s.stores.PaymentRepo.Clear()
	s.stores.ClientRepo.Clear()
	s.stores.ReportRepo.Clear()
	s.gateway.Clear()
	s.publisher.Clear()
	s.cache.Flush(s.ctx)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the in-memory stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the programmable payment gateway
func (s *BaseServiceTestSuite) GetGateway() *InMemoryGateway {
	return s.gateway
}

// GetPublisher returns the capturing webhook publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryWebhookPublisher {
	return s.publisher
}

// GetDB returns the mock postgres client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetCache returns the cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetNow returns the time recorded at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
