package testutil

import (
	"context"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/cache"
	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/domain/sequence"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/provider/bkav"
	"github.com/einvoicehub/einvoicehub/internal/provider/viettel"
	"github.com/einvoicehub/einvoicehub/internal/provider/vnpt"
	"github.com/einvoicehub/einvoicehub/internal/security"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	SequenceRepo       sequence.Repository
	ProviderConfigRepo providerconfig.Repository
	SyncRepo           syncqueue.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: in-memory stores, a mock HTTP client, and the full adapter registry
// wired against it.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	stores     Stores
	httpClient *MockHTTPClient
	registry   *provider.Registry
	tokenCache *provider.TokenCache
	encryption security.EncryptionService
	logger     *logger.Logger
	config     *config.Configuration
	now        time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = config.GetDefaultConfig()

	var err error
	s.logger, err = logger.NewLogger(s.config)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.encryption, err = security.NewEncryptionService(s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create encryption service: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.now = time.Now().UTC()
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SequenceRepo:       NewInMemorySequenceStore(),
		ProviderConfigRepo: NewInMemoryProviderConfigStore(),
		SyncRepo:           NewInMemorySyncQueueStore(),
	}
	s.httpClient = NewMockHTTPClient()
	s.tokenCache = provider.NewTokenCache(cache.NewInMemoryCache(), s.config.Cache.TokenSafetyMargin, s.logger)

	resolver := provider.NewCredentialResolver(s.encryption)
	s.registry = provider.NewRegistry(s.logger,
		viettel.NewAdapter(s.config.ProviderFor(types.ProviderTypeViettel), s.httpClient, s.httpClient, s.tokenCache, resolver, s.logger),
		bkav.NewAdapter(s.config.ProviderFor(types.ProviderTypeBkav), s.httpClient, security.NewAESCodec(), resolver, s.logger),
		vnpt.NewAdapter(s.config.ProviderFor(types.ProviderTypeVnpt), s.httpClient, s.httpClient, resolver, s.logger),
	)
}

// ClearStores clears all the in-memory stores
func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.SequenceRepo.(*InMemorySequenceStore).Clear()
	s.stores.ProviderConfigRepo.(*InMemoryProviderConfigStore).Clear()
	s.stores.SyncRepo.(*InMemorySyncQueueStore).Clear()
	s.httpClient.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the test stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetHTTPClient returns the mock HTTP client
func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.httpClient
}

// GetRegistry returns the adapter registry wired against the mock client
func (s *BaseServiceTestSuite) GetRegistry() *provider.Registry {
	return s.registry
}

// GetTokenCache returns the token cache
func (s *BaseServiceTestSuite) GetTokenCache() *provider.TokenCache {
	return s.tokenCache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetNow returns the current time stamped at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// Encrypt encrypts a credential value with the suite's master key
func (s *BaseServiceTestSuite) Encrypt(value string) string {
	out, err := s.encryption.Encrypt(value)
	s.Require().NoError(err)
	return out
}
