package main

import (
	"context"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/cache"
	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/httpclient"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/provider/bkav"
	"github.com/einvoicehub/einvoicehub/internal/provider/viettel"
	"github.com/einvoicehub/einvoicehub/internal/provider/vnpt"
	"github.com/einvoicehub/einvoicehub/internal/repository"
	"github.com/einvoicehub/einvoicehub/internal/security"
	"github.com/einvoicehub/einvoicehub/internal/sequence"
	"github.com/einvoicehub/einvoicehub/internal/service"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"go.uber.org/fx"
)

const docFetchRetries = 3

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			provideCache,

			// Credential handling
			security.NewEncryptionService,
			provider.NewCredentialResolver,
			provideTokenCache,

			// Repositories
			repository.NewSequenceRepository,
			repository.NewProviderConfigRepository,
			repository.NewSyncQueueRepository,

			// Provider adapters
			provideRegistry,

			// Services
			sequence.NewAllocator,
			service.NewServiceParams,
			service.NewIssuanceService,
			provideDispatcher,
			provideCollector,
		),
		fx.Invoke(startCollector),
	)
	app.Run()
}

func provideCache() cache.Cache {
	return cache.NewInMemoryCache()
}

func provideTokenCache(cfg *config.Configuration, c cache.Cache, log *logger.Logger) *provider.TokenCache {
	return provider.NewTokenCache(c, cfg.Cache.TokenSafetyMargin, log)
}

// provideRegistry wires one adapter per supported provider. Each adapter gets
// its own HTTP client so per-provider timeouts bind at the transport level.
// Document fetches go through a retrying client because they are idempotent;
// submissions never do, they retry through the delivery queue.
func provideRegistry(
	cfg *config.Configuration,
	tokenCache *provider.TokenCache,
	resolver *provider.CredentialResolver,
	log *logger.Logger,
) *provider.Registry {
	viettelCfg := cfg.ProviderFor(types.ProviderTypeViettel)
	bkavCfg := cfg.ProviderFor(types.ProviderTypeBkav)
	vnptCfg := cfg.ProviderFor(types.ProviderTypeVnpt)

	return provider.NewRegistry(log,
		viettel.NewAdapter(
			viettelCfg,
			httpclient.NewDefaultClient(viettelCfg.Timeout),
			httpclient.NewRetryableClient(viettelCfg.Timeout, docFetchRetries),
			tokenCache,
			resolver,
			log,
		),
		bkav.NewAdapter(
			bkavCfg,
			httpclient.NewDefaultClient(bkavCfg.Timeout),
			security.NewAESCodec(),
			resolver,
			log,
		),
		vnpt.NewAdapter(
			vnptCfg,
			httpclient.NewDefaultClient(vnptCfg.Timeout),
			httpclient.NewRetryableClient(vnptCfg.Timeout, docFetchRetries),
			resolver,
			log,
		),
	)
}

func provideDispatcher(params service.ServiceParams) *service.SyncDispatcher {
	return service.NewSyncDispatcher(
		params.SyncRepo,
		params.ProviderConfigRepo,
		params.Registry,
		params.Config.Sync,
		params.Logger,
	)
}

func provideCollector(params service.ServiceParams, dispatcher *service.SyncDispatcher) *service.Collector {
	return service.NewCollector(params.SyncRepo, dispatcher, params.Config.Sync, params.Logger)
}

func startCollector(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	collector *service.Collector,
	log *logger.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Infow("starting delivery queue collector",
				"poll_interval", cfg.Sync.PollInterval,
				"batch_size", cfg.Sync.BatchSize,
				"workers", cfg.Sync.Workers,
			)
			go collector.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info("stopping delivery queue collector")
			cancel()
			return nil
		},
	})
}
