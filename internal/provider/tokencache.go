package provider

import (
	"context"
	"sync"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/cache"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/logger"
)

const tokenCachePrefix = "provider:token:"

// TokenCache caches provider access tokens per provider config, refreshing
// through the adapter's Authenticate when the cached token is inside the
// safety margin of its expiry. Refreshes are serialized per config: a second
// caller observing a refresh in progress waits for and reuses its result
// instead of authenticating again.
type TokenCache struct {
	cache        cache.Cache
	safetyMargin time.Duration
	logger       *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTokenCache creates a new TokenCache
func NewTokenCache(c cache.Cache, safetyMargin time.Duration, logger *logger.Logger) *TokenCache {
	if safetyMargin == 0 {
		safetyMargin = 5 * time.Minute
	}
	return &TokenCache{
		cache:        c,
		safetyMargin: safetyMargin,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (tc *TokenCache) lockFor(configID string) *sync.Mutex {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if l, ok := tc.locks[configID]; ok {
		return l
	}
	l := &sync.Mutex{}
	tc.locks[configID] = l
	return l
}

// GetValidToken returns the cached token when it is still comfortably inside
// its validity window, otherwise authenticates and caches the fresh token.
// Entries are scoped per provider config, never shared across merchants.
func (tc *TokenCache) GetValidToken(
	ctx context.Context,
	cfg *providerconfig.ProviderConfig,
	authenticate func(ctx context.Context) (*Token, error),
) (*Token, error) {
	key := tokenCachePrefix + cfg.ID

	if tok := tc.cachedToken(ctx, key); tok != nil {
		return tok, nil
	}

	lock := tc.lockFor(cfg.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check after acquiring the lock: a concurrent caller may have
	// finished the refresh while we waited.
	if tok := tc.cachedToken(ctx, key); tok != nil {
		return tok, nil
	}

	token, err := authenticate(ctx)
	if err != nil {
		return nil, err
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl > 0 {
		tc.cache.Set(ctx, key, token, ttl)
	}
	tc.logger.Debugw("refreshed provider token",
		"provider_config_id", cfg.ID,
		"provider", cfg.ProviderType,
		"expires_at", token.ExpiresAt)
	return token, nil
}

// Invalidate drops the cached token for a config. Called when a provider
// rejects a cached token with 401 so the next call authenticates afresh.
func (tc *TokenCache) Invalidate(ctx context.Context, configID string) {
	tc.cache.Delete(ctx, tokenCachePrefix+configID)
}

func (tc *TokenCache) cachedToken(ctx context.Context, key string) *Token {
	v, ok := tc.cache.Get(ctx, key)
	if !ok {
		return nil
	}
	token, ok := v.(*Token)
	if !ok {
		return nil
	}
	if time.Now().Add(tc.safetyMargin).Before(token.ExpiresAt) {
		return token
	}
	return nil
}
