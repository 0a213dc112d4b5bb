package provider

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/cache"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(id string) *providerconfig.ProviderConfig {
	return &providerconfig.ProviderConfig{
		ID:           id,
		ProviderType: types.ProviderTypeViettel,
		TaxCode:      "0100109106",
		BaseModel:    types.BaseModel{Status: types.StatusPublished},
	}
}

func countingAuth(calls *int, token string, ttl time.Duration) func(ctx context.Context) (*Token, error) {
	return func(ctx context.Context) (*Token, error) {
		*calls++
		return &Token{
			AccessToken: token,
			ExpiresAt:   time.Now().Add(ttl),
		}, nil
	}
}

func TestTokenCacheReusesCachedToken(t *testing.T) {
	tc := NewTokenCache(cache.NewInMemoryCache(), time.Minute, logger.L)
	cfg := testConfig("pcfg_1")
	ctx := context.Background()

	calls := 0
	auth := countingAuth(&calls, "tok-1", time.Hour)

	first, err := tc.GetValidToken(ctx, cfg, auth)
	require.NoError(t, err)
	second, err := tc.GetValidToken(ctx, cfg, auth)
	require.NoError(t, err)

	assert.Equal(t, "tok-1", first.AccessToken)
	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, 1, calls, "second call must hit the cache")
}

func TestTokenCacheRefreshesInsideSafetyMargin(t *testing.T) {
	// Safety margin exceeds the token TTL, so the cached token is never
	// considered valid and every call re-authenticates.
	tc := NewTokenCache(cache.NewInMemoryCache(), time.Hour, logger.L)
	cfg := testConfig("pcfg_1")
	ctx := context.Background()

	calls := 0
	auth := countingAuth(&calls, "tok", 30*time.Minute)

	_, err := tc.GetValidToken(ctx, cfg, auth)
	require.NoError(t, err)
	_, err = tc.GetValidToken(ctx, cfg, auth)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestTokenCacheInvalidateForcesRefresh(t *testing.T) {
	tc := NewTokenCache(cache.NewInMemoryCache(), time.Minute, logger.L)
	cfg := testConfig("pcfg_1")
	ctx := context.Background()

	calls := 0
	auth := countingAuth(&calls, "tok", time.Hour)

	_, err := tc.GetValidToken(ctx, cfg, auth)
	require.NoError(t, err)

	tc.Invalidate(ctx, cfg.ID)

	_, err = tc.GetValidToken(ctx, cfg, auth)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenCacheScopedPerConfig(t *testing.T) {
	tc := NewTokenCache(cache.NewInMemoryCache(), time.Minute, logger.L)
	ctx := context.Background()

	callsA, callsB := 0, 0
	_, err := tc.GetValidToken(ctx, testConfig("pcfg_a"), countingAuth(&callsA, "tok-a", time.Hour))
	require.NoError(t, err)
	_, err = tc.GetValidToken(ctx, testConfig("pcfg_b"), countingAuth(&callsB, "tok-b", time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, callsA)
	assert.Equal(t, 1, callsB, "tokens are never shared across configs")
}

func TestTokenCacheSerializesConcurrentRefresh(t *testing.T) {
	tc := NewTokenCache(cache.NewInMemoryCache(), time.Minute, logger.L)
	cfg := testConfig("pcfg_1")
	ctx := context.Background()

	var (
		mu    sync.Mutex
		calls int
	)
	auth := func(ctx context.Context) (*Token, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return &Token{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := tc.GetValidToken(ctx, cfg, auth)
			assert.NoError(t, err)
			assert.Equal(t, "tok", tok.AccessToken)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls, "concurrent callers must share one refresh")
}

func TestTokenCacheAuthFailurePropagates(t *testing.T) {
	tc := NewTokenCache(cache.NewInMemoryCache(), time.Minute, logger.L)
	cfg := testConfig("pcfg_1")
	ctx := context.Background()

	authErr := ierr.NewError("bad credentials").Mark(ierr.ErrProviderAuth)
	_, err := tc.GetValidToken(ctx, cfg, func(ctx context.Context) (*Token, error) {
		return nil, authErr
	})
	require.Error(t, err)
	assert.True(t, ierr.IsProviderAuth(err))
}
