package provider

import (
	"strings"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
)

// EffectiveTimeout resolves the call timeout: a merchant-level override on
// the provider config wins over the deployment default.
func EffectiveTimeout(deployment config.ProviderConfig, cfg *providerconfig.ProviderConfig) time.Duration {
	if cfg != nil && cfg.Timeout > 0 {
		return cfg.Timeout
	}
	if deployment.Timeout > 0 {
		return deployment.Timeout
	}
	return 30 * time.Second
}

// EffectiveBaseURL resolves the provider endpoint, preferring the merchant
// override on the provider config.
func EffectiveBaseURL(deployment config.ProviderConfig, cfg *providerconfig.ProviderConfig) string {
	base := deployment.BaseURL
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	return strings.TrimRight(base, "/")
}
