package providerconfig

import (
	"context"

	"github.com/einvoicehub/einvoicehub/internal/types"
)

// Repository defines the interface for provider config persistence
type Repository interface {
	Create(ctx context.Context, config *ProviderConfig) error
	Get(ctx context.Context, id string) (*ProviderConfig, error)
	GetByProvider(ctx context.Context, provider types.ProviderType) (*ProviderConfig, error)
	Update(ctx context.Context, config *ProviderConfig) error
	Delete(ctx context.Context, id string) error
}
