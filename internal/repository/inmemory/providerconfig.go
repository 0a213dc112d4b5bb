package inmemory

import (
	"context"

	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// ProviderConfigRepository implements providerconfig.Repository
type ProviderConfigRepository struct {
	*Store[*providerconfig.ProviderConfig]
}

// NewProviderConfigRepository creates a new in-memory provider config repository
func NewProviderConfigRepository() *ProviderConfigRepository {
	return &ProviderConfigRepository{
		Store: NewStore[*providerconfig.ProviderConfig](),
	}
}

func (s *ProviderConfigRepository) Create(ctx context.Context, config *providerconfig.ProviderConfig) error {
	if config == nil {
		return ierr.NewError("provider config cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.Store.Create(ctx, config.ID, config)
}

func (s *ProviderConfigRepository) Get(ctx context.Context, id string) (*providerconfig.ProviderConfig, error) {
	return s.Store.Get(ctx, id)
}

func (s *ProviderConfigRepository) GetByProvider(ctx context.Context, provider types.ProviderType) (*providerconfig.ProviderConfig, error) {
	configs, err := s.Store.List(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if cfg.ProviderType == provider && cfg.IsActive() {
			return cfg, nil
		}
	}
	return nil, ierr.NewError("no active config for provider").
		WithReportableDetails(map[string]any{"provider": provider}).
		Mark(ierr.ErrNotFound)
}

func (s *ProviderConfigRepository) Update(ctx context.Context, config *providerconfig.ProviderConfig) error {
	return s.Store.Update(ctx, config.ID, config)
}

func (s *ProviderConfigRepository) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// Clear clears the provider config repository
func (s *ProviderConfigRepository) Clear() {
	s.Store.Clear()
}
