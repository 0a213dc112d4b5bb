package provider

import (
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// Registry resolves a provider code to its adapter instance. It is built
// once during process initialization and passed by reference to callers;
// registration after startup is not supported.
type Registry struct {
	adapters map[types.ProviderType]Adapter
	logger   *logger.Logger
}

// NewRegistry creates a registry from the given adapters
func NewRegistry(logger *logger.Logger, adapters ...Adapter) *Registry {
	m := make(map[types.ProviderType]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ProviderType()] = a
		logger.Infow("registered provider adapter", "provider", a.ProviderType())
	}
	return &Registry{
		adapters: m,
		logger:   logger,
	}
}

// Get returns the adapter for a provider type
func (r *Registry) Get(provider types.ProviderType) (Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, ierr.NewError("unsupported provider").
			WithHint("Provider type has no registered adapter").
			WithReportableDetails(map[string]any{
				"provider": provider,
			}).
			Mark(ierr.ErrValidation)
	}
	return adapter, nil
}

// List returns all registered provider types
func (r *Registry) List() []types.ProviderType {
	out := make([]types.ProviderType, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}
