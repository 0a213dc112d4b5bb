package repository

import (
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/domain/sequence"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/repository/inmemory"
)

// The service talks to storage only through the domain repository interfaces,
// so the backend is swappable per deployment. The in-memory backend ships as
// the default; a durable backend implements the same interfaces and replaces
// these constructors.

func NewSequenceRepository(logger *logger.Logger) sequence.Repository {
	return inmemory.NewSequenceRepository()
}

func NewProviderConfigRepository(logger *logger.Logger) providerconfig.Repository {
	return inmemory.NewProviderConfigRepository()
}

func NewSyncQueueRepository(logger *logger.Logger) syncqueue.Repository {
	return inmemory.NewSyncQueueRepository()
}
