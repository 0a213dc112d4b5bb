package service

import (
	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	domainsequence "github.com/einvoicehub/einvoicehub/internal/domain/sequence"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/sequence"
)

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	allocator sequence.Allocator,
	registry *provider.Registry,
	sequenceRepo domainsequence.Repository,
	providerConfigRepo providerconfig.Repository,
	syncRepo syncqueue.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		Allocator:          allocator,
		Registry:           registry,
		SequenceRepo:       sequenceRepo,
		ProviderConfigRepo: providerConfigRepo,
		SyncRepo:           syncRepo,
	}
}
