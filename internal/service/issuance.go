package service

import (
	"context"
	"encoding/json"

	"github.com/einvoicehub/einvoicehub/internal/config"
	domainsequence "github.com/einvoicehub/einvoicehub/internal/domain/sequence"
	"github.com/einvoicehub/einvoicehub/internal/domain/invoice"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/sequence"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// ServiceParams bundles the shared dependencies every service needs
type ServiceParams struct {
	Logger             *logger.Logger
	Config             *config.Configuration
	Allocator          sequence.Allocator
	Registry           *provider.Registry
	SequenceRepo       domainsequence.Repository
	ProviderConfigRepo providerconfig.Repository
	SyncRepo           syncqueue.Repository
}

// IssueParams are the inputs for issuing one invoice
type IssueParams struct {
	// The invoice_id is the caller's identifier for the invoice being issued
	InvoiceID string
	// The template_id selects the number range to allocate from
	TemplateID string
	// The provider_config_id selects the merchant's provider connection
	ProviderConfigID string
	// Request is the canonical invoice without a number; the service fills
	// InvoiceNumber, TemplateCode and SymbolCode from the template
	Request *invoice.CanonicalRequest
	// ReplacesExternalID, when set, issues this as a replacement invoice
	ReplacesExternalID string
}

// IssueResult is the outcome of an issuance attempt. When the provider call
// failed transiently the response reflects that failure and QueueEntryID names
// the entry that will replay it.
type IssueResult struct {
	Response      *invoice.CanonicalResponse `json:"response"`
	InvoiceNumber int64                      `json:"invoice_number"`
	QueueEntryID  string                     `json:"queue_entry_id,omitempty"`
}

// IssuanceService orchestrates invoice issuance end to end: allocate a
// sequential number, translate through the provider's adapter, and hand
// transient failures to the delivery queue. A number, once allocated, is
// consumed even when issuance later fails; gaps on the provider side are the
// collaborator's reconciliation problem, holes in the local sequence are not
// allowed.
type IssuanceService interface {
	Issue(ctx context.Context, params IssueParams) (*IssueResult, error)
	Cancel(ctx context.Context, providerConfigID, externalID, reason string) (*invoice.CanonicalResponse, error)
	GetStatus(ctx context.Context, providerConfigID, externalID string) (*invoice.CanonicalStatus, error)
	GetDocument(ctx context.Context, providerConfigID, externalID string, format invoice.DocumentFormat) (*invoice.Document, error)
	TestConnection(ctx context.Context, providerConfigID string) error
}

type issuanceService struct {
	ServiceParams
}

// NewIssuanceService creates a new IssuanceService
func NewIssuanceService(params ServiceParams) IssuanceService {
	return &issuanceService{ServiceParams: params}
}

func (s *issuanceService) Issue(ctx context.Context, params IssueParams) (*IssueResult, error) {
	if params.Request == nil {
		return nil, ierr.NewError("missing invoice request").
			WithHint("Issue requires a canonical invoice request").
			Mark(ierr.ErrValidation)
	}

	cfg, adapter, err := s.resolve(ctx, params.ProviderConfigID)
	if err != nil {
		return nil, err
	}

	template, err := s.SequenceRepo.GetTemplate(ctx, params.TemplateID)
	if err != nil {
		return nil, err
	}

	req := params.Request
	if req.TemplateCode == "" {
		req.TemplateCode = template.TemplateCode
	}
	if req.SymbolCode == "" {
		req.SymbolCode = template.SymbolCode
	}
	if req.TransactionID == "" {
		// Providers cap the transaction reference length, so no ULID here
		req.TransactionID = types.GenerateShortID()
	}

	number, err := s.Allocator.Allocate(ctx, params.TemplateID)
	if err != nil {
		return nil, err
	}
	req.InvoiceNumber = number

	var resp *invoice.CanonicalResponse
	if params.ReplacesExternalID != "" {
		resp, err = adapter.Replace(ctx, cfg, params.ReplacesExternalID, req)
	} else {
		resp, err = adapter.Issue(ctx, cfg, req)
	}
	if err != nil {
		return nil, err
	}

	result := &IssueResult{Response: resp, InvoiceNumber: number}
	if resp.IsRetryable() {
		entryID, qerr := s.enqueueSubmit(ctx, params, cfg, resp)
		if qerr != nil {
			return nil, qerr
		}
		result.QueueEntryID = entryID
	}

	s.Logger.Infow("invoice issuance attempted",
		"invoice_id", params.InvoiceID,
		"provider", cfg.ProviderType,
		"invoice_number", number,
		"status", resp.Status,
		"queue_entry_id", result.QueueEntryID)
	return result, nil
}

// enqueueSubmit persists a SUBMIT entry carrying everything the dispatcher
// needs to replay the call. The allocated number rides along in the payload:
// a replay must reuse it, never allocate a second one.
func (s *issuanceService) enqueueSubmit(ctx context.Context, params IssueParams, cfg *providerconfig.ProviderConfig, resp *invoice.CanonicalResponse) (string, error) {
	payload, err := json.Marshal(syncPayload{
		Request:    params.Request,
		ReplacesID: params.ReplacesExternalID,
		ExternalID: resp.ExternalID,
	})
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	entry, err := syncqueue.NewEntry(types.GetDefaultBaseModel(ctx), syncqueue.NewEntryParams{
		InvoiceID:        params.InvoiceID,
		TransactionID:    params.Request.TransactionID,
		ProviderType:     cfg.ProviderType,
		ProviderConfigID: cfg.ID,
		SyncType:         types.SyncTypeSubmit,
		MaxAttempts:      s.Config.Sync.MaxAttempts,
		Payload:          payload,
		LastError:        failureText(resp),
	})
	if err != nil {
		return "", err
	}
	if err := s.SyncRepo.Create(ctx, entry); err != nil {
		return "", err
	}

	s.Logger.Infow("queued issuance for retry",
		"entry_id", entry.ID,
		"invoice_id", params.InvoiceID,
		"transaction_id", params.Request.TransactionID)
	return entry.ID, nil
}

func (s *issuanceService) Cancel(ctx context.Context, providerConfigID, externalID, reason string) (*invoice.CanonicalResponse, error) {
	if externalID == "" {
		return nil, ierr.NewError("missing external id").
			WithHint("Cancel requires the provider's invoice identifier").
			Mark(ierr.ErrValidation)
	}
	cfg, adapter, err := s.resolve(ctx, providerConfigID)
	if err != nil {
		return nil, err
	}
	return adapter.Cancel(ctx, cfg, externalID, reason)
}

func (s *issuanceService) GetStatus(ctx context.Context, providerConfigID, externalID string) (*invoice.CanonicalStatus, error) {
	cfg, adapter, err := s.resolve(ctx, providerConfigID)
	if err != nil {
		return nil, err
	}
	return adapter.GetStatus(ctx, cfg, externalID)
}

func (s *issuanceService) GetDocument(ctx context.Context, providerConfigID, externalID string, format invoice.DocumentFormat) (*invoice.Document, error) {
	cfg, adapter, err := s.resolve(ctx, providerConfigID)
	if err != nil {
		return nil, err
	}
	if format == invoice.DocumentFormatXML {
		return adapter.GetXML(ctx, cfg, externalID)
	}
	return adapter.GetPDF(ctx, cfg, externalID)
}

func (s *issuanceService) TestConnection(ctx context.Context, providerConfigID string) error {
	cfg, adapter, err := s.resolve(ctx, providerConfigID)
	if err != nil {
		return err
	}
	return adapter.TestConnection(ctx, cfg)
}

// resolve loads an active provider config and the adapter registered for its
// provider type
func (s *issuanceService) resolve(ctx context.Context, providerConfigID string) (*providerconfig.ProviderConfig, provider.Adapter, error) {
	cfg, err := s.ProviderConfigRepo.Get(ctx, providerConfigID)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.IsActive() {
		return nil, nil, ierr.NewError("provider config is not active").
			WithHint("Archived provider configs cannot make provider calls").
			WithReportableDetails(map[string]any{
				"provider_config_id": providerConfigID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	adapter, err := s.Registry.Get(cfg.ProviderType)
	if err != nil {
		return nil, nil, err
	}
	return cfg, adapter, nil
}
