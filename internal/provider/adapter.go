package provider

import (
	"context"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/domain/invoice"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// Token is a provider access token with its expiry
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Adapter translates the canonical invoice request/response into one
// provider's protocol. Every network-calling method is bounded by the
// provider's configured timeout. Expected business failures come back as
// canonical FAILED responses with the vendor's error code preserved
// verbatim; Go errors are reserved for pre-flight problems such as missing
// credentials or malformed input.
type Adapter interface {
	ProviderType() types.ProviderType

	// Issue submits a new invoice for issuance
	Issue(ctx context.Context, cfg *providerconfig.ProviderConfig, req *invoice.CanonicalRequest) (*invoice.CanonicalResponse, error)

	// GetStatus fetches the provider-side state of an issued invoice
	GetStatus(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.CanonicalStatus, error)

	// Cancel voids an issued invoice at the provider
	Cancel(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string, reason string) (*invoice.CanonicalResponse, error)

	// Replace issues a replacement invoice for a previously issued one
	Replace(ctx context.Context, cfg *providerconfig.ProviderConfig, oldExternalID string, req *invoice.CanonicalRequest) (*invoice.CanonicalResponse, error)

	// GetPDF fetches the signed invoice as a PDF
	GetPDF(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.Document, error)

	// GetXML fetches the signed invoice XML
	GetXML(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.Document, error)

	// Authenticate obtains a fresh access token; adapters with static
	// credentials synthesize a long-lived token
	Authenticate(ctx context.Context, cfg *providerconfig.ProviderConfig) (*Token, error)

	// TestConnection verifies the config can reach and authenticate
	// against the provider
	TestConnection(ctx context.Context, cfg *providerconfig.ProviderConfig) error
}
