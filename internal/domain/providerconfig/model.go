package providerconfig

import (
	"time"

	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// ProviderConfig holds one merchant's connection to one provider. Credential
// fields are stored encrypted at rest with the master key; adapters receive
// the decrypted Credentials view. A config is owned exclusively by the
// adapter for its provider type and never shared across providers.
type ProviderConfig struct {
	ID           string             `json:"id"`
	ProviderType types.ProviderType `json:"provider_type"`
	// The tax_code is the merchant's registered tax identifier at the provider
	TaxCode string `json:"tax_code"`
	// The base_url overrides the deployment-level endpoint for this merchant (optional)
	BaseURL string `json:"base_url,omitempty"`
	// The timeout bounds every network call made with this config (optional)
	Timeout time.Duration `json:"timeout,omitempty"`

	// Encrypted credential material; which fields are set depends on the provider
	EncryptedUsername     string `json:"-"`
	EncryptedPassword     string `json:"-"`
	EncryptedAppID        string `json:"-"`
	EncryptedAppSecret    string `json:"-"`
	EncryptedPartnerGUID  string `json:"-"`
	EncryptedPartnerToken string `json:"-"`
	// PEM certificate material for providers that sign on the merchant's behalf (optional)
	EncryptedCertData string `json:"-"`

	types.BaseModel
}

// Credentials is the decrypted view handed to adapters. It is constructed per
// call and never persisted.
type Credentials struct {
	Username     string
	Password     string
	AppID        string
	AppSecret    string
	PartnerGUID  string
	PartnerToken string
	CertData     string
}

// Validate validates the provider config
func (c *ProviderConfig) Validate() error {
	if err := c.ProviderType.Validate(); err != nil {
		return err
	}
	if c.TaxCode == "" {
		return ierr.NewError("missing tax code").
			WithHint("Merchant tax code is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActive reports whether this config may be used for provider calls
func (c *ProviderConfig) IsActive() bool {
	return c.Status == types.StatusPublished
}
