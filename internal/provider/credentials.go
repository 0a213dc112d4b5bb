package provider

import (
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/security"
)

// CredentialResolver decrypts the credential material on a provider config
// into the transient Credentials view adapters work with.
type CredentialResolver struct {
	encryptionService security.EncryptionService
}

// NewCredentialResolver creates a new CredentialResolver
func NewCredentialResolver(encryptionService security.EncryptionService) *CredentialResolver {
	return &CredentialResolver{encryptionService: encryptionService}
}

// Resolve decrypts every credential field that is set on the config
func (r *CredentialResolver) Resolve(cfg *providerconfig.ProviderConfig) (*providerconfig.Credentials, error) {
	creds := &providerconfig.Credentials{}
	fields := []struct {
		name      string
		encrypted string
		target    *string
	}{
		{"username", cfg.EncryptedUsername, &creds.Username},
		{"password", cfg.EncryptedPassword, &creds.Password},
		{"app_id", cfg.EncryptedAppID, &creds.AppID},
		{"app_secret", cfg.EncryptedAppSecret, &creds.AppSecret},
		{"partner_guid", cfg.EncryptedPartnerGUID, &creds.PartnerGUID},
		{"partner_token", cfg.EncryptedPartnerToken, &creds.PartnerToken},
		{"cert_data", cfg.EncryptedCertData, &creds.CertData},
	}
	for _, f := range fields {
		if f.encrypted == "" {
			continue
		}
		plain, err := r.encryptionService.Decrypt(f.encrypted)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Failed to decrypt %s for provider config", f.name).
				WithReportableDetails(map[string]any{
					"provider_config_id": cfg.ID,
					"field":              f.name,
				}).
				Mark(ierr.ErrInternal)
		}
		*f.target = plain
	}
	return creds, nil
}
