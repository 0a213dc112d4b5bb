package types

import (
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/samber/lo"
)

// ProviderType identifies a government-recognized e-invoice provider.
// Each provider has exactly one adapter registered at process start.
type ProviderType string

const (
	// ProviderTypeBkav uses an encrypted-envelope protocol over HTTPS
	ProviderTypeBkav ProviderType = "bkav"
	// ProviderTypeViettel uses OAuth bearer tokens over REST
	ProviderTypeViettel ProviderType = "viettel"
	// ProviderTypeVnpt uses a static bearer secret over REST
	ProviderTypeVnpt ProviderType = "vnpt"
)

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) Validate() error {
	allowed := []ProviderType{
		ProviderTypeBkav,
		ProviderTypeViettel,
		ProviderTypeVnpt,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid provider type").
			WithHint("Provider type is not supported").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
