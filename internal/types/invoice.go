package types

import (
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the canonical state of an invoice in its lifecycle,
// independent of any provider's own status vocabulary. Every adapter owns a
// lookup table from its vendor's codes to this enum.
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice exists locally but has not been sent
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusSigning indicates the provider accepted the invoice and is signing it
	InvoiceStatusSigning InvoiceStatus = "SIGNING"
	// InvoiceStatusSentToProvider indicates the invoice was submitted but not yet acknowledged
	InvoiceStatusSentToProvider InvoiceStatus = "SENT_TO_PROVIDER"
	// InvoiceStatusSuccess indicates the invoice was issued and is legally valid
	InvoiceStatusSuccess InvoiceStatus = "SUCCESS"
	// InvoiceStatusCancelled indicates the invoice was cancelled at the provider
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
	// InvoiceStatusReplaced indicates the invoice was replaced by a newer one
	InvoiceStatusReplaced InvoiceStatus = "REPLACED"
	// InvoiceStatusFailed indicates issuance failed or the provider state is unknown
	InvoiceStatusFailed InvoiceStatus = "FAILED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSigning,
		InvoiceStatusSentToProvider,
		InvoiceStatusSuccess,
		InvoiceStatusCancelled,
		InvoiceStatusReplaced,
		InvoiceStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal returns true when no further provider calls can change the status
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusSuccess ||
		s == InvoiceStatusCancelled ||
		s == InvoiceStatusReplaced ||
		s == InvoiceStatusFailed
}

// ResponseStatus represents the outcome of a single provider call
type ResponseStatus string

const (
	ResponseStatusSuccess ResponseStatus = "SUCCESS"
	ResponseStatusPending ResponseStatus = "PENDING"
	ResponseStatusFailed  ResponseStatus = "FAILED"
	ResponseStatusTimeout ResponseStatus = "TIMEOUT"
)

func (s ResponseStatus) String() string {
	return string(s)
}

func (s ResponseStatus) Validate() error {
	allowed := []ResponseStatus{
		ResponseStatusSuccess,
		ResponseStatusPending,
		ResponseStatusFailed,
		ResponseStatusTimeout,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid response status").
			WithHint("Please provide a valid response status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
