package invoice

import (
	"encoding/json"
	"time"

	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/shopspring/decimal"
)

// Party is the provider-agnostic seller or buyer shape
type Party struct {
	Name        string `json:"name"`
	TaxCode     string `json:"tax_code,omitempty"`
	Address     string `json:"address"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	BankAccount string `json:"bank_account,omitempty"`
	BankName    string `json:"bank_name,omitempty"`
}

// LineItem is one canonical invoice line
type LineItem struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// Summary carries the invoice totals
type Summary struct {
	SubTotal      decimal.Decimal `json:"sub_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	AmountInWords string          `json:"amount_in_words,omitempty"`
}

// CanonicalRequest is the provider-agnostic invoice issuance request all
// adapters translate from. Field-level validation is the collaborator's
// responsibility; the core checks only what it needs to dispatch safely.
type CanonicalRequest struct {
	// The transaction_id makes submissions idempotent at the provider
	TransactionID string `json:"transaction_id"`
	TemplateCode  string `json:"template_code"`
	SymbolCode    string `json:"symbol_code"`
	// The invoice_number is allocated by the sequence allocator before dispatch
	InvoiceNumber int64     `json:"invoice_number"`
	IssuedDate    time.Time `json:"issued_date"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Seller        Party     `json:"seller"`
	Buyer         Party     `json:"buyer"`
	Items         []LineItem `json:"items"`
	Summary       Summary    `json:"summary"`
	Notes         string     `json:"notes,omitempty"`
}

// Validate checks the structural essentials the core needs before dispatch
func (r *CanonicalRequest) Validate() error {
	if r.TransactionID == "" {
		return ierr.NewError("missing transaction id").
			WithHint("Transaction id is required for idempotent submission").
			Mark(ierr.ErrValidation)
	}
	if r.InvoiceNumber < 1 {
		return ierr.NewError("missing invoice number").
			WithHint("Invoice number must be allocated before dispatch").
			Mark(ierr.ErrValidation)
	}
	if len(r.Items) == 0 {
		return ierr.NewError("invoice has no line items").
			WithHint("At least one line item is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanonicalResponse is the normalized outcome of a provider call. Expected
// business failures are carried here as FAILED with the provider's error code
// preserved verbatim, never as Go errors.
type CanonicalResponse struct {
	Status types.ResponseStatus `json:"status"`
	// The external_id is the provider's identifier for the invoice
	ExternalID string `json:"external_id,omitempty"`
	// The invoice_no is the provider-confirmed fiscal number (optional)
	InvoiceNo string `json:"invoice_no,omitempty"`
	// The error_kind classifies the failure for retry decisions
	ErrorKind types.ErrorKind `json:"error_kind,omitempty"`
	// The error_code is the provider-specific code, preserved verbatim
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	// Raw is the provider's response body for auditing (optional)
	Raw json.RawMessage `json:"raw,omitempty"`
}

// NewSuccessResponse builds a SUCCESS canonical response
func NewSuccessResponse(externalID, invoiceNo string, raw []byte) *CanonicalResponse {
	return &CanonicalResponse{
		Status:     types.ResponseStatusSuccess,
		ExternalID: externalID,
		InvoiceNo:  invoiceNo,
		Raw:        raw,
	}
}

// NewFailedResponse builds a FAILED canonical response preserving the
// provider's error code verbatim
func NewFailedResponse(kind types.ErrorKind, code, message string) *CanonicalResponse {
	return &CanonicalResponse{
		Status:       types.ResponseStatusFailed,
		ErrorKind:    kind,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}

// NewTimeoutResponse builds a TIMEOUT canonical response; timeouts are
// transient and routed into the normal retry path
func NewTimeoutResponse(message string) *CanonicalResponse {
	return &CanonicalResponse{
		Status:       types.ResponseStatusTimeout,
		ErrorKind:    types.ErrorKindTransient,
		ErrorMessage: message,
	}
}

// IsRetryable reports whether the delivery queue may replay the call
func (r *CanonicalResponse) IsRetryable() bool {
	if r.Status == types.ResponseStatusTimeout {
		return true
	}
	return r.Status == types.ResponseStatusFailed && r.ErrorKind.IsRetryable()
}

// CanonicalStatus is the normalized provider-side invoice state
type CanonicalStatus struct {
	Status types.InvoiceStatus `json:"status"`
	// The provider_code is the vendor's own status vocabulary, kept for auditing
	ProviderCode string          `json:"provider_code"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// DocumentFormat is the representation of a fetched invoice document
type DocumentFormat string

const (
	DocumentFormatPDF DocumentFormat = "pdf"
	DocumentFormatXML DocumentFormat = "xml"
)

// Document is a fetched invoice artifact; either Content or URL is set
type Document struct {
	Format  DocumentFormat `json:"format"`
	Content []byte         `json:"content,omitempty"`
	URL     string         `json:"url,omitempty"`
}
