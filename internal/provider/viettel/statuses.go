package viettel

import "github.com/einvoicehub/einvoicehub/internal/types"

// statusTable maps Viettel's invoice status vocabulary to the canonical
// enum. The table is exhaustive for the statuses the API documents; anything
// unlisted normalizes to FAILED rather than being silently dropped.
var statusTable = map[string]types.InvoiceStatus{
	"CREATED":            types.InvoiceStatusDraft,
	"WAITING_FOR_SIGN":   types.InvoiceStatusSigning,
	"SIGNING":            types.InvoiceStatusSigning,
	"SENT":               types.InvoiceStatusSentToProvider,
	"ISSUED":             types.InvoiceStatusSuccess,
	"SIGNED":             types.InvoiceStatusSuccess,
	"CANCELLED":          types.InvoiceStatusCancelled,
	"ADJUSTED":           types.InvoiceStatusReplaced,
	"REPLACED":           types.InvoiceStatusReplaced,
	"ISSUE_FAILED":       types.InvoiceStatusFailed,
	"SIGN_FAILED":        types.InvoiceStatusFailed,
}

// NormalizeStatus maps a Viettel status code to the canonical invoice status
func NormalizeStatus(code string) types.InvoiceStatus {
	if status, ok := statusTable[code]; ok {
		return status
	}
	return types.InvoiceStatusFailed
}

// errorKindTable classifies Viettel's error codes. Codes the API documents
// as input problems are validation, infrastructure codes are transient, tax
// compliance rejections are business and never auto-retried.
var errorKindTable = map[string]types.ErrorKind{
	"400":                types.ErrorKindValidation,
	"INVALID_PARAMETER":  types.ErrorKindValidation,
	"DUPLICATE_INVOICE":  types.ErrorKindValidation,
	"401":                types.ErrorKindAuth,
	"UNAUTHORIZED":       types.ErrorKindAuth,
	"TOKEN_EXPIRED":      types.ErrorKindAuth,
	"500":                types.ErrorKindTransient,
	"503":                types.ErrorKindTransient,
	"SERVICE_BUSY":       types.ErrorKindTransient,
	"TAX_CODE_INVALID":   types.ErrorKindBusiness,
	"TEMPLATE_NOT_FOUND": types.ErrorKindBusiness,
	"INVOICE_REJECTED":   types.ErrorKindBusiness,
	"RANGE_EXHAUSTED":    types.ErrorKindExhaustion,
}

// ClassifyError maps a Viettel error code to an error kind. Unknown codes
// default to business so an operator looks at them instead of the queue
// retrying blindly.
func ClassifyError(code string) types.ErrorKind {
	if kind, ok := errorKindTable[code]; ok {
		return kind
	}
	return types.ErrorKindBusiness
}
