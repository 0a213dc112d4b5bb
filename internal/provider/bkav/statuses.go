package bkav

import "github.com/einvoicehub/einvoicehub/internal/types"

// statusTable maps the partner API's numeric invoice status vocabulary to
// the canonical enum. Unlisted codes normalize to FAILED.
var statusTable = map[string]types.InvoiceStatus{
	"1": types.InvoiceStatusDraft,          // created, not yet signed
	"2": types.InvoiceStatusSigning,        // queued for signing
	"3": types.InvoiceStatusSuccess,        // signed and issued
	"4": types.InvoiceStatusSentToProvider, // submitted, awaiting processing
	"5": types.InvoiceStatusCancelled,
	"6": types.InvoiceStatusReplaced,
	"7": types.InvoiceStatusFailed, // signing failed
}

// NormalizeStatus maps a partner status code to the canonical invoice status
func NormalizeStatus(code string) types.InvoiceStatus {
	if status, ok := statusTable[code]; ok {
		return status
	}
	return types.InvoiceStatusFailed
}

// Result statuses on the decrypted command result. The vendor overloads one
// integer for both infrastructure and compliance failures, so the table is
// what keeps retry behaviour honest.
var errorKindTable = map[int]types.ErrorKind{
	1:  types.ErrorKindValidation, // malformed command object
	2:  types.ErrorKindAuth,       // partner GUID/token mismatch
	3:  types.ErrorKindBusiness,   // invoice data rejected
	4:  types.ErrorKindBusiness,   // duplicate fiscal number
	5:  types.ErrorKindExhaustion, // serial range exhausted at provider
	20: types.ErrorKindTransient,  // internal processing error, retry later
	21: types.ErrorKindTransient,  // signing service unavailable
}

// ClassifyError maps a partner result status to an error kind
func ClassifyError(status int) types.ErrorKind {
	if kind, ok := errorKindTable[status]; ok {
		return kind
	}
	return types.ErrorKindBusiness
}
