package vnpt

import "github.com/einvoicehub/einvoicehub/internal/types"

// statusTable maps VNPT's status vocabulary to the canonical enum. Unlisted
// codes normalize to FAILED.
var statusTable = map[string]types.InvoiceStatus{
	"NEW":        types.InvoiceStatusDraft,
	"PENDING":    types.InvoiceStatusSentToProvider,
	"SIGNING":    types.InvoiceStatusSigning,
	"PUBLISHED":  types.InvoiceStatusSuccess,
	"CANCELED":   types.InvoiceStatusCancelled,
	"REPLACED":   types.InvoiceStatusReplaced,
	"ADJUSTED":   types.InvoiceStatusReplaced,
	"ERROR":      types.InvoiceStatusFailed,
}

// NormalizeStatus maps a VNPT status code to the canonical invoice status
func NormalizeStatus(code string) types.InvoiceStatus {
	if status, ok := statusTable[code]; ok {
		return status
	}
	return types.InvoiceStatusFailed
}

var errorKindTable = map[string]types.ErrorKind{
	"ERR:1":  types.ErrorKindAuth,       // account or token invalid
	"ERR:3":  types.ErrorKindValidation, // malformed invoice data
	"ERR:5":  types.ErrorKindValidation, // duplicate fkey
	"ERR:6":  types.ErrorKindBusiness,   // pattern/serial mismatch
	"ERR:7":  types.ErrorKindBusiness,   // invoice rejected by tax authority rules
	"ERR:10": types.ErrorKindExhaustion, // published range used up
	"ERR:20": types.ErrorKindTransient,  // system busy
}

// ClassifyError maps a VNPT error code to an error kind
func ClassifyError(code string) types.ErrorKind {
	if kind, ok := errorKindTable[code]; ok {
		return kind
	}
	return types.ErrorKindBusiness
}
