package bkav

import "encoding/json"

// Command types on the partner API. Every operation is one command posted to
// the same endpoint with an encrypted command object.
const (
	cmdCreateInvoice  = 100
	cmdReplaceInvoice = 110
	cmdCancelInvoice  = 120
	cmdInvoiceStatus  = 601
	cmdInvoicePDF     = 701
	cmdInvoiceXML     = 702
	cmdCheckPartner   = 999
)

// envelopeRequest is the outer wire shape; CommandData is the encrypted
// envelope produced by the codec
type envelopeRequest struct {
	PartnerGUID string `json:"partnerGUID"`
	CommandData string `json:"CommandData"`
}

// command is the plaintext inside CommandData
type command struct {
	CmdType       int             `json:"CmdType"`
	CommandObject json.RawMessage `json:"CommandObject"`
}

// envelopeResponse is the outer response; Object is encrypted when isOk
type envelopeResponse struct {
	Status int    `json:"Status"`
	IsOk   bool   `json:"isOk"`
	Object string `json:"Object"`
}

// commandResult is the decrypted Object payload
type commandResult struct {
	Status  int             `json:"Status"`
	MessLog string          `json:"MessLog"`
	Object  json.RawMessage `json:"Object"`
}

type invoiceObject struct {
	InvoiceTypeID    string        `json:"InvoiceTypeID"`
	InvoiceSerial    string        `json:"InvoiceSerial"`
	InvoiceNo        int64         `json:"InvoiceNo"`
	InvoiceDate      string        `json:"InvoiceDate"`
	TransactionID    string        `json:"PartnerInvoiceStringID"`
	OriginalInvoice  string        `json:"OriginalInvoiceIdentify,omitempty"`
	CurrencyID       string        `json:"CurrencyID"`
	PayMethodID      string        `json:"PayMethodID,omitempty"`
	SellerName       string        `json:"SellerName"`
	SellerTaxCode    string        `json:"SellerTaxCode"`
	SellerAddress    string        `json:"SellerAddress"`
	BuyerName        string        `json:"BuyerName"`
	BuyerTaxCode     string        `json:"BuyerTaxCode,omitempty"`
	BuyerUnitName    string        `json:"BuyerUnitName,omitempty"`
	BuyerAddress     string        `json:"BuyerAddress"`
	BuyerEmail       string        `json:"ReceiverEmail,omitempty"`
	ListInvoiceDetail []detailObject `json:"ListInvoiceDetailsWS"`
	TotalBeforeTax   string        `json:"TotalBeforeTax"`
	TotalTax         string        `json:"TotalTax"`
	TotalAmount      string        `json:"TotalAmount"`
	AmountInWords    string        `json:"AmountInWords,omitempty"`
	Reason           string        `json:"Reason,omitempty"`
}

type detailObject struct {
	ItemName  string `json:"ItemName"`
	UnitName  string `json:"UnitName,omitempty"`
	Qty       string `json:"Qty"`
	Price     string `json:"Price"`
	Amount    string `json:"Amount"`
	TaxRateID string `json:"TaxRateID"`
	TaxAmount string `json:"TaxAmount"`
}

type issueResult struct {
	InvoiceGUID string `json:"InvoiceGUID"`
	InvoiceNo   string `json:"InvoiceNo"`
}

type statusResult struct {
	InvoiceGUID   string `json:"InvoiceGUID"`
	InvoiceStatus string `json:"InvoiceStatusID"`
}

type fileResult struct {
	FileName string `json:"FileName"`
	Content  []byte `json:"PDFContent"`
}

type statusQuery struct {
	InvoiceGUID string `json:"InvoiceGUID"`
}

type cancelObject struct {
	InvoiceGUID string `json:"InvoiceGUID"`
	Reason      string `json:"Reason"`
}
