package vnpt

import "github.com/shopspring/decimal"

type publishRequest struct {
	TransactionID string      `json:"transactionId"`
	Pattern       string      `json:"pattern"`
	Serial        string      `json:"serial"`
	InvoiceNumber int64       `json:"invoiceNumber"`
	ArisingDate   string      `json:"arisingDate"`
	Currency      string      `json:"currencyUnit"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	ReplacesFkey  string      `json:"replacesFkey,omitempty"`
	Seller        party       `json:"sellerInfo"`
	Buyer         party       `json:"buyerInfo"`
	Products      []product   `json:"products"`
	Totals        totals      `json:"totals"`
	Note          string      `json:"note,omitempty"`
}

type party struct {
	Name    string `json:"name"`
	TaxCode string `json:"taxCode,omitempty"`
	Address string `json:"address"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type product struct {
	Name      string          `json:"prodName"`
	Unit      string          `json:"prodUnit,omitempty"`
	Quantity  decimal.Decimal `json:"prodQuantity"`
	Price     decimal.Decimal `json:"prodPrice"`
	Amount    decimal.Decimal `json:"amount"`
	TaxRate   decimal.Decimal `json:"vatRate"`
	TaxAmount decimal.Decimal `json:"vatAmount"`
}

type totals struct {
	Amount     decimal.Decimal `json:"amount"`
	VATAmount  decimal.Decimal `json:"vatAmount"`
	Total      decimal.Decimal `json:"total"`
	AmountWords string         `json:"amountInWords,omitempty"`
}

type apiResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Fkey      string `json:"fkey"`
		InvoiceNo string `json:"invoiceNo"`
		Status    string `json:"status"`
		PDFBytes  []byte `json:"pdfContent,omitempty"`
		XMLData   string `json:"xmlData,omitempty"`
	} `json:"data"`
}

type cancelBody struct {
	Fkey   string `json:"fkey"`
	Reason string `json:"reason"`
}
