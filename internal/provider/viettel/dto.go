package viettel

import "github.com/shopspring/decimal"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type invoiceRequest struct {
	TransactionUUID string        `json:"transactionUuid"`
	TemplateCode    string        `json:"templateCode"`
	InvoiceSeries   string        `json:"invoiceSeries"`
	InvoiceNumber   int64         `json:"invoiceNumber"`
	InvoiceIssuedDate string      `json:"invoiceIssuedDate"`
	CurrencyCode    string        `json:"currencyCode"`
	PaymentMethod   string        `json:"paymentMethodName,omitempty"`
	AdjustedInvoice string        `json:"originalInvoiceId,omitempty"`
	SellerInfo      partyInfo     `json:"sellerInfo"`
	BuyerInfo       partyInfo     `json:"buyerInfo"`
	ItemInfo        []itemInfo    `json:"itemInfo"`
	SummarizeInfo   summarizeInfo `json:"summarizeInfo"`
	Note            string        `json:"note,omitempty"`
}

type partyInfo struct {
	Name        string `json:"name"`
	TaxCode     string `json:"taxCode,omitempty"`
	Address     string `json:"address"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	BankAccount string `json:"bankAccount,omitempty"`
	BankName    string `json:"bankName,omitempty"`
}

type itemInfo struct {
	ItemName  string          `json:"itemName"`
	UnitName  string          `json:"unitName,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Amount    decimal.Decimal `json:"itemTotalAmountWithoutTax"`
	TaxRate   decimal.Decimal `json:"taxPercentage"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
}

type summarizeInfo struct {
	SumWithoutTax decimal.Decimal `json:"totalAmountWithoutTax"`
	TaxAmount     decimal.Decimal `json:"totalTaxAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmountWithTax"`
	AmountInWords string          `json:"totalAmountWithTaxInWords,omitempty"`
}

type invoiceResponse struct {
	ErrorCode   string        `json:"errorCode"`
	Description string        `json:"description"`
	Result      invoiceResult `json:"result"`
}

type invoiceResult struct {
	InvoiceID       string `json:"invoiceId"`
	InvoiceNo       string `json:"invoiceNo"`
	ReservationCode string `json:"reservationCode"`
	TransactionUUID string `json:"transactionUuid"`
}

type statusResponse struct {
	ErrorCode   string `json:"errorCode"`
	Description string `json:"description"`
	Result      struct {
		InvoiceID string `json:"invoiceId"`
		Status    string `json:"status"`
	} `json:"result"`
}

type cancelRequest struct {
	InvoiceID string `json:"invoiceId"`
	Reason    string `json:"additionalReferenceDesc"`
}

type fileResponse struct {
	ErrorCode   string `json:"errorCode"`
	Description string `json:"description"`
	FileName    string `json:"fileName"`
	FileContent []byte `json:"fileToBytes"`
}
