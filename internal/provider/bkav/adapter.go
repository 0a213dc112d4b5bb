package bkav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/invoice"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/httpclient"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/security"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

const pathExec = "/api/exec"

// Adapter implements the provider contract for the BKAV-style encrypted
// envelope protocol. Every command is symmetrically encrypted with a key
// derived from the merchant's partner token; the adapter refuses to send
// anything when the token is absent rather than falling back to plaintext.
type Adapter struct {
	deployment  config.ProviderConfig
	client      httpclient.Client
	codec       security.Codec
	credentials *provider.CredentialResolver
	logger      *logger.Logger
}

// NewAdapter creates a new BKAV adapter
func NewAdapter(
	deployment config.ProviderConfig,
	client httpclient.Client,
	codec security.Codec,
	credentials *provider.CredentialResolver,
	logger *logger.Logger,
) *Adapter {
	return &Adapter{
		deployment:  deployment,
		client:      client,
		codec:       codec,
		credentials: credentials,
		logger:      logger,
	}
}

func (a *Adapter) ProviderType() types.ProviderType {
	return types.ProviderTypeBkav
}

// Issue submits a new invoice for issuance
func (a *Adapter) Issue(ctx context.Context, cfg *providerconfig.ProviderConfig, req *invoice.CanonicalRequest) (*invoice.CanonicalResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.submit(ctx, cfg, cmdCreateInvoice, req, "")
}

// Replace issues a replacement invoice referencing the one it supersedes
func (a *Adapter) Replace(ctx context.Context, cfg *providerconfig.ProviderConfig, oldExternalID string, req *invoice.CanonicalRequest) (*invoice.CanonicalResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if oldExternalID == "" {
		return nil, ierr.NewError("missing original invoice id").
			WithHint("Replacement requires the id of the invoice being replaced").
			Mark(ierr.ErrValidation)
	}
	return a.submit(ctx, cfg, cmdReplaceInvoice, req, oldExternalID)
}

func (a *Adapter) submit(ctx context.Context, cfg *providerconfig.ProviderConfig, cmdType int, req *invoice.CanonicalRequest, replacesID string) (*invoice.CanonicalResponse, error) {
	obj := toInvoiceObject(req)
	obj.OriginalInvoice = replacesID
	payload, err := json.Marshal(obj)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	result, raw, err := a.exec(ctx, cfg, cmdType, payload)
	if err != nil {
		return a.responseFromErr(err)
	}
	if result.Status != 0 {
		return invoice.NewFailedResponse(ClassifyError(result.Status), strconv.Itoa(result.Status), result.MessLog), nil
	}

	var out issueResult
	if err := json.Unmarshal(result.Object, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unexpected issue result shape").
			Mark(ierr.ErrHTTPClient)
	}
	return invoice.NewSuccessResponse(out.InvoiceGUID, out.InvoiceNo, raw), nil
}

// Cancel voids an issued invoice
func (a *Adapter) Cancel(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string, reason string) (*invoice.CanonicalResponse, error) {
	payload, err := json.Marshal(cancelObject{InvoiceGUID: externalID, Reason: reason})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	result, raw, err := a.exec(ctx, cfg, cmdCancelInvoice, payload)
	if err != nil {
		return a.responseFromErr(err)
	}
	if result.Status != 0 {
		return invoice.NewFailedResponse(ClassifyError(result.Status), strconv.Itoa(result.Status), result.MessLog), nil
	}
	return invoice.NewSuccessResponse(externalID, "", raw), nil
}

// GetStatus fetches the provider-side invoice state
func (a *Adapter) GetStatus(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.CanonicalStatus, error) {
	payload, err := json.Marshal(statusQuery{InvoiceGUID: externalID})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	result, raw, err := a.exec(ctx, cfg, cmdInvoiceStatus, payload)
	if err != nil {
		return nil, err
	}
	if result.Status != 0 {
		return nil, ierr.NewError("status query rejected").
			WithHint(result.MessLog).
			Mark(ierr.ErrInvalidOperation)
	}

	var out statusResult
	if err := json.Unmarshal(result.Object, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	return &invoice.CanonicalStatus{
		Status:       NormalizeStatus(out.InvoiceStatus),
		ProviderCode: out.InvoiceStatus,
		Raw:          raw,
	}, nil
}

// GetPDF fetches the signed invoice as a PDF
func (a *Adapter) GetPDF(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.Document, error) {
	return a.getFile(ctx, cfg, cmdInvoicePDF, externalID, invoice.DocumentFormatPDF)
}

// GetXML fetches the signed invoice XML
func (a *Adapter) GetXML(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.Document, error) {
	return a.getFile(ctx, cfg, cmdInvoiceXML, externalID, invoice.DocumentFormatXML)
}

func (a *Adapter) getFile(ctx context.Context, cfg *providerconfig.ProviderConfig, cmdType int, externalID string, format invoice.DocumentFormat) (*invoice.Document, error) {
	payload, err := json.Marshal(statusQuery{InvoiceGUID: externalID})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	result, _, err := a.exec(ctx, cfg, cmdType, payload)
	if err != nil {
		return nil, err
	}
	if result.Status != 0 {
		return nil, ierr.NewError("document fetch rejected").
			WithHint(result.MessLog).
			Mark(ierr.ErrInvalidOperation)
	}

	var out fileResult
	if err := json.Unmarshal(result.Object, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	return &invoice.Document{Format: format, Content: out.Content}, nil
}

// Authenticate synthesizes a token: the protocol carries a static partner
// credential on every envelope instead of a session
func (a *Adapter) Authenticate(ctx context.Context, cfg *providerconfig.ProviderConfig) (*provider.Token, error) {
	creds, err := a.credentials.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if creds.PartnerGUID == "" || creds.PartnerToken == "" {
		return nil, ierr.NewError("missing partner credentials").
			WithHint("Partner GUID and token are required").
			Mark(ierr.ErrValidation)
	}
	return &provider.Token{
		AccessToken: creds.PartnerGUID,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}, nil
}

// TestConnection round-trips an encrypted no-op command
func (a *Adapter) TestConnection(ctx context.Context, cfg *providerconfig.ProviderConfig) error {
	result, _, err := a.exec(ctx, cfg, cmdCheckPartner, json.RawMessage(`{}`))
	if err != nil {
		return err
	}
	if result.Status != 0 {
		return ierr.NewError("partner check rejected").
			WithHint(result.MessLog).
			Mark(ierr.ErrProviderAuth)
	}
	return nil
}

// exec encrypts a command, posts it, and decrypts the result. The envelope
// key is derived from the partner token with the partner GUID as salt; when
// the token is absent the call fails closed before anything leaves the
// process.
func (a *Adapter) exec(ctx context.Context, cfg *providerconfig.ProviderConfig, cmdType int, payload json.RawMessage) (*commandResult, []byte, error) {
	creds, err := a.credentials.Resolve(cfg)
	if err != nil {
		return nil, nil, err
	}
	if creds.PartnerToken == "" {
		return nil, nil, ierr.NewError("partner token is absent").
			WithHint("Refusing to send an unencrypted command").
			WithReportableDetails(map[string]any{
				"provider_config_id": cfg.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	key := security.DeriveKey(creds.PartnerToken, creds.PartnerGUID)

	cmd, err := json.Marshal(command{CmdType: cmdType, CommandObject: payload})
	if err != nil {
		return nil, nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	sealed, err := a.codec.Encrypt(string(cmd), key)
	if err != nil {
		return nil, nil, err
	}

	body, err := json.Marshal(envelopeRequest{PartnerGUID: creds.PartnerGUID, CommandData: sealed})
	if err != nil {
		return nil, nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	callCtx, cancel := context.WithTimeout(ctx, provider.EffectiveTimeout(a.deployment, cfg))
	defer cancel()
	resp, err := a.client.Send(callCtx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    provider.EffectiveBaseURL(a.deployment, cfg) + pathExec,
		Body:   body,
	})
	if err != nil {
		return nil, nil, err
	}

	var envelope envelopeResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("Unexpected envelope shape").
			Mark(ierr.ErrHTTPClient)
	}
	if !envelope.IsOk {
		return nil, nil, ierr.NewError(fmt.Sprintf("envelope rejected with status %d", envelope.Status)).
			WithHint("Partner credentials were not accepted").
			Mark(ierr.ErrProviderAuth)
	}

	opened, err := a.codec.Decrypt(envelope.Object, key)
	if err != nil {
		return nil, nil, err
	}
	var result commandResult
	if err := json.Unmarshal([]byte(opened), &result); err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("Unexpected command result shape").
			Mark(ierr.ErrHTTPClient)
	}
	return &result, []byte(opened), nil
}

func (a *Adapter) responseFromErr(err error) (*invoice.CanonicalResponse, error) {
	if ierr.IsProviderTimeout(err) {
		return invoice.NewTimeoutResponse("bkav call timed out"), nil
	}
	if ierr.IsProviderAuth(err) {
		return invoice.NewFailedResponse(types.ErrorKindAuth, ierr.ErrCodeProviderAuth, "partner credentials rejected"), nil
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		kind := types.ErrorKindBusiness
		if httpErr.StatusCode >= 500 {
			kind = types.ErrorKindTransient
		}
		return invoice.NewFailedResponse(kind, strconv.Itoa(httpErr.StatusCode), string(httpErr.Response)), nil
	}
	return nil, err
}

func toInvoiceObject(req *invoice.CanonicalRequest) *invoiceObject {
	details := make([]detailObject, 0, len(req.Items))
	for _, it := range req.Items {
		details = append(details, detailObject{
			ItemName:  it.Name,
			UnitName:  it.Unit,
			Qty:       it.Quantity.String(),
			Price:     it.UnitPrice.String(),
			Amount:    it.Amount.String(),
			TaxRateID: it.TaxRate.String(),
			TaxAmount: it.TaxAmount.String(),
		})
	}
	return &invoiceObject{
		InvoiceTypeID:     req.TemplateCode,
		InvoiceSerial:     req.SymbolCode,
		InvoiceNo:         req.InvoiceNumber,
		InvoiceDate:       req.IssuedDate.Format("2006-01-02"),
		TransactionID:     req.TransactionID,
		CurrencyID:        req.Currency,
		PayMethodID:       req.PaymentMethod,
		SellerName:        req.Seller.Name,
		SellerTaxCode:     req.Seller.TaxCode,
		SellerAddress:     req.Seller.Address,
		BuyerName:         req.Buyer.Name,
		BuyerTaxCode:      req.Buyer.TaxCode,
		BuyerAddress:      req.Buyer.Address,
		BuyerEmail:        req.Buyer.Email,
		ListInvoiceDetail: details,
		TotalBeforeTax:    req.Summary.SubTotal.String(),
		TotalTax:          req.Summary.TaxTotal.String(),
		TotalAmount:       req.Summary.GrandTotal.String(),
		AmountInWords:     req.Summary.AmountInWords,
	}
}
