package viettel

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
	"github.com/einvoicehub/einvoicehub/internal/types"
)

const (
	pathLogin         = "/auth/login"
	pathCreateInvoice = "/InvoiceAPI/InvoiceWS/createInvoice"
	pathCancelInvoice = "/InvoiceAPI/InvoiceWS/cancelTransactionInvoice"
	pathInvoiceStatus = "/InvoiceAPI/InvoiceWS/getInvoiceStatus"
	pathInvoiceFile   = "/InvoiceAPI/InvoiceUtilsWS/getInvoiceRepresentationFile"

	dateLayout = "2006-01-02T15:04:05Z07:00"
)

// Adapter implements the provider contract for Viettel's OAuth-bearer REST
// API. Tokens come from the shared token cache; a 401 on a cached token
// triggers exactly one forced refresh and retry.
type Adapter struct {
	deployment config.ProviderConfig
	client     httpclient.Client
	// docClient retries at the transport level; document fetches are idempotent
	docClient   httpclient.Client
	tokenCache  *provider.TokenCache
	credentials *provider.CredentialResolver
	logger      *logger.Logger
}

// NewAdapter creates a new Viettel adapter
func NewAdapter(
	deployment config.ProviderConfig,
	client httpclient.Client,
	docClient httpclient.Client,
	tokenCache *provider.TokenCache,
	credentials *provider.CredentialResolver,
	logger *logger.Logger,
) *Adapter {
	return &Adapter{
		deployment:  deployment,
		client:      client,
		docClient:   docClient,
		tokenCache:  tokenCache,
		credentials: credentials,
		logger:      logger,
	}
}

func (a *Adapter) ProviderType() types.ProviderType {
	return types.ProviderTypeViettel
}

// Authenticate obtains a fresh bearer token with the merchant's credentials
func (a *Adapter) Authenticate(ctx context.Context, cfg *providerconfig.ProviderConfig) (*provider.Token, error) {
	creds, err := a.credentials.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, ierr.NewError("missing viettel credentials").
			WithHint("Username and password are required").
			Mark(ierr.ErrValidation)
	}

	body, err := json.Marshal(loginRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	resp, err := a.send(ctx, cfg, http.MethodPost, pathLogin, body, "")
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode < 500 {
			return nil, ierr.WithError(err).
				WithHint("Viettel rejected the credentials").
				Mark(ierr.ErrProviderAuth)
		}
		return nil, err
	}

	var login loginResponse
	if err := json.Unmarshal(resp.Body, &login); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unexpected login response shape").
			Mark(ierr.ErrHTTPClient)
	}
	if login.AccessToken == "" {
		return nil, ierr.NewError("login response carried no token").
			Mark(ierr.ErrProviderAuth)
	}

	return &provider.Token{
		AccessToken: login.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(login.ExpiresIn) * time.Second),
	}, nil
}

// Issue submits a new invoice for issuance
func (a *Adapter) Issue(ctx context.Context, cfg *providerconfig.ProviderConfig, req *invoice.CanonicalRequest) (*invoice.CanonicalResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.submit(ctx, cfg, req, "")
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
	return a.submit(ctx, cfg, req, oldExternalID)
}

func (a *Adapter) submit(ctx context.Context, cfg *providerconfig.ProviderConfig, req *invoice.CanonicalRequest, replacesID string) (*invoice.CanonicalResponse, error) {
	wire := toInvoiceRequest(req)
	wire.AdjustedInvoice = replacesID
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	resp, err := a.callWithAuth(ctx, cfg, http.MethodPost, pathCreateInvoice, body)
	if err != nil {
		return a.responseFromErr(err)
	}

	var out invoiceResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unexpected invoice response shape").
			Mark(ierr.ErrHTTPClient)
	}
	if out.ErrorCode != "" && out.ErrorCode != "200" {
		return invoice.NewFailedResponse(ClassifyError(out.ErrorCode), out.ErrorCode, out.Description), nil
	}

	cr := invoice.NewSuccessResponse(out.Result.InvoiceID, out.Result.InvoiceNo, resp.Body)
	return cr, nil
}

// Cancel voids an issued invoice
func (a *Adapter) Cancel(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string, reason string) (*invoice.CanonicalResponse, error) {
	body, err := json.Marshal(cancelRequest{InvoiceID: externalID, Reason: reason})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	resp, err := a.callWithAuth(ctx, cfg, http.MethodPost, pathCancelInvoice, body)
	if err != nil {
		return a.responseFromErr(err)
	}

	var out invoiceResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	if out.ErrorCode != "" && out.ErrorCode != "200" {
		return invoice.NewFailedResponse(ClassifyError(out.ErrorCode), out.ErrorCode, out.Description), nil
	}
	return invoice.NewSuccessResponse(externalID, out.Result.InvoiceNo, resp.Body), nil
}

// GetStatus fetches the provider-side invoice state
func (a *Adapter) GetStatus(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.CanonicalStatus, error) {
	path := fmt.Sprintf("%s?invoiceId=%s", pathInvoiceStatus, externalID)
	resp, err := a.callWithAuth(ctx, cfg, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out statusResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	return &invoice.CanonicalStatus{
		Status:       NormalizeStatus(out.Result.Status),
		ProviderCode: out.Result.Status,
		Raw:          resp.Body,
	}, nil
}

// GetPDF fetches the signed invoice as a PDF
func (a *Adapter) GetPDF(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.Document, error) {
	return a.getFile(ctx, cfg, externalID, invoice.DocumentFormatPDF)
}

// GetXML fetches the signed invoice XML
func (a *Adapter) GetXML(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.Document, error) {
	return a.getFile(ctx, cfg, externalID, invoice.DocumentFormatXML)
}

func (a *Adapter) getFile(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string, format invoice.DocumentFormat) (*invoice.Document, error) {
	path := fmt.Sprintf("%s?invoiceId=%s&fileType=%s", pathInvoiceFile, externalID, format)
	resp, err := a.callWith(ctx, cfg, a.docClient, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out fileResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	if out.ErrorCode != "" && out.ErrorCode != "200" {
		return nil, ierr.NewError("document fetch rejected").
			WithHint(out.Description).
			WithReportableDetails(map[string]any{
				"error_code": out.ErrorCode,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return &invoice.Document{Format: format, Content: out.FileContent}, nil
}

// TestConnection verifies the config can authenticate against Viettel
func (a *Adapter) TestConnection(ctx context.Context, cfg *providerconfig.ProviderConfig) error {
	_, err := a.Authenticate(ctx, cfg)
	return err
}

// callWithAuth performs a bearer-authenticated call. A 401 on a cached token
// invalidates it and retries once with a fresh token; a second 401 is
// terminal for the call.
func (a *Adapter) callWithAuth(ctx context.Context, cfg *providerconfig.ProviderConfig, method, path string, body []byte) (*httpclient.Response, error) {
	return a.authCall(ctx, cfg, a.client, method, path, body)
}

// callWith is callWithAuth over an alternate client
func (a *Adapter) callWith(ctx context.Context, cfg *providerconfig.ProviderConfig, client httpclient.Client, method, path string, body []byte) (*httpclient.Response, error) {
	return a.authCall(ctx, cfg, client, method, path, body)
}

func (a *Adapter) authCall(ctx context.Context, cfg *providerconfig.ProviderConfig, client httpclient.Client, method, path string, body []byte) (*httpclient.Response, error) {
	token, err := a.tokenCache.GetValidToken(ctx, cfg, func(ctx context.Context) (*provider.Token, error) {
		return a.Authenticate(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.sendWith(ctx, cfg, client, method, path, body, token.AccessToken)
	if err == nil || !httpclient.IsUnauthorized(err) {
		return resp, err
	}

	a.logger.Warnw("cached token rejected, forcing refresh",
		"provider_config_id", cfg.ID)
	a.tokenCache.Invalidate(ctx, cfg.ID)
	token, err = a.tokenCache.GetValidToken(ctx, cfg, func(ctx context.Context) (*provider.Token, error) {
		return a.Authenticate(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	resp, err = a.sendWith(ctx, cfg, client, method, path, body, token.AccessToken)
	if err != nil && httpclient.IsUnauthorized(err) {
		return nil, ierr.WithError(err).
			WithHint("Provider rejected a freshly issued token").
			Mark(ierr.ErrProviderAuth)
	}
	return resp, err
}

func (a *Adapter) send(ctx context.Context, cfg *providerconfig.ProviderConfig, method, path string, body []byte, bearer string) (*httpclient.Response, error) {
	return a.sendWith(ctx, cfg, a.client, method, path, body, bearer)
}

func (a *Adapter) sendWith(ctx context.Context, cfg *providerconfig.ProviderConfig, client httpclient.Client, method, path string, body []byte, bearer string) (*httpclient.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, provider.EffectiveTimeout(a.deployment, cfg))
	defer cancel()

	headers := map[string]string{}
	if bearer != "" {
		headers["Authorization"] = "Bearer " + bearer
	}
	return client.Send(ctx, &httpclient.Request{
		Method:  method,
		URL:     provider.EffectiveBaseURL(a.deployment, cfg) + path,
		Headers: headers,
		Body:    body,
	})
}

// responseFromErr converts transport-level failures into canonical responses
// so callers see one shape for every expected failure mode.
func (a *Adapter) responseFromErr(err error) (*invoice.CanonicalResponse, error) {
	if ierr.IsProviderTimeout(err) {
		return invoice.NewTimeoutResponse("viettel call timed out"), nil
	}
	if ierr.IsProviderAuth(err) {
		return invoice.NewFailedResponse(types.ErrorKindAuth, ierr.ErrCodeProviderAuth, "viettel authentication failed"), nil
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		var out invoiceResponse
		_ = json.Unmarshal(httpErr.Response, &out)
		code := out.ErrorCode
		if code == "" {
			code = strconv.Itoa(httpErr.StatusCode)
		}
		kind := ClassifyError(code)
		if httpErr.StatusCode >= 500 {
			kind = types.ErrorKindTransient
		}
		return invoice.NewFailedResponse(kind, code, out.Description), nil
	}
	return nil, err
}

func toInvoiceRequest(req *invoice.CanonicalRequest) *invoiceRequest {
	items := make([]itemInfo, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, itemInfo{
			ItemName:  it.Name,
			UnitName:  it.Unit,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    it.Amount,
			TaxRate:   it.TaxRate,
			TaxAmount: it.TaxAmount,
		})
	}
	return &invoiceRequest{
		TransactionUUID:   req.TransactionID,
		TemplateCode:      req.TemplateCode,
		InvoiceSeries:     req.SymbolCode,
		InvoiceNumber:     req.InvoiceNumber,
		InvoiceIssuedDate: req.IssuedDate.Format(dateLayout),
		CurrencyCode:      req.Currency,
		PaymentMethod:     req.PaymentMethod,
		SellerInfo:        toPartyInfo(req.Seller),
		BuyerInfo:         toPartyInfo(req.Buyer),
		ItemInfo:          items,
		SummarizeInfo: summarizeInfo{
			SumWithoutTax: req.Summary.SubTotal,
			TaxAmount:     req.Summary.TaxTotal,
			TotalAmount:   req.Summary.GrandTotal,
			AmountInWords: req.Summary.AmountInWords,
		},
		Note: req.Notes,
	}
}

func toPartyInfo(p invoice.Party) partyInfo {
	return partyInfo{
		Name:        p.Name,
		TaxCode:     p.TaxCode,
		Address:     p.Address,
		Email:       p.Email,
		PhoneNumber: p.Phone,
		BankAccount: p.BankAccount,
		BankName:    p.BankName,
	}
}
