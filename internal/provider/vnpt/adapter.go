package vnpt

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
	pathPublish = "/api/invoices/publish"
	pathCancel  = "/api/invoices/cancel"
	pathStatus  = "/api/invoices/status"
	pathFile    = "/api/invoices/file"
	pathPing    = "/api/ping"

	dateLayout = "2006-01-02"

	codeOK = "OK"

	// staticTokenTTL is nominal; the secret never rotates server-side, the
	// cache entry just gets refreshed from the config periodically.
	staticTokenTTL = 24 * time.Hour
)

// Adapter implements the provider contract for VNPT's REST API. VNPT issues
// no session tokens; every call carries the merchant's static app secret as a
// bearer header. Authenticate synthesizes a long-lived token from it so the
// shared token cache and dispatch paths stay uniform across providers.
type Adapter struct {
	deployment config.ProviderConfig
	client     httpclient.Client
	// docClient retries at the transport level; document fetches are idempotent
	docClient   httpclient.Client
	credentials *provider.CredentialResolver
	logger      *logger.Logger
}

// NewAdapter creates a new VNPT adapter
func NewAdapter(
	deployment config.ProviderConfig,
	client httpclient.Client,
	docClient httpclient.Client,
	credentials *provider.CredentialResolver,
	logger *logger.Logger,
) *Adapter {
	return &Adapter{
		deployment:  deployment,
		client:      client,
		docClient:   docClient,
		credentials: credentials,
		logger:      logger,
	}
}

func (a *Adapter) ProviderType() types.ProviderType {
	return types.ProviderTypeVnpt
}

// Authenticate synthesizes a token from the static app secret
func (a *Adapter) Authenticate(ctx context.Context, cfg *providerconfig.ProviderConfig) (*provider.Token, error) {
	secret, err := a.bearer(cfg)
	if err != nil {
		return nil, err
	}
	return &provider.Token{
		AccessToken: secret,
		ExpiresAt:   time.Now().Add(staticTokenTTL),
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

func (a *Adapter) submit(ctx context.Context, cfg *providerconfig.ProviderConfig, req *invoice.CanonicalRequest, replacesFkey string) (*invoice.CanonicalResponse, error) {
	wire := toPublishRequest(req)
	wire.ReplacesFkey = replacesFkey
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	resp, err := a.call(ctx, cfg, a.client, http.MethodPost, pathPublish, body)
	if err != nil {
		return a.responseFromErr(err)
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unexpected publish response shape").
			Mark(ierr.ErrHTTPClient)
	}
	if out.Code != codeOK {
		return invoice.NewFailedResponse(ClassifyError(out.Code), out.Code, out.Message), nil
	}
	return invoice.NewSuccessResponse(out.Data.Fkey, out.Data.InvoiceNo, resp.Body), nil
}

// Cancel voids an issued invoice
func (a *Adapter) Cancel(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string, reason string) (*invoice.CanonicalResponse, error) {
	body, err := json.Marshal(cancelBody{Fkey: externalID, Reason: reason})
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	resp, err := a.call(ctx, cfg, a.client, http.MethodPost, pathCancel, body)
	if err != nil {
		return a.responseFromErr(err)
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	if out.Code != codeOK {
		return invoice.NewFailedResponse(ClassifyError(out.Code), out.Code, out.Message), nil
	}
	return invoice.NewSuccessResponse(externalID, out.Data.InvoiceNo, resp.Body), nil
}

// GetStatus fetches the provider-side invoice state
func (a *Adapter) GetStatus(ctx context.Context, cfg *providerconfig.ProviderConfig, externalID string) (*invoice.CanonicalStatus, error) {
	path := fmt.Sprintf("%s?fkey=%s", pathStatus, externalID)
	resp, err := a.call(ctx, cfg, a.client, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	if out.Code != codeOK {
		return nil, ierr.NewError("status lookup rejected").
			WithHint(out.Message).
			WithReportableDetails(map[string]any{
				"error_code": out.Code,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return &invoice.CanonicalStatus{
		Status:       NormalizeStatus(out.Data.Status),
		ProviderCode: out.Data.Status,
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
	path := fmt.Sprintf("%s?fkey=%s&type=%s", pathFile, externalID, format)
	resp, err := a.call(ctx, cfg, a.docClient, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	if out.Code != codeOK {
		return nil, ierr.NewError("document fetch rejected").
			WithHint(out.Message).
			WithReportableDetails(map[string]any{
				"error_code": out.Code,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	content := out.Data.PDFBytes
	if format == invoice.DocumentFormatXML {
		content = []byte(out.Data.XMLData)
	}
	return &invoice.Document{Format: format, Content: content}, nil
}

// TestConnection pings VNPT with the configured secret
func (a *Adapter) TestConnection(ctx context.Context, cfg *providerconfig.ProviderConfig) error {
	_, err := a.call(ctx, cfg, a.client, http.MethodGet, pathPing, nil)
	if err != nil && httpclient.IsUnauthorized(err) {
		return ierr.WithError(err).
			WithHint("VNPT rejected the app secret").
			Mark(ierr.ErrProviderAuth)
	}
	return err
}

func (a *Adapter) call(ctx context.Context, cfg *providerconfig.ProviderConfig, client httpclient.Client, method, path string, body []byte) (*httpclient.Response, error) {
	secret, err := a.bearer(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, provider.EffectiveTimeout(a.deployment, cfg))
	defer cancel()

	resp, err := client.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    provider.EffectiveBaseURL(a.deployment, cfg) + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + secret,
		},
		Body: body,
	})
	if err != nil && httpclient.IsUnauthorized(err) {
		// No token to refresh; a 401 means the stored secret is wrong
		return nil, ierr.WithError(err).
			WithHint("VNPT rejected the app secret").
			Mark(ierr.ErrProviderAuth)
	}
	return resp, err
}

// bearer decrypts the app secret; a config without one never reaches the wire
func (a *Adapter) bearer(cfg *providerconfig.ProviderConfig) (string, error) {
	creds, err := a.credentials.Resolve(cfg)
	if err != nil {
		return "", err
	}
	if creds.AppSecret == "" {
		return "", ierr.NewError("missing vnpt app secret").
			WithHint("App secret is required for VNPT calls").
			Mark(ierr.ErrValidation)
	}
	return creds.AppSecret, nil
}

// responseFromErr converts transport-level failures into canonical responses
// so callers see one shape for every expected failure mode.
func (a *Adapter) responseFromErr(err error) (*invoice.CanonicalResponse, error) {
	if ierr.IsProviderTimeout(err) {
		return invoice.NewTimeoutResponse("vnpt call timed out"), nil
	}
	if ierr.IsProviderAuth(err) {
		return invoice.NewFailedResponse(types.ErrorKindAuth, ierr.ErrCodeProviderAuth, "vnpt authentication failed"), nil
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		var out apiResponse
		_ = json.Unmarshal(httpErr.Response, &out)
		code := out.Code
		if code == "" {
			code = strconv.Itoa(httpErr.StatusCode)
		}
		kind := ClassifyError(code)
		if httpErr.StatusCode >= 500 {
			kind = types.ErrorKindTransient
		}
		return invoice.NewFailedResponse(kind, code, out.Message), nil
	}
	return nil, err
}

func toPublishRequest(req *invoice.CanonicalRequest) *publishRequest {
	products := make([]product, 0, len(req.Items))
	for _, it := range req.Items {
		products = append(products, product{
			Name:      it.Name,
			Unit:      it.Unit,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			Amount:    it.Amount,
			TaxRate:   it.TaxRate,
			TaxAmount: it.TaxAmount,
		})
	}
	return &publishRequest{
		TransactionID: req.TransactionID,
		Pattern:       req.TemplateCode,
		Serial:        req.SymbolCode,
		InvoiceNumber: req.InvoiceNumber,
		ArisingDate:   req.IssuedDate.Format(dateLayout),
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Seller:        toParty(req.Seller),
		Buyer:         toParty(req.Buyer),
		Products:      products,
		Totals: totals{
			Amount:      req.Summary.SubTotal,
			VATAmount:   req.Summary.TaxTotal,
			Total:       req.Summary.GrandTotal,
			AmountWords: req.Summary.AmountInWords,
		},
		Note: req.Notes,
	}
}

func toParty(p invoice.Party) party {
	return party{
		Name:    p.Name,
		TaxCode: p.TaxCode,
		Address: p.Address,
		Email:   p.Email,
		Phone:   p.Phone,
	}
}
