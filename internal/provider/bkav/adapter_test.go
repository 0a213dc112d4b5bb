package bkav

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/invoice"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/security"
	"github.com/einvoicehub/einvoicehub/internal/testutil"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	testPartnerGUID  = "guid-1234"
	testPartnerToken = "partner-token-secret"
)

type BkavAdapterTestSuite struct {
	suite.Suite
	ctx        context.Context
	httpClient *testutil.MockHTTPClient
	adapter    *Adapter
	codec      security.Codec
	cfg        *providerconfig.ProviderConfig
	key        string
}

func TestBkavAdapterSuite(t *testing.T) {
	suite.Run(t, new(BkavAdapterTestSuite))
}

func (s *BkavAdapterTestSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.httpClient = testutil.NewMockHTTPClient()
	s.codec = security.NewAESCodec()
	s.key = security.DeriveKey(testPartnerToken, testPartnerGUID)

	appCfg := config.GetDefaultConfig()
	enc, err := security.NewEncryptionService(appCfg, logger.L)
	s.Require().NoError(err)

	s.adapter = NewAdapter(
		config.ProviderConfig{BaseURL: "https://bkav.test", Timeout: 5 * time.Second},
		s.httpClient,
		s.codec,
		provider.NewCredentialResolver(enc),
		logger.L,
	)

	encGUID, err := enc.Encrypt(testPartnerGUID)
	s.Require().NoError(err)
	encToken, err := enc.Encrypt(testPartnerToken)
	s.Require().NoError(err)
	s.cfg = &providerconfig.ProviderConfig{
		ID:                    "pcfg_bkav",
		ProviderType:          types.ProviderTypeBkav,
		TaxCode:               "0100109106",
		EncryptedPartnerGUID:  encGUID,
		EncryptedPartnerToken: encToken,
		BaseModel:             types.BaseModel{Status: types.StatusPublished},
	}
}

// registerResult seals a command result the way the partner API would and
// serves it as the envelope response
func (s *BkavAdapterTestSuite) registerResult(status int, messLog string, object any) {
	objBytes, err := json.Marshal(object)
	s.Require().NoError(err)
	resultBytes, err := json.Marshal(commandResult{Status: status, MessLog: messLog, Object: objBytes})
	s.Require().NoError(err)
	sealed, err := s.codec.Encrypt(string(resultBytes), s.key)
	s.Require().NoError(err)
	body, err := json.Marshal(envelopeResponse{Status: 0, IsOk: true, Object: sealed})
	s.Require().NoError(err)

	s.httpClient.RegisterResponse(pathExec, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})
}

func (s *BkavAdapterTestSuite) canonicalRequest() *invoice.CanonicalRequest {
	return &invoice.CanonicalRequest{
		TransactionID: "txn-001",
		TemplateCode:  "1",
		SymbolCode:    "C24TBB",
		InvoiceNumber: 7,
		IssuedDate:    time.Now().UTC(),
		Currency:      "VND",
		Seller:        invoice.Party{Name: "Seller Co", TaxCode: "0100109106", Address: "Hanoi"},
		Buyer:         invoice.Party{Name: "Buyer Co", Address: "Hue"},
		Items: []invoice.LineItem{{
			Name:      "Hosting",
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.NewFromInt(50000),
			Amount:    decimal.NewFromInt(100000),
			TaxRate:   decimal.NewFromInt(8),
			TaxAmount: decimal.NewFromInt(8000),
		}},
		Summary: invoice.Summary{
			SubTotal:   decimal.NewFromInt(100000),
			TaxTotal:   decimal.NewFromInt(8000),
			GrandTotal: decimal.NewFromInt(108000),
		},
	}
}

func (s *BkavAdapterTestSuite) TestIssueSuccess() {
	s.registerResult(0, "", issueResult{InvoiceGUID: "bk-555", InvoiceNo: "C24TBB7"})

	resp, err := s.adapter.Issue(s.ctx, s.cfg, s.canonicalRequest())
	s.NoError(err)
	s.Equal(types.ResponseStatusSuccess, resp.Status)
	s.Equal("bk-555", resp.ExternalID)
	s.Equal("C24TBB7", resp.InvoiceNo)
}

func (s *BkavAdapterTestSuite) TestIssueProviderRejection() {
	s.registerResult(3, "invoice data rejected", nil)

	resp, err := s.adapter.Issue(s.ctx, s.cfg, s.canonicalRequest())
	s.NoError(err)
	s.Equal(types.ResponseStatusFailed, resp.Status)
	s.Equal(types.ErrorKindBusiness, resp.ErrorKind)
	s.Equal("3", resp.ErrorCode)
	s.Equal("invoice data rejected", resp.ErrorMessage)
}

func (s *BkavAdapterTestSuite) TestIssueTransientProviderError() {
	s.registerResult(20, "internal processing error", nil)

	resp, err := s.adapter.Issue(s.ctx, s.cfg, s.canonicalRequest())
	s.NoError(err)
	s.Equal(types.ErrorKindTransient, resp.ErrorKind)
	s.True(resp.IsRetryable())
}

func (s *BkavAdapterTestSuite) TestMissingPartnerTokenFailsClosed() {
	cfg := &providerconfig.ProviderConfig{
		ID:           "pcfg_no_token",
		ProviderType: types.ProviderTypeBkav,
		TaxCode:      "0100109106",
		BaseModel:    types.BaseModel{Status: types.StatusPublished},
	}

	_, err := s.adapter.Issue(s.ctx, cfg, s.canonicalRequest())
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal(0, s.httpClient.Calls(pathExec), "nothing leaves the process without an envelope key")
}

func (s *BkavAdapterTestSuite) TestRejectedEnvelopeIsAuthFailure() {
	body, err := json.Marshal(envelopeResponse{Status: 2, IsOk: false})
	s.Require().NoError(err)
	s.httpClient.RegisterResponse(pathExec, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})

	resp, err := s.adapter.Issue(s.ctx, s.cfg, s.canonicalRequest())
	s.NoError(err)
	s.Equal(types.ResponseStatusFailed, resp.Status)
	s.Equal(types.ErrorKindAuth, resp.ErrorKind)
}

func (s *BkavAdapterTestSuite) TestGetStatusNormalizes() {
	s.registerResult(0, "", statusResult{InvoiceGUID: "bk-555", InvoiceStatus: "3"})

	status, err := s.adapter.GetStatus(s.ctx, s.cfg, "bk-555")
	s.NoError(err)
	s.Equal(types.InvoiceStatusSuccess, status.Status)
	s.Equal("3", status.ProviderCode)
}

func (s *BkavAdapterTestSuite) TestGetPDF() {
	s.registerResult(0, "", fileResult{FileName: "invoice.pdf", Content: []byte("%PDF-1.7 stub")})

	doc, err := s.adapter.GetPDF(s.ctx, s.cfg, "bk-555")
	s.NoError(err)
	s.Equal(invoice.DocumentFormatPDF, doc.Format)
	s.Equal([]byte("%PDF-1.7 stub"), doc.Content)
}

func (s *BkavAdapterTestSuite) TestTestConnection() {
	s.registerResult(0, "", nil)
	s.NoError(s.adapter.TestConnection(s.ctx, s.cfg))

	s.httpClient.Clear()
	s.registerResult(2, "partner mismatch", nil)
	err := s.adapter.TestConnection(s.ctx, s.cfg)
	s.Error(err)
	s.True(ierr.IsProviderAuth(err))
}

func (s *BkavAdapterTestSuite) TestAuthenticateSynthesizesStaticToken() {
	tok, err := s.adapter.Authenticate(s.ctx, s.cfg)
	s.NoError(err)
	s.Equal(testPartnerGUID, tok.AccessToken)
	s.True(tok.ExpiresAt.After(time.Now()))
	s.Equal(0, s.httpClient.Calls(pathExec), "static credentials need no network call")
}
