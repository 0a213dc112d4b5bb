package service

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/domain/invoice"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	"github.com/einvoicehub/einvoicehub/internal/testutil"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	viettelLoginPath  = "/auth/login"
	viettelCreatePath = "/InvoiceAPI/InvoiceWS/createInvoice"
	viettelStatusPath = "/InvoiceAPI/InvoiceWS/getInvoiceStatus"
)

type DispatcherTestSuite struct {
	testutil.BaseServiceTestSuite
	dispatcher *SyncDispatcher
	cfg        *providerconfig.ProviderConfig
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func (s *DispatcherTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.dispatcher = NewSyncDispatcher(
		s.GetStores().SyncRepo,
		s.GetStores().ProviderConfigRepo,
		s.GetRegistry(),
		s.GetConfig().Sync,
		s.GetLogger(),
	)
	s.cfg = s.createViettelConfig()
	s.registerLogin()
}

func (s *DispatcherTestSuite) createViettelConfig() *providerconfig.ProviderConfig {
	cfg := &providerconfig.ProviderConfig{
		ID:                types.GenerateUUIDWithPrefix(types.UUIDPrefixProviderConfig),
		ProviderType:      types.ProviderTypeViettel,
		TaxCode:           "0100109106",
		EncryptedUsername: s.Encrypt("merchant-user"),
		EncryptedPassword: s.Encrypt("merchant-pass"),
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().ProviderConfigRepo.Create(s.GetContext(), cfg))
	return cfg
}

func (s *DispatcherTestSuite) registerLogin() {
	s.GetHTTPClient().RegisterResponse(viettelLoginPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"access_token":"tok","expires_in":3600}`),
	})
}

func (s *DispatcherTestSuite) canonicalRequest() *invoice.CanonicalRequest {
	return &invoice.CanonicalRequest{
		TransactionID: "txn-001",
		TemplateCode:  "1/001",
		SymbolCode:    "C24TAA",
		InvoiceNumber: 9,
		IssuedDate:    time.Now().UTC(),
		Currency:      "VND",
		Seller:        invoice.Party{Name: "Seller Co", TaxCode: "0100109106", Address: "Hanoi"},
		Buyer:         invoice.Party{Name: "Buyer Co", Address: "Hai Phong"},
		Items: []invoice.LineItem{{
			Name:      "Bandwidth",
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(100000),
			Amount:    decimal.NewFromInt(100000),
			TaxRate:   decimal.NewFromInt(10),
			TaxAmount: decimal.NewFromInt(10000),
		}},
		Summary: invoice.Summary{
			SubTotal:   decimal.NewFromInt(100000),
			TaxTotal:   decimal.NewFromInt(10000),
			GrandTotal: decimal.NewFromInt(110000),
		},
	}
}

// createClaimedEntry enqueues a SUBMIT entry and claims it the way the
// collector would before dispatch
func (s *DispatcherTestSuite) createClaimedEntry(maxAttempts int, externalID string) *syncqueue.Entry {
	payload, err := json.Marshal(syncPayload{Request: s.canonicalRequest(), ExternalID: externalID})
	s.Require().NoError(err)

	entry, err := syncqueue.NewEntry(types.GetDefaultBaseModel(s.GetContext()), syncqueue.NewEntryParams{
		InvoiceID:        "inv_1",
		TransactionID:    "txn-001",
		ProviderType:     types.ProviderTypeViettel,
		ProviderConfigID: s.cfg.ID,
		SyncType:         types.SyncTypeSubmit,
		MaxAttempts:      maxAttempts,
		Payload:          payload,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.GetStores().SyncRepo.Create(s.GetContext(), entry))

	claimed, err := s.GetStores().SyncRepo.Claim(s.GetContext(), entry.ID, "wrk_test", time.Now().UTC().Add(5*time.Minute))
	s.Require().NoError(err)
	return claimed
}

func (s *DispatcherTestSuite) TestDispatchSubmitSuccess() {
	s.GetHTTPClient().RegisterResponse(viettelCreatePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"errorCode":"","result":{"invoiceId":"vt-1","invoiceNo":"C24TAA9"}}`),
	})
	entry := s.createClaimedEntry(3, "")

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusSuccess, stored.SyncStatus)
	s.Empty(stored.ClaimedBy)
}

func (s *DispatcherTestSuite) TestDispatchRetryableFailureSchedulesRetry() {
	s.GetHTTPClient().RegisterResponse(viettelCreatePath, testutil.MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       []byte(`{"errorCode":"503","description":"busy"}`),
	})
	entry := s.createClaimedEntry(3, "")
	before := time.Now().UTC()

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusRetrying, stored.SyncStatus)
	s.Equal(1, stored.AttemptCount)
	s.Require().NotNil(stored.NextRetryAt)

	// First retry lands one backoff interval out
	wait := stored.NextRetryAt.Sub(before)
	s.InDelta(s.GetConfig().Sync.RetryBackoff.Seconds(), wait.Seconds(), 2)
}

func (s *DispatcherTestSuite) TestDispatchBackoffGrowsPerAttempt() {
	s.GetHTTPClient().RegisterResponse(viettelCreatePath, testutil.MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       []byte(`{"errorCode":"503"}`),
	})
	entry := s.createClaimedEntry(5, "")

	base := s.GetConfig().Sync.RetryBackoff.Seconds()
	expected := []float64{base, base * 2, base * 4}

	for i, want := range expected {
		before := time.Now().UTC()
		s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

		stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
		s.NoError(err)
		s.Equal(i+1, stored.AttemptCount)
		s.Require().NotNil(stored.NextRetryAt)
		s.InDelta(want, stored.NextRetryAt.Sub(before).Seconds(), 2)

		// Pull the retry time into the past so the next claim is due now
		past := time.Now().UTC().Add(-time.Second)
		stored.NextRetryAt = &past
		s.Require().NoError(s.GetStores().SyncRepo.Update(s.GetContext(), stored))
		entry, err = s.GetStores().SyncRepo.Claim(s.GetContext(), stored.ID, "wrk_test", time.Now().UTC().Add(5*time.Minute))
		s.Require().NoError(err)
	}
}

func (s *DispatcherTestSuite) TestDispatchExhaustsAttempts() {
	s.GetHTTPClient().RegisterResponse(viettelCreatePath, testutil.MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       []byte(`{"errorCode":"503"}`),
	})
	entry := s.createClaimedEntry(1, "")

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusFailed, stored.SyncStatus)
	s.Equal(1, stored.AttemptCount)
	s.True(stored.IsTerminal())
	s.Nil(stored.NextRetryAt)
}

func (s *DispatcherTestSuite) TestDispatchNonRetryableFailsImmediately() {
	s.GetHTTPClient().RegisterResponse(viettelCreatePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"errorCode":"INVOICE_REJECTED","description":"rejected"}`),
	})
	entry := s.createClaimedEntry(5, "")

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusFailed, stored.SyncStatus)
	s.Equal(1, stored.AttemptCount, "business failures never burn the remaining attempts")
	s.Contains(stored.LastError, "INVOICE_REJECTED")
}

func (s *DispatcherTestSuite) TestDispatchTerminalEntryIsNoop() {
	entry := s.createClaimedEntry(3, "")
	s.Require().NoError(entry.MarkSuccess())
	s.Require().NoError(s.GetStores().SyncRepo.Update(s.GetContext(), entry))

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))
	s.Equal(0, s.GetHTTPClient().Calls(viettelCreatePath), "terminal entries never reach the provider")
}

func (s *DispatcherTestSuite) TestDispatchProbesBeforeResubmit() {
	// The provider already accepted the invoice on a previous attempt whose
	// response was lost; the probe must complete the entry without a resubmit.
	s.GetHTTPClient().RegisterResponse(viettelStatusPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"errorCode":"","result":{"invoiceId":"vt-1","status":"ISSUED"}}`),
	})
	entry := s.createClaimedEntry(3, "vt-1")

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusSuccess, stored.SyncStatus)
	s.Equal(0, s.GetHTTPClient().Calls(viettelCreatePath))
	s.Equal(1, s.GetHTTPClient().Calls(viettelStatusPath))
}

func (s *DispatcherTestSuite) TestDispatchResubmitsWhenProbeShowsFailure() {
	s.GetHTTPClient().RegisterResponse(viettelStatusPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"errorCode":"","result":{"invoiceId":"vt-1","status":"ISSUE_FAILED"}}`),
	})
	s.GetHTTPClient().RegisterResponse(viettelCreatePath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"errorCode":"","result":{"invoiceId":"vt-2","invoiceNo":"C24TAA9"}}`),
	})
	entry := s.createClaimedEntry(3, "vt-1")

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), entry))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusSuccess, stored.SyncStatus)
	s.Equal(1, s.GetHTTPClient().Calls(viettelCreatePath))
}

func (s *DispatcherTestSuite) TestDispatchGetStatusEntry() {
	s.GetHTTPClient().RegisterResponse(viettelStatusPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"errorCode":"","result":{"invoiceId":"vt-1","status":"ISSUED"}}`),
	})

	payload, err := json.Marshal(syncPayload{ExternalID: "vt-1"})
	s.Require().NoError(err)
	entry, err := syncqueue.NewEntry(types.GetDefaultBaseModel(s.GetContext()), syncqueue.NewEntryParams{
		InvoiceID:        "inv_1",
		TransactionID:    "txn-001",
		ProviderType:     types.ProviderTypeViettel,
		ProviderConfigID: s.cfg.ID,
		SyncType:         types.SyncTypeGetStatus,
		MaxAttempts:      3,
		Payload:          payload,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.GetStores().SyncRepo.Create(s.GetContext(), entry))
	claimed, err := s.GetStores().SyncRepo.Claim(s.GetContext(), entry.ID, "wrk_test", time.Now().UTC().Add(time.Minute))
	s.Require().NoError(err)

	s.NoError(s.dispatcher.Dispatch(s.GetContext(), claimed))

	stored, err := s.GetStores().SyncRepo.Get(s.GetContext(), entry.ID)
	s.NoError(err)
	s.Equal(types.SyncStatusSuccess, stored.SyncStatus)
}
