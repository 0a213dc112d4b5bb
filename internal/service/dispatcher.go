package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/invoice"
	"github.com/einvoicehub/einvoicehub/internal/domain/providerconfig"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/provider"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// syncPayload is the serialized provider call stored on a queue entry at
// enqueue time. Which fields are set depends on the entry's sync type.
type syncPayload struct {
	Request    *invoice.CanonicalRequest `json:"request,omitempty"`
	ReplacesID string                    `json:"replaces_id,omitempty"`
	ExternalID string                    `json:"external_id,omitempty"`
	Format     invoice.DocumentFormat    `json:"format,omitempty"`
}

// SyncDispatcher replays one claimed queue entry against its provider and
// records the outcome. Replaying a terminal entry is a no-op, so a crashed
// worker whose entry already completed cannot double-submit.
type SyncDispatcher struct {
	syncRepo           syncqueue.Repository
	providerConfigRepo providerconfig.Repository
	registry           *provider.Registry
	syncConfig         config.SyncConfig
	logger             *logger.Logger
}

// NewSyncDispatcher creates a new SyncDispatcher
func NewSyncDispatcher(
	syncRepo syncqueue.Repository,
	providerConfigRepo providerconfig.Repository,
	registry *provider.Registry,
	syncConfig config.SyncConfig,
	logger *logger.Logger,
) *SyncDispatcher {
	return &SyncDispatcher{
		syncRepo:           syncRepo,
		providerConfigRepo: providerConfigRepo,
		registry:           registry,
		syncConfig:         syncConfig,
		logger:             logger,
	}
}

// Dispatch executes a claimed (PROCESSING) entry. The outcome transition and
// its persistence both happen here; callers only claim and hand over.
func (d *SyncDispatcher) Dispatch(ctx context.Context, entry *syncqueue.Entry) error {
	if entry.IsTerminal() {
		d.logger.Debugw("skipping terminal entry", "entry_id", entry.ID)
		return nil
	}

	cfg, err := d.providerConfigRepo.Get(ctx, entry.ProviderConfigID)
	if err != nil {
		return d.recordFailure(ctx, entry, err.Error(), true)
	}
	adapter, err := d.registry.Get(entry.ProviderType)
	if err != nil {
		return d.recordFailure(ctx, entry, err.Error(), false)
	}

	var payload syncPayload
	if len(entry.Payload) > 0 {
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return d.recordFailure(ctx, entry, "malformed payload: "+err.Error(), false)
		}
	}

	switch entry.SyncType {
	case types.SyncTypeSubmit:
		return d.dispatchSubmit(ctx, entry, adapter, cfg, &payload)
	case types.SyncTypeSign:
		return d.dispatchSign(ctx, entry, adapter, cfg, &payload)
	case types.SyncTypeGetStatus:
		return d.dispatchGetStatus(ctx, entry, adapter, cfg, &payload)
	case types.SyncTypeGetInvoice:
		return d.dispatchGetInvoice(ctx, entry, adapter, cfg, &payload)
	default:
		return d.recordFailure(ctx, entry, "unknown sync type "+entry.SyncType.String(), false)
	}
}

// dispatchSubmit replays an issuance. When the original attempt got far enough
// to return an external id, the provider is probed first and an
// already-accepted invoice completes the entry without resubmitting. Without
// an external id the resubmission itself is idempotent: the provider dedupes
// on the transaction id carried in the payload.
func (d *SyncDispatcher) dispatchSubmit(ctx context.Context, entry *syncqueue.Entry, adapter provider.Adapter, cfg *providerconfig.ProviderConfig, payload *syncPayload) error {
	if payload.Request == nil {
		return d.recordFailure(ctx, entry, "submit entry has no request payload", false)
	}

	if payload.ExternalID != "" {
		status, err := adapter.GetStatus(ctx, cfg, payload.ExternalID)
		if err == nil && accepted(status.Status) {
			d.logger.Infow("invoice already accepted by provider, completing without resubmit",
				"entry_id", entry.ID,
				"external_id", payload.ExternalID,
				"provider_status", status.ProviderCode)
			return d.recordSuccess(ctx, entry)
		}
	}

	var (
		resp *invoice.CanonicalResponse
		err  error
	)
	if payload.ReplacesID != "" {
		resp, err = adapter.Replace(ctx, cfg, payload.ReplacesID, payload.Request)
	} else {
		resp, err = adapter.Issue(ctx, cfg, payload.Request)
	}
	return d.recordOutcome(ctx, entry, resp, err)
}

// dispatchSign polls the provider until signing finishes. A still-signing
// state counts as a transient failure so the entry comes back on the backoff
// curve instead of busy-waiting.
func (d *SyncDispatcher) dispatchSign(ctx context.Context, entry *syncqueue.Entry, adapter provider.Adapter, cfg *providerconfig.ProviderConfig, payload *syncPayload) error {
	if payload.ExternalID == "" {
		return d.recordFailure(ctx, entry, "sign entry has no external id", false)
	}
	status, err := adapter.GetStatus(ctx, cfg, payload.ExternalID)
	if err != nil {
		return d.recordFailure(ctx, entry, err.Error(), retryableErr(err))
	}
	switch status.Status {
	case types.InvoiceStatusSuccess:
		return d.recordSuccess(ctx, entry)
	case types.InvoiceStatusSigning, types.InvoiceStatusSentToProvider, types.InvoiceStatusDraft:
		return d.recordFailure(ctx, entry, "invoice still signing, provider status "+status.ProviderCode, true)
	default:
		return d.recordFailure(ctx, entry, "signing ended in "+status.Status.String(), false)
	}
}

func (d *SyncDispatcher) dispatchGetStatus(ctx context.Context, entry *syncqueue.Entry, adapter provider.Adapter, cfg *providerconfig.ProviderConfig, payload *syncPayload) error {
	if payload.ExternalID == "" {
		return d.recordFailure(ctx, entry, "status entry has no external id", false)
	}
	if _, err := adapter.GetStatus(ctx, cfg, payload.ExternalID); err != nil {
		return d.recordFailure(ctx, entry, err.Error(), retryableErr(err))
	}
	return d.recordSuccess(ctx, entry)
}

func (d *SyncDispatcher) dispatchGetInvoice(ctx context.Context, entry *syncqueue.Entry, adapter provider.Adapter, cfg *providerconfig.ProviderConfig, payload *syncPayload) error {
	if payload.ExternalID == "" {
		return d.recordFailure(ctx, entry, "document entry has no external id", false)
	}
	var err error
	if payload.Format == invoice.DocumentFormatXML {
		_, err = adapter.GetXML(ctx, cfg, payload.ExternalID)
	} else {
		_, err = adapter.GetPDF(ctx, cfg, payload.ExternalID)
	}
	if err != nil {
		return d.recordFailure(ctx, entry, err.Error(), retryableErr(err))
	}
	return d.recordSuccess(ctx, entry)
}

// recordOutcome maps a canonical response (or a pre-flight error) onto the
// entry's state machine and persists the transition.
func (d *SyncDispatcher) recordOutcome(ctx context.Context, entry *syncqueue.Entry, resp *invoice.CanonicalResponse, err error) error {
	if err != nil {
		return d.recordFailure(ctx, entry, err.Error(), retryableErr(err))
	}
	switch {
	case resp.Status == types.ResponseStatusSuccess, resp.Status == types.ResponseStatusPending:
		return d.recordSuccess(ctx, entry)
	case resp.IsRetryable():
		return d.recordFailure(ctx, entry, failureText(resp), true)
	default:
		return d.recordFailure(ctx, entry, failureText(resp), false)
	}
}

func (d *SyncDispatcher) recordSuccess(ctx context.Context, entry *syncqueue.Entry) error {
	if err := entry.MarkSuccess(); err != nil {
		return err
	}
	d.logger.Infow("queue entry completed",
		"entry_id", entry.ID,
		"sync_type", entry.SyncType,
		"attempts", entry.AttemptCount)
	return d.syncRepo.Update(ctx, entry)
}

func (d *SyncDispatcher) recordFailure(ctx context.Context, entry *syncqueue.Entry, lastError string, retryable bool) error {
	if !retryable {
		if err := entry.MarkFailed(lastError); err != nil {
			return err
		}
		d.logger.Warnw("queue entry failed permanently",
			"entry_id", entry.ID,
			"sync_type", entry.SyncType,
			"error", lastError)
		return d.syncRepo.Update(ctx, entry)
	}

	next := d.nextRetryAt(time.Now().UTC(), entry.AttemptCount+1)
	if err := entry.MarkFailure(lastError, next); err != nil {
		return err
	}
	if entry.SyncStatus == types.SyncStatusFailed {
		d.logger.Warnw("queue entry exhausted its attempts",
			"entry_id", entry.ID,
			"sync_type", entry.SyncType,
			"attempts", entry.AttemptCount,
			"error", lastError)
	} else {
		d.logger.Infow("queue entry scheduled for retry",
			"entry_id", entry.ID,
			"attempt", entry.AttemptCount,
			"next_retry_at", next)
	}
	return d.syncRepo.Update(ctx, entry)
}

// nextRetryAt walks the capped exponential curve to the given attempt.
// Randomization is off so retry times stay predictable for operators.
func (d *SyncDispatcher) nextRetryAt(now time.Time, attempt int) time.Time {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.syncConfig.RetryBackoff
	b.MaxInterval = d.syncConfig.RetryBackoffCap
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	wait := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		wait = b.NextBackOff()
	}
	return now.Add(wait)
}

// accepted reports whether a probed status means the provider already has the
// invoice and resubmitting would duplicate it
func accepted(s types.InvoiceStatus) bool {
	switch s {
	case types.InvoiceStatusSuccess, types.InvoiceStatusSigning, types.InvoiceStatusSentToProvider:
		return true
	default:
		return false
	}
}

// retryableErr classifies pre-flight and transport errors for the queue.
// Only infrastructure trouble earns a retry; bad input never heals on its own.
func retryableErr(err error) bool {
	return ierr.IsProviderTimeout(err) ||
		ierr.Is(err, ierr.ErrHTTPClient) ||
		ierr.Is(err, ierr.ErrDatabase)
}

func failureText(resp *invoice.CanonicalResponse) string {
	if resp.ErrorMessage != "" {
		if resp.ErrorCode != "" {
			return resp.ErrorCode + ": " + resp.ErrorMessage
		}
		return resp.ErrorMessage
	}
	return resp.ErrorCode
}
