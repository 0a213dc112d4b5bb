package syncqueue

import (
	"encoding/json"
	"time"

	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// Entry is one durable delivery queue item. It replays a single provider
// call at least once until it reaches SUCCESS or FAILED. Once terminal, no
// field may be mutated again.
//
// State machine:
//
//	PENDING    -> PROCESSING
//	PROCESSING -> SUCCESS | FAILED | RETRYING
//	RETRYING   -> PROCESSING (when next_retry_at is reached)
//
// A PROCESSING entry is exclusively owned by the worker named in ClaimedBy
// until its lease expires; a crashed worker's entry is reclaimed once the
// lease runs out.
type Entry struct {
	ID string `json:"id"`
	// The invoice_id references the target invoice at the collaborator
	InvoiceID string `json:"invoice_id"`
	// The transaction_id keys idempotent replay against the provider
	TransactionID    string             `json:"transaction_id"`
	ProviderType     types.ProviderType `json:"provider_type"`
	ProviderConfigID string             `json:"provider_config_id"`
	SyncType         types.SyncType     `json:"sync_type"`
	SyncStatus       types.SyncStatus   `json:"sync_status"`
	AttemptCount     int                `json:"attempt_count"`
	MaxAttempts      int                `json:"max_attempts"`
	LastError        string             `json:"last_error,omitempty"`
	NextRetryAt      *time.Time         `json:"next_retry_at,omitempty"`
	ClaimedBy        string             `json:"claimed_by,omitempty"`
	LeaseExpiresAt   *time.Time         `json:"lease_expires_at,omitempty"`
	// Payload is the canonical request to replay, serialized at enqueue time
	Payload json.RawMessage `json:"payload,omitempty"`

	types.BaseModel
}

// NewEntryParams are the inputs for creating a queue entry
type NewEntryParams struct {
	InvoiceID        string
	TransactionID    string
	ProviderType     types.ProviderType
	ProviderConfigID string
	SyncType         types.SyncType
	MaxAttempts      int
	Payload          json.RawMessage
	LastError        string
}

// NewEntry creates a PENDING queue entry
func NewEntry(base types.BaseModel, params NewEntryParams) (*Entry, error) {
	e := &Entry{
		ID:               types.GenerateUUIDWithPrefix(types.UUIDPrefixSyncQueueEntry),
		InvoiceID:        params.InvoiceID,
		TransactionID:    params.TransactionID,
		ProviderType:     params.ProviderType,
		ProviderConfigID: params.ProviderConfigID,
		SyncType:         params.SyncType,
		SyncStatus:       types.SyncStatusPending,
		MaxAttempts:      params.MaxAttempts,
		Payload:          params.Payload,
		LastError:        params.LastError,
		BaseModel:        base,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate validates the entry
func (e *Entry) Validate() error {
	if e.InvoiceID == "" {
		return ierr.NewError("missing invoice id").
			WithHint("Queue entry must reference an invoice").
			Mark(ierr.ErrValidation)
	}
	if err := e.SyncType.Validate(); err != nil {
		return err
	}
	if err := e.SyncStatus.Validate(); err != nil {
		return err
	}
	if err := e.ProviderType.Validate(); err != nil {
		return err
	}
	if e.MaxAttempts < 1 {
		return ierr.NewError("invalid max attempts").
			WithHint("Max attempts must be at least 1").
			Mark(ierr.ErrValidation)
	}
	if e.AttemptCount > e.MaxAttempts {
		return ierr.NewError("attempt count exceeds max attempts").
			WithReportableDetails(map[string]any{
				"attempt_count": e.AttemptCount,
				"max_attempts":  e.MaxAttempts,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether the entry may never change again
func (e *Entry) IsTerminal() bool {
	return e.SyncStatus.IsTerminal()
}

// IsDue reports whether the collector may pick the entry up at now
func (e *Entry) IsDue(now time.Time) bool {
	switch e.SyncStatus {
	case types.SyncStatusPending:
		return true
	case types.SyncStatusRetrying:
		return e.NextRetryAt != nil && !e.NextRetryAt.After(now)
	default:
		return false
	}
}

// MarkProcessing claims the entry for workerID until leaseUntil. A
// PROCESSING entry cannot be claimed again: ownership is exclusive.
func (e *Entry) MarkProcessing(workerID string, leaseUntil time.Time) error {
	if e.IsTerminal() {
		return ierr.NewError("entry is terminal").
			WithHint("Terminal entries are immutable").
			Mark(ierr.ErrInvalidOperation)
	}
	if e.SyncStatus == types.SyncStatusProcessing {
		return ierr.NewError("entry is already being processed").
			WithReportableDetails(map[string]any{
				"claimed_by": e.ClaimedBy,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	e.SyncStatus = types.SyncStatusProcessing
	e.ClaimedBy = workerID
	e.LeaseExpiresAt = &leaseUntil
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSuccess completes the entry. Only a PROCESSING owner may call it.
func (e *Entry) MarkSuccess() error {
	if e.SyncStatus != types.SyncStatusProcessing {
		return ierr.NewError("entry is not being processed").
			WithHint("Only a claimed entry can complete").
			Mark(ierr.ErrInvalidOperation)
	}
	e.SyncStatus = types.SyncStatusSuccess
	e.ClaimedBy = ""
	e.LeaseExpiresAt = nil
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailure records a failed attempt. The entry moves to RETRYING with
// nextRetryAt when attempts remain, FAILED otherwise.
func (e *Entry) MarkFailure(lastError string, nextRetryAt time.Time) error {
	if e.SyncStatus != types.SyncStatusProcessing {
		return ierr.NewError("entry is not being processed").
			WithHint("Only a claimed entry can record a failure").
			Mark(ierr.ErrInvalidOperation)
	}
	e.AttemptCount++
	e.LastError = lastError
	e.ClaimedBy = ""
	e.LeaseExpiresAt = nil
	e.UpdatedAt = time.Now().UTC()

	if e.AttemptCount >= e.MaxAttempts {
		e.SyncStatus = types.SyncStatusFailed
		e.NextRetryAt = nil
		return nil
	}
	e.SyncStatus = types.SyncStatusRetrying
	e.NextRetryAt = &nextRetryAt
	return nil
}

// MarkFailed terminates the entry immediately, bypassing remaining attempts.
// Used for non-retryable failures discovered during dispatch.
func (e *Entry) MarkFailed(lastError string) error {
	if e.SyncStatus != types.SyncStatusProcessing {
		return ierr.NewError("entry is not being processed").
			WithHint("Only a claimed entry can be failed").
			Mark(ierr.ErrInvalidOperation)
	}
	e.AttemptCount++
	e.LastError = lastError
	e.SyncStatus = types.SyncStatusFailed
	e.ClaimedBy = ""
	e.LeaseExpiresAt = nil
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// ReleaseExpiredLease returns a PROCESSING entry whose lease has run out to
// RETRYING without consuming an attempt. The crashed worker's outcome is
// unknown, so the retry path re-probes the provider before resubmitting.
func (e *Entry) ReleaseExpiredLease(now time.Time) error {
	if e.SyncStatus != types.SyncStatusProcessing {
		return ierr.NewError("entry is not being processed").
			Mark(ierr.ErrInvalidOperation)
	}
	if e.LeaseExpiresAt == nil || e.LeaseExpiresAt.After(now) {
		return ierr.NewError("lease has not expired").
			Mark(ierr.ErrInvalidOperation)
	}
	e.SyncStatus = types.SyncStatusRetrying
	e.ClaimedBy = ""
	e.LeaseExpiresAt = nil
	e.NextRetryAt = &now
	e.UpdatedAt = now
	return nil
}
