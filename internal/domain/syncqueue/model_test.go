package syncqueue

import (
	"testing"
	"time"

	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(t *testing.T) *Entry {
	t.Helper()
	e, err := NewEntry(types.BaseModel{Status: types.StatusPublished}, NewEntryParams{
		InvoiceID:        "inv_1",
		TransactionID:    "txn_1",
		ProviderType:     types.ProviderTypeViettel,
		ProviderConfigID: "pcfg_1",
		SyncType:         types.SyncTypeSubmit,
		MaxAttempts:      3,
	})
	require.NoError(t, err)
	return e
}

func TestNewEntryValidation(t *testing.T) {
	base := types.BaseModel{Status: types.StatusPublished}

	_, err := NewEntry(base, NewEntryParams{
		TransactionID: "txn_1",
		ProviderType:  types.ProviderTypeViettel,
		SyncType:      types.SyncTypeSubmit,
		MaxAttempts:   3,
	})
	assert.Error(t, err, "missing invoice id must be rejected")

	_, err = NewEntry(base, NewEntryParams{
		InvoiceID:    "inv_1",
		ProviderType: types.ProviderTypeViettel,
		SyncType:     "BOGUS",
		MaxAttempts:  3,
	})
	assert.Error(t, err, "unknown sync type must be rejected")

	_, err = NewEntry(base, NewEntryParams{
		InvoiceID:    "inv_1",
		ProviderType: types.ProviderTypeViettel,
		SyncType:     types.SyncTypeSubmit,
		MaxAttempts:  0,
	})
	assert.Error(t, err, "zero max attempts must be rejected")
}

func TestEntryLifecycleSuccess(t *testing.T) {
	e := newTestEntry(t)
	now := time.Now().UTC()

	assert.Equal(t, types.SyncStatusPending, e.SyncStatus)
	assert.True(t, e.IsDue(now))

	require.NoError(t, e.MarkProcessing("wrk_1", now.Add(5*time.Minute)))
	assert.Equal(t, "wrk_1", e.ClaimedBy)
	assert.False(t, e.IsDue(now))

	require.NoError(t, e.MarkSuccess())
	assert.Equal(t, types.SyncStatusSuccess, e.SyncStatus)
	assert.True(t, e.IsTerminal())
	assert.Empty(t, e.ClaimedBy)
	assert.Nil(t, e.LeaseExpiresAt)
}

func TestEntryDoubleClaimRejected(t *testing.T) {
	e := newTestEntry(t)
	lease := time.Now().UTC().Add(5 * time.Minute)

	require.NoError(t, e.MarkProcessing("wrk_1", lease))
	err := e.MarkProcessing("wrk_2", lease)
	assert.Error(t, err)
	assert.True(t, ierr.IsVersionConflict(err))
	assert.Equal(t, "wrk_1", e.ClaimedBy)
}

func TestEntryRetryThenExhaustion(t *testing.T) {
	e := newTestEntry(t)
	now := time.Now().UTC()
	lease := now.Add(5 * time.Minute)

	// Attempts 1 and 2 fail transiently and schedule retries
	for attempt := 1; attempt <= 2; attempt++ {
		require.NoError(t, e.MarkProcessing("wrk_1", lease))
		require.NoError(t, e.MarkFailure("provider timeout", now.Add(time.Minute)))
		assert.Equal(t, types.SyncStatusRetrying, e.SyncStatus)
		assert.Equal(t, attempt, e.AttemptCount)
		require.NotNil(t, e.NextRetryAt)
		assert.False(t, e.IsDue(now))
		assert.True(t, e.IsDue(now.Add(2*time.Minute)))
	}

	// Attempt 3 hits max attempts and the entry goes terminal
	require.NoError(t, e.MarkProcessing("wrk_1", lease))
	require.NoError(t, e.MarkFailure("provider timeout", now.Add(time.Minute)))
	assert.Equal(t, types.SyncStatusFailed, e.SyncStatus)
	assert.Equal(t, 3, e.AttemptCount)
	assert.True(t, e.IsTerminal())
	assert.Nil(t, e.NextRetryAt)
}

func TestEntryTerminalImmutable(t *testing.T) {
	e := newTestEntry(t)
	lease := time.Now().UTC().Add(5 * time.Minute)

	require.NoError(t, e.MarkProcessing("wrk_1", lease))
	require.NoError(t, e.MarkSuccess())

	assert.Error(t, e.MarkProcessing("wrk_2", lease))
	assert.Error(t, e.MarkSuccess())
	assert.Error(t, e.MarkFailure("late failure", time.Now()))
	assert.Error(t, e.MarkFailed("late failure"))
	assert.Equal(t, types.SyncStatusSuccess, e.SyncStatus)
}

func TestEntryMarkFailedBypassesRemainingAttempts(t *testing.T) {
	e := newTestEntry(t)
	lease := time.Now().UTC().Add(5 * time.Minute)

	require.NoError(t, e.MarkProcessing("wrk_1", lease))
	require.NoError(t, e.MarkFailed("invalid buyer tax code"))

	assert.Equal(t, types.SyncStatusFailed, e.SyncStatus)
	assert.Equal(t, 1, e.AttemptCount)
	assert.True(t, e.IsTerminal())
}

func TestEntryReleaseExpiredLease(t *testing.T) {
	e := newTestEntry(t)
	now := time.Now().UTC()

	require.NoError(t, e.MarkProcessing("wrk_1", now.Add(-time.Minute)))

	require.NoError(t, e.ReleaseExpiredLease(now))
	assert.Equal(t, types.SyncStatusRetrying, e.SyncStatus)
	assert.Empty(t, e.ClaimedBy)
	// A crashed worker's attempt is not counted against the budget
	assert.Equal(t, 0, e.AttemptCount)
	assert.True(t, e.IsDue(now))
}

func TestEntryReleaseUnexpiredLeaseRejected(t *testing.T) {
	e := newTestEntry(t)
	now := time.Now().UTC()

	require.NoError(t, e.MarkProcessing("wrk_1", now.Add(5*time.Minute)))
	err := e.ReleaseExpiredLease(now)
	assert.Error(t, err)
	assert.Equal(t, types.SyncStatusProcessing, e.SyncStatus)
}
