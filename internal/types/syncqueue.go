package types

import (
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/samber/lo"
)

// SyncType is the kind of provider call a queue entry replays
type SyncType string

const (
	SyncTypeSubmit     SyncType = "SUBMIT"
	SyncTypeSign       SyncType = "SIGN"
	SyncTypeGetStatus  SyncType = "GET_STATUS"
	SyncTypeGetInvoice SyncType = "GET_INVOICE"
)

func (t SyncType) String() string {
	return string(t)
}

func (t SyncType) Validate() error {
	allowed := []SyncType{
		SyncTypeSubmit,
		SyncTypeSign,
		SyncTypeGetStatus,
		SyncTypeGetInvoice,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid sync type").
			WithHint("Please provide a valid sync type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SyncStatus is the state of a delivery queue entry
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "PENDING"
	SyncStatusProcessing SyncStatus = "PROCESSING"
	SyncStatusRetrying   SyncStatus = "RETRYING"
	SyncStatusSuccess    SyncStatus = "SUCCESS"
	SyncStatusFailed     SyncStatus = "FAILED"
)

func (s SyncStatus) String() string {
	return string(s)
}

func (s SyncStatus) Validate() error {
	allowed := []SyncStatus{
		SyncStatusPending,
		SyncStatusProcessing,
		SyncStatusRetrying,
		SyncStatusSuccess,
		SyncStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid sync status").
			WithHint("Please provide a valid sync status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal returns true when the entry may never be mutated again
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusSuccess || s == SyncStatusFailed
}
