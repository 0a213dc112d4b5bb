package syncqueue

import (
	"context"
	"time"
)

// Repository defines the interface for delivery queue persistence. Claim must
// be atomic in the backing store so two workers can never own one entry.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error

	// ListDue returns entries ready for dispatch: PENDING, or RETRYING with
	// next_retry_at <= now, ordered by next_retry_at ascending, bounded by limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Entry, error)

	// Claim transitions the entry to PROCESSING owned by workerID until
	// leaseUntil. It must fail with ErrVersionConflict when the entry is
	// already claimed or no longer due.
	Claim(ctx context.Context, id string, workerID string, leaseUntil time.Time) (*Entry, error)

	// ReclaimStale returns PROCESSING entries with expired leases to RETRYING
	// and reports how many were reclaimed.
	ReclaimStale(ctx context.Context, now time.Time) (int, error)

	// CountByStatus reports queue depth per status, for operator visibility
	CountByStatus(ctx context.Context) (map[string]int, error)
}
