package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
)

// SyncQueueRepository implements syncqueue.Repository. Claim runs under the
// store mutex so two workers can never own one entry, matching the atomicity
// the real backend must provide.
type SyncQueueRepository struct {
	mu      sync.Mutex
	entries map[string]*syncqueue.Entry
}

// NewSyncQueueRepository creates a new in-memory sync queue repository
func NewSyncQueueRepository() *SyncQueueRepository {
	return &SyncQueueRepository{
		entries: make(map[string]*syncqueue.Entry),
	}
}

func (s *SyncQueueRepository) Create(ctx context.Context, entry *syncqueue.Entry) error {
	if entry == nil {
		return ierr.NewError("entry cannot be nil").
			Mark(ierr.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		return ierr.NewError("entry already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *SyncQueueRepository) Get(ctx context.Context, id string) (*syncqueue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[id]
	if !exists {
		return nil, ierr.NewError("entry not found").
			WithReportableDetails(map[string]any{"entry_id": id}).
			Mark(ierr.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (s *SyncQueueRepository) Update(ctx context.Context, entry *syncqueue.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; !exists {
		return ierr.NewError("entry not found").
			WithReportableDetails(map[string]any{"entry_id": entry.ID}).
			Mark(ierr.ErrNotFound)
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *SyncQueueRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*syncqueue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*syncqueue.Entry
	for _, e := range s.entries {
		if e.IsDue(now) {
			cp := *e
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		ti, tj := due[i].CreatedAt, due[j].CreatedAt
		if due[i].NextRetryAt != nil {
			ti = *due[i].NextRetryAt
		}
		if due[j].NextRetryAt != nil {
			tj = *due[j].NextRetryAt
		}
		return ti.Before(tj)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *SyncQueueRepository) Claim(ctx context.Context, id string, workerID string, leaseUntil time.Time) (*syncqueue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return nil, ierr.NewError("entry not found").
			WithReportableDetails(map[string]any{"entry_id": id}).
			Mark(ierr.ErrNotFound)
	}
	if !e.IsDue(time.Now().UTC()) {
		return nil, ierr.NewError("entry is not due").
			WithReportableDetails(map[string]any{
				"entry_id": id,
				"status":   e.SyncStatus,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	if err := e.MarkProcessing(workerID, leaseUntil); err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}

func (s *SyncQueueRepository) ReclaimStale(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reclaimed := 0
	for _, e := range s.entries {
		if e.SyncStatus.IsTerminal() || e.LeaseExpiresAt == nil || e.LeaseExpiresAt.After(now) {
			continue
		}
		if err := e.ReleaseExpiredLease(now); err == nil {
			reclaimed++
		}
	}
	return reclaimed, nil
}

func (s *SyncQueueRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range s.entries {
		counts[e.SyncStatus.String()]++
	}
	return counts, nil
}

// Clear clears the sync queue repository
func (s *SyncQueueRepository) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*syncqueue.Entry)
}
