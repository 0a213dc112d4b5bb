package sequence

import (
	"context"
	"sync"

	"github.com/einvoicehub/einvoicehub/internal/domain/sequence"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
)

// casRetries bounds the compare-and-swap loop when another process advances
// the same template between our read and write.
const casRetries = 5

// Allocator hands out invoice numbers from a template's registered range.
// Numbers are strictly increasing and unique per template, and the advance is
// durably committed before the number is returned: an allocated number is
// never observable without being recorded, and vice versa.
type Allocator interface {
	// Allocate returns the next invoice number for the template. It fails
	// with ErrSequenceExhausted once the range is used up; that signal is
	// terminal and means a new registration must be provisioned.
	Allocate(ctx context.Context, templateID string) (int64, error)
}

type allocator struct {
	repo   sequence.Repository
	logger *logger.Logger

	// Per-template critical sections. Allocations on different templates
	// must not block each other, so there is no global lock.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAllocator creates a new Allocator
func NewAllocator(repo sequence.Repository, logger *logger.Logger) Allocator {
	return &allocator{
		repo:   repo,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (a *allocator) lockFor(templateID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.locks[templateID]; ok {
		return l
	}
	l := &sync.Mutex{}
	a.locks[templateID] = l
	return l
}

func (a *allocator) Allocate(ctx context.Context, templateID string) (int64, error) {
	lock := a.lockFor(templateID)
	lock.Lock()
	defer lock.Unlock()

	// The in-process mutex serializes local callers; the repository CAS
	// covers other processes sharing the backing store. A bounded retry
	// absorbs cross-process races without spinning forever.
	for attempt := 0; attempt < casRetries; attempt++ {
		template, err := a.repo.GetTemplate(ctx, templateID)
		if err != nil {
			return 0, err
		}
		if !template.IsActive() {
			return 0, ierr.NewError("template is not active").
				WithHint("Invoice numbers can only be allocated from active templates").
				WithReportableDetails(map[string]any{
					"template_id": templateID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		next := template.CurrentNumber + 1
		if next > template.MaxNumber {
			return 0, ierr.NewError("invoice number range exhausted").
				WithHintf("Template %s has issued all numbers up to %d; provision a new registration",
					template.SymbolCode, template.MaxNumber).
				WithReportableDetails(map[string]any{
					"template_id": templateID,
					"max_number":  template.MaxNumber,
				}).
				Mark(ierr.ErrSequenceExhausted)
		}

		err = a.repo.UpdateCurrentNumber(ctx, templateID, template.CurrentNumber, next)
		if err == nil {
			a.logger.Debugw("allocated invoice number",
				"template_id", templateID,
				"number", next)
			return next, nil
		}
		if !ierr.IsVersionConflict(err) {
			return 0, err
		}
		a.logger.Debugw("allocation conflict, retrying",
			"template_id", templateID,
			"attempt", attempt+1)
	}

	return 0, ierr.NewError("allocation contention").
		WithHint("Another process kept advancing the sequence; retry the request").
		WithReportableDetails(map[string]any{
			"template_id": templateID,
		}).
		Mark(ierr.ErrVersionConflict)
}
