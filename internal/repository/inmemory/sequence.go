package inmemory

import (
	"context"
	"sync"

	"github.com/einvoicehub/einvoicehub/internal/domain/sequence"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
)

// SequenceRepository implements sequence.Repository. UpdateCurrentNumber is
// a real compare-and-swap under the store mutex, so allocator concurrency
// behaves the same way it would against a SQL backend.
type SequenceRepository struct {
	mu            sync.Mutex
	templates     map[string]*sequence.Template
	registrations map[string]*sequence.Registration
}

// NewSequenceRepository creates a new in-memory sequence repository
func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{
		templates:     make(map[string]*sequence.Template),
		registrations: make(map[string]*sequence.Registration),
	}
}

func (s *SequenceRepository) CreateTemplate(ctx context.Context, template *sequence.Template) error {
	if template == nil {
		return ierr.NewError("template cannot be nil").
			Mark(ierr.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[template.ID]; exists {
		return ierr.NewError("template already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *template
	s.templates[template.ID] = &cp
	return nil
}

func (s *SequenceRepository) GetTemplate(ctx context.Context, id string) (*sequence.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.templates[id]
	if !exists {
		return nil, ierr.NewError("template not found").
			WithReportableDetails(map[string]any{"template_id": id}).
			Mark(ierr.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *SequenceRepository) UpdateCurrentNumber(ctx context.Context, templateID string, old, next int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.templates[templateID]
	if !exists {
		return ierr.NewError("template not found").
			WithReportableDetails(map[string]any{"template_id": templateID}).
			Mark(ierr.ErrNotFound)
	}
	if t.CurrentNumber != old {
		return ierr.NewError("current number moved").
			WithReportableDetails(map[string]any{
				"template_id": templateID,
				"expected":    old,
				"actual":      t.CurrentNumber,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	t.CurrentNumber = next
	return nil
}

func (s *SequenceRepository) CreateRegistration(ctx context.Context, registration *sequence.Registration) error {
	if registration == nil {
		return ierr.NewError("registration cannot be nil").
			Mark(ierr.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registrations[registration.ID]; exists {
		return ierr.NewError("registration already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *registration
	s.registrations[registration.ID] = &cp
	return nil
}

func (s *SequenceRepository) GetRegistration(ctx context.Context, id string) (*sequence.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.registrations[id]
	if !exists {
		return nil, ierr.NewError("registration not found").
			WithReportableDetails(map[string]any{"registration_id": id}).
			Mark(ierr.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

// Clear clears the sequence repository
func (s *SequenceRepository) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = make(map[string]*sequence.Template)
	s.registrations = make(map[string]*sequence.Registration)
}
