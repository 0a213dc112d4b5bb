package sequence

import "context"

// Repository defines the interface for sequence persistence. The backing
// store must make UpdateCurrentNumber atomic: either a compare-and-swap or a
// row-level exclusive update, so allocation is safe across processes.
type Repository interface {
	// Template operations
	CreateTemplate(ctx context.Context, template *Template) error
	GetTemplate(ctx context.Context, id string) (*Template, error)

	// UpdateCurrentNumber durably advances current_number from old to next.
	// It must fail with ErrVersionConflict when the stored value is no longer
	// old, without mutating anything.
	UpdateCurrentNumber(ctx context.Context, templateID string, old, next int64) error

	// Registration operations
	CreateRegistration(ctx context.Context, registration *Registration) error
	GetRegistration(ctx context.Context, id string) (*Registration, error)
}
