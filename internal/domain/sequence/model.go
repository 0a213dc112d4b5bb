package sequence

import (
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
)

// Registration is the regulator-approved number range a merchant is permitted
// to issue from. Immutable once templates reference it except for status
// transitions performed by collaborators.
type Registration struct {
	ID string `json:"id"`
	// The from_number is the first invoice number the regulator approved
	FromNumber int64 `json:"from_number"`
	// The to_number is the last invoice number the regulator approved
	ToNumber int64 `json:"to_number"`
	// The quantity must equal to_number - from_number + 1
	Quantity int64 `json:"quantity"`

	types.BaseModel
}

// Validate validates the registration
func (r *Registration) Validate() error {
	if r.FromNumber < 1 {
		return ierr.NewError("invalid from number").
			WithHint("From number must be at least 1").
			Mark(ierr.ErrValidation)
	}
	if r.ToNumber < r.FromNumber {
		return ierr.NewError("invalid number range").
			WithHint("To number must not be less than from number").
			Mark(ierr.ErrValidation)
	}
	if r.Quantity != r.ToNumber-r.FromNumber+1 {
		return ierr.NewError("quantity does not match range").
			WithHintf("Quantity must equal %d for this range", r.ToNumber-r.FromNumber+1).
			WithReportableDetails(map[string]any{
				"from_number": r.FromNumber,
				"to_number":   r.ToNumber,
				"quantity":    r.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Contains reports whether [min, max] is a sub-range of this registration
func (r *Registration) Contains(min, max int64) bool {
	return min >= r.FromNumber && max <= r.ToNumber
}

// Template binds a merchant's symbol/series code to a bounded range of
// invoice numbers inside a registration. CurrentNumber is the last issued
// number and is mutated only by the allocator; MinNumber-1 means nothing has
// been issued yet.
type Template struct {
	ID string `json:"id"`
	// The template_code identifies the regulator-approved invoice layout
	TemplateCode string `json:"template_code"`
	// The symbol_code is the series prefix printed on issued invoices
	SymbolCode string `json:"symbol_code"`
	// The registration_id references the approved range this template draws from
	RegistrationID string `json:"registration_id,omitempty"`
	MinNumber      int64  `json:"min_number"`
	MaxNumber      int64  `json:"max_number"`
	CurrentNumber  int64  `json:"current_number"`

	types.BaseModel
}

// NewTemplate creates a template against its registration, enforcing that the
// template's range is a subset of the registration's range at creation time.
func NewTemplate(templateCode, symbolCode string, min, max int64, reg *Registration, base types.BaseModel) (*Template, error) {
	t := &Template{
		ID:            types.GenerateUUIDWithPrefix(types.UUIDPrefixSequenceTemplate),
		TemplateCode:  templateCode,
		SymbolCode:    symbolCode,
		MinNumber:     min,
		MaxNumber:     max,
		CurrentNumber: min - 1,
		BaseModel:     base,
	}
	if reg != nil {
		t.RegistrationID = reg.ID
		if err := reg.Validate(); err != nil {
			return nil, err
		}
		if !reg.Contains(min, max) {
			return nil, ierr.NewError("template range exceeds registration").
				WithHintf("Range [%d, %d] must be inside the registered range [%d, %d]",
					min, max, reg.FromNumber, reg.ToNumber).
				Mark(ierr.ErrValidation)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate validates the template
func (t *Template) Validate() error {
	if t.TemplateCode == "" || t.SymbolCode == "" {
		return ierr.NewError("missing template or symbol code").
			WithHint("Template and symbol codes are required").
			Mark(ierr.ErrValidation)
	}
	if t.MinNumber < 1 {
		return ierr.NewError("invalid min number").
			WithHint("Min number must be at least 1").
			Mark(ierr.ErrValidation)
	}
	if t.MaxNumber < t.MinNumber {
		return ierr.NewError("invalid number range").
			WithHint("Max number must not be less than min number").
			Mark(ierr.ErrValidation)
	}
	if t.CurrentNumber < t.MinNumber-1 || t.CurrentNumber > t.MaxNumber {
		return ierr.NewError("current number out of range").
			WithReportableDetails(map[string]any{
				"min_number":     t.MinNumber,
				"max_number":     t.MaxNumber,
				"current_number": t.CurrentNumber,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Remaining returns how many numbers are still available on this template
func (t *Template) Remaining() int64 {
	return t.MaxNumber - t.CurrentNumber
}

// IsActive reports whether the allocator may issue from this template
func (t *Template) IsActive() bool {
	return t.Status == types.StatusPublished
}
