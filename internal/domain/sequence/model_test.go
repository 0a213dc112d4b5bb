package sequence

import (
	"testing"

	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() *Registration {
	return &Registration{
		ID:         types.GenerateUUIDWithPrefix(types.UUIDPrefixRegistration),
		FromNumber: 1,
		ToNumber:   1000,
		Quantity:   1000,
		BaseModel:  types.BaseModel{Status: types.StatusPublished},
	}
}

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Registration)
		wantErr bool
	}{
		{
			name:   "valid range",
			mutate: func(r *Registration) {},
		},
		{
			name:    "from number below one",
			mutate:  func(r *Registration) { r.FromNumber = 0 },
			wantErr: true,
		},
		{
			name:    "inverted range",
			mutate:  func(r *Registration) { r.ToNumber = 0 },
			wantErr: true,
		},
		{
			name:    "quantity does not match range",
			mutate:  func(r *Registration) { r.Quantity = 999 },
			wantErr: true,
		},
		{
			name: "single number range",
			mutate: func(r *Registration) {
				r.FromNumber = 7
				r.ToNumber = 7
				r.Quantity = 1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTemplateRangeContainment(t *testing.T) {
	reg := validRegistration()
	base := types.BaseModel{Status: types.StatusPublished}

	t.Run("range inside registration", func(t *testing.T) {
		tpl, err := NewTemplate("1/001", "C24TAA", 1, 500, reg, base)
		require.NoError(t, err)
		assert.Equal(t, reg.ID, tpl.RegistrationID)
		assert.Equal(t, int64(0), tpl.CurrentNumber)
		assert.Equal(t, int64(500), tpl.Remaining())
	})

	t.Run("range exceeds registration", func(t *testing.T) {
		_, err := NewTemplate("1/001", "C24TAA", 500, 1500, reg, base)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("range below registration", func(t *testing.T) {
		reg := validRegistration()
		reg.FromNumber = 100
		reg.Quantity = 901
		_, err := NewTemplate("1/001", "C24TAA", 1, 500, reg, base)
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("no registration skips containment", func(t *testing.T) {
		tpl, err := NewTemplate("1/001", "C24TAA", 1, 99999, nil, base)
		require.NoError(t, err)
		assert.Empty(t, tpl.RegistrationID)
	})
}

func TestTemplateValidate(t *testing.T) {
	base := types.BaseModel{Status: types.StatusPublished}
	tpl, err := NewTemplate("1/001", "C24TAA", 10, 20, nil, base)
	require.NoError(t, err)

	t.Run("current number at min minus one", func(t *testing.T) {
		tpl.CurrentNumber = 9
		assert.NoError(t, tpl.Validate())
	})

	t.Run("current number at max", func(t *testing.T) {
		tpl.CurrentNumber = 20
		assert.NoError(t, tpl.Validate())
		assert.Equal(t, int64(0), tpl.Remaining())
	})

	t.Run("current number below min minus one", func(t *testing.T) {
		tpl.CurrentNumber = 8
		assert.Error(t, tpl.Validate())
	})

	t.Run("current number above max", func(t *testing.T) {
		tpl.CurrentNumber = 21
		assert.Error(t, tpl.Validate())
	})

	t.Run("missing codes", func(t *testing.T) {
		tpl.CurrentNumber = 9
		tpl.SymbolCode = ""
		assert.Error(t, tpl.Validate())
	})
}

func TestTemplateIsActive(t *testing.T) {
	base := types.BaseModel{Status: types.StatusPublished}
	tpl, err := NewTemplate("1/001", "C24TAA", 1, 10, nil, base)
	require.NoError(t, err)
	assert.True(t, tpl.IsActive())

	tpl.Status = types.StatusArchived
	assert.False(t, tpl.IsActive())
}
