package bkav

import (
	"testing"

	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, types.InvoiceStatusDraft, NormalizeStatus("1"))
	assert.Equal(t, types.InvoiceStatusSigning, NormalizeStatus("2"))
	assert.Equal(t, types.InvoiceStatusSuccess, NormalizeStatus("3"))
	assert.Equal(t, types.InvoiceStatusSentToProvider, NormalizeStatus("4"))
	assert.Equal(t, types.InvoiceStatusCancelled, NormalizeStatus("5"))
	assert.Equal(t, types.InvoiceStatusReplaced, NormalizeStatus("6"))
	assert.Equal(t, types.InvoiceStatusFailed, NormalizeStatus("7"))

	assert.Equal(t, types.InvoiceStatusFailed, NormalizeStatus("99"))
	assert.Equal(t, types.InvoiceStatusFailed, NormalizeStatus(""))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		status int
		want   types.ErrorKind
	}{
		{1, types.ErrorKindValidation},
		{2, types.ErrorKindAuth},
		{3, types.ErrorKindBusiness},
		{4, types.ErrorKindBusiness},
		{5, types.ErrorKindExhaustion},
		{20, types.ErrorKindTransient},
		{21, types.ErrorKindTransient},
		{42, types.ErrorKindBusiness},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.status), "status %d", tt.status)
	}

	// Only transient failures may be replayed by the queue
	assert.True(t, ClassifyError(20).IsRetryable())
	assert.False(t, ClassifyError(5).IsRetryable())
	assert.False(t, ClassifyError(2).IsRetryable())
}
