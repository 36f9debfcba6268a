package reconciliation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logiflow/internal/model"
	"logiflow/internal/reconciliation"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func ref(s string) *string { return &s }

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		fields reconciliation.Fields
		want   string
	}{
		{"nothing", reconciliation.Fields{}, reconciliation.StatusAwaiting},
		{"amount without reference", reconciliation.Fields{InvoiceAmount: amount("10")}, reconciliation.StatusAwaiting},
		{"blank reference", reconciliation.Fields{InvoiceReference: ref("  ")}, reconciliation.StatusAwaiting},
		{"reference only", reconciliation.Fields{InvoiceReference: ref("FAC-1")}, reconciliation.StatusPartialInvoice},
		{"reference and amount", reconciliation.Fields{InvoiceReference: ref("FAC-1"), InvoiceAmount: amount("10")}, reconciliation.StatusReadyToValidate},
		{"reconciled wins", reconciliation.Fields{Reconciled: true}, reconciliation.StatusValidated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconciliation.StatusOf(tt.fields))
		})
	}
}

func TestVariance(t *testing.T) {
	v := reconciliation.Variance(amount("250.00"), amount("240.50"))
	require.True(t, v.Valid)
	assert.Equal(t, "9.50", v.Decimal.StringFixed(2))

	assert.False(t, reconciliation.Variance(amount("250"), decimal.NullDecimal{}).Valid)
	assert.False(t, reconciliation.Variance(decimal.NullDecimal{}, amount("250")).Valid)

	zero := reconciliation.Variance(amount("250.00"), amount("250.00"))
	require.True(t, zero.Valid)
	assert.True(t, zero.Decimal.IsZero())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, reconciliation.Match, reconciliation.Classify(amount("0")))
	assert.Equal(t, reconciliation.Match, reconciliation.Classify(amount("0.009")))
	assert.Equal(t, reconciliation.Match, reconciliation.Classify(amount("-0.009")))
	assert.Equal(t, reconciliation.BLHigher, reconciliation.Classify(amount("0.01")))
	assert.Equal(t, reconciliation.InvoiceHigher, reconciliation.Classify(amount("-12.40")))
	assert.Equal(t, reconciliation.Unknown, reconciliation.Classify(decimal.NullDecimal{}))
}

func TestCanValidate(t *testing.T) {
	assert.ErrorIs(t, reconciliation.CanValidate(reconciliation.Fields{InvoiceReference: ref("FAC-1")}), reconciliation.ErrMissingInvoice)
	assert.ErrorIs(t, reconciliation.CanValidate(reconciliation.Fields{InvoiceAmount: amount("1")}), reconciliation.ErrMissingInvoice)
	assert.ErrorIs(t, reconciliation.CanValidate(reconciliation.Fields{Reconciled: true}), reconciliation.ErrAlreadyValidated)
	assert.NoError(t, reconciliation.CanValidate(reconciliation.Fields{InvoiceReference: ref("FAC-1"), InvoiceAmount: amount("1")}))
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		name     string
		delivery model.Delivery
		want     bool
	}{
		{"delivered with BL", model.Delivery{Status: model.DeliveryStatusDelivered, BLNumber: ref("BL-1")}, true},
		{"delivered without BL", model.Delivery{Status: model.DeliveryStatusDelivered}, false},
		{"delivered with blank BL", model.Delivery{Status: model.DeliveryStatusDelivered, BLNumber: ref("   ")}, false},
		{"planned with BL", model.Delivery{Status: model.DeliveryStatusPlanned, BLNumber: ref("BL-1")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconciliation.IsCandidate(&tt.delivery))
		})
	}
}

func TestBL100Walk(t *testing.T) {
	f := reconciliation.Fields{BLAmount: amount("250.00")}
	assert.Equal(t, reconciliation.StatusAwaiting, reconciliation.StatusOf(f))

	f.InvoiceReference = ref("FAC-1")
	assert.Equal(t, reconciliation.StatusPartialInvoice, reconciliation.StatusOf(f))

	f.InvoiceAmount = amount("250.00")
	assert.Equal(t, reconciliation.StatusReadyToValidate, reconciliation.StatusOf(f))

	require.NoError(t, reconciliation.CanValidate(f))
	f.Reconciled = true
	assert.Equal(t, reconciliation.StatusValidated, reconciliation.StatusOf(f))

	v := reconciliation.Variance(f.BLAmount, f.InvoiceAmount)
	assert.Equal(t, "0.00", v.Decimal.StringFixed(2))
	assert.Equal(t, reconciliation.Match, reconciliation.Classify(v))
}
