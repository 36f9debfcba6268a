// Package reconciliation derives the BL/invoice matching state of a delivery.
package reconciliation

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"logiflow/internal/model"
)

// Status labels
const (
	StatusAwaiting        = "awaiting"
	StatusPartialInvoice  = "partial_invoice"
	StatusReadyToValidate = "ready_to_validate"
	StatusValidated       = "validated"
)

// Variance classes
const (
	Match         = "match"
	BLHigher      = "bl_higher"
	InvoiceHigher = "invoice_higher"
	Unknown       = "unknown"
)

var (
	ErrMissingInvoice   = errors.New("invoice reference and amount are required")
	ErrAlreadyValidated = errors.New("delivery is already reconciled")
	ErrNotCandidate     = errors.New("only delivered deliveries with a BL number can be reconciled")
)

// Tolerance absorbs decimal rounding when comparing BL and invoice amounts
var Tolerance = decimal.RequireFromString("0.01")

// Fields are the inputs of the status computation
type Fields struct {
	InvoiceReference *string
	InvoiceAmount    decimal.NullDecimal
	BLAmount         decimal.NullDecimal
	Reconciled       bool
}

// FieldsOf extracts the reconciliation inputs of a delivery
func FieldsOf(d *model.Delivery) Fields {
	return Fields{
		InvoiceReference: d.InvoiceReference,
		InvoiceAmount:    d.InvoiceAmount,
		BLAmount:         d.BLAmount,
		Reconciled:       d.Reconciled,
	}
}

// HasReference reports whether ref holds a non-blank value
func HasReference(ref *string) bool {
	return ref != nil && strings.TrimSpace(*ref) != ""
}

// IsCandidate reports whether a delivery takes part in reconciliation:
// it must be delivered and carry a non-blank BL number.
func IsCandidate(d *model.Delivery) bool {
	return d.Status == model.DeliveryStatusDelivered && HasReference(d.BLNumber)
}

func StatusOf(f Fields) string {
	switch {
	case f.Reconciled:
		return StatusValidated
	case HasReference(f.InvoiceReference) && f.InvoiceAmount.Valid:
		return StatusReadyToValidate
	case HasReference(f.InvoiceReference):
		return StatusPartialInvoice
	default:
		return StatusAwaiting
	}
}

// ValidStatus reports whether s is one of the four status labels
func ValidStatus(s string) bool {
	switch s {
	case StatusAwaiting, StatusPartialInvoice, StatusReadyToValidate, StatusValidated:
		return true
	}
	return false
}

// Variance is bl - invoice. It is invalid, not zero, when either amount is absent.
func Variance(bl, invoice decimal.NullDecimal) decimal.NullDecimal {
	if !bl.Valid || !invoice.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(bl.Decimal.Sub(invoice.Decimal))
}

func Classify(v decimal.NullDecimal) string {
	switch {
	case !v.Valid:
		return Unknown
	case v.Decimal.Abs().LessThan(Tolerance):
		return Match
	case v.Decimal.IsPositive():
		return BLHigher
	default:
		return InvoiceHigher
	}
}

// CanValidate checks the preconditions of flipping reconciled to true
func CanValidate(f Fields) error {
	if f.Reconciled {
		return ErrAlreadyValidated
	}
	if !HasReference(f.InvoiceReference) || !f.InvoiceAmount.Valid {
		return ErrMissingInvoice
	}
	return nil
}
