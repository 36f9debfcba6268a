package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// OptionalString tells an absent JSON key apart from an explicit null or empty value
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); s != "" {
		o.Value = &s
	} else {
		o.Value = nil
	}
	return nil
}

// OptionalAmount tells an absent JSON key apart from null. Amounts may be sent as numbers or strings.
type OptionalAmount struct {
	Set   bool
	Value decimal.NullDecimal
}

func (o *OptionalAmount) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		o.Value = decimal.NullDecimal{}
		return nil
	}
	return o.Value.UnmarshalJSON(data)
}

// Str and Amt build set optionals, mostly for callers outside JSON binding
func Str(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

func Amt(s string) OptionalAmount {
	return OptionalAmount{Set: true, Value: decimal.NewNullDecimal(decimal.RequireFromString(s))}
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validationf("%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func formatAmount(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
