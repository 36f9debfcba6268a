package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusAdvances(t *testing.T) {
	assert.True(t, OrderStatusAdvances(OrderStatusPending, OrderStatusPlanned))
	assert.True(t, OrderStatusAdvances(OrderStatusPending, OrderStatusDelivered))
	assert.True(t, OrderStatusAdvances(OrderStatusPlanned, OrderStatusPlanned))
	assert.False(t, OrderStatusAdvances(OrderStatusDelivered, OrderStatusPlanned))
	assert.False(t, OrderStatusAdvances(OrderStatusPlanned, OrderStatusPending))
	assert.False(t, OrderStatusAdvances(OrderStatusPending, "shipped"))
}

func TestDeliveryStatusAdvances(t *testing.T) {
	assert.True(t, DeliveryStatusAdvances(DeliveryStatusPlanned, DeliveryStatusDelivered))
	assert.True(t, DeliveryStatusAdvances(DeliveryStatusDelivered, DeliveryStatusDelivered))
	assert.False(t, DeliveryStatusAdvances(DeliveryStatusDelivered, DeliveryStatusPlanned))
	assert.False(t, DeliveryStatusAdvances(DeliveryStatusPlanned, "lost"))
}

func TestDlcEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		product DlcProduct
		want    string
	}{
		{"validated stays validated", DlcProduct{Status: DlcStatusValidated, DlcDate: day(2020, 1, 1)}, DlcStatusValidated},
		{"yesterday is expired", DlcProduct{Status: DlcStatusActive, DlcDate: day(2026, 3, 9)}, DlcStatusExpired},
		{"today expires soon", DlcProduct{Status: DlcStatusActive, DlcDate: day(2026, 3, 10)}, DlcStatusExpiresSoon},
		{"last warning day", DlcProduct{Status: DlcStatusActive, DlcDate: day(2026, 3, 25)}, DlcStatusExpiresSoon},
		{"beyond warning window", DlcProduct{Status: DlcStatusActive, DlcDate: day(2026, 3, 26)}, DlcStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.EffectiveStatus(now, 15))
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Second)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Hour)}).Expired(now))
}
