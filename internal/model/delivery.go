package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery status values
const (
	DeliveryStatusPlanned   = "planned"
	DeliveryStatusDelivered = "delivered"
)

// Delivery is an incoming shipment for one store, optionally linked to an Order.
// The BL/invoice fields feed the reconciliation workflow once the delivery is delivered.
type Delivery struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	OrderID          *uint               `gorm:"index" json:"orderId"`
	Order            *Order              `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	SupplierID       uint                `gorm:"not null;index" json:"supplierId"`
	Supplier         *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	GroupID          uint                `gorm:"not null;index" json:"groupId"`
	Group            *Group              `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	PlannedDate      time.Time           `gorm:"type:date;not null;index" json:"plannedDate"`
	DeliveredDate    *time.Time          `gorm:"type:date" json:"deliveredDate"`
	Quantity         int                 `gorm:"not null" json:"quantity"`
	Unit             string              `gorm:"type:varchar(20);not null" json:"unit"`
	Status           string              `gorm:"type:varchar(20);not null;default:'planned';index" json:"status"`
	Comments         string              `gorm:"type:text" json:"comments"`
	BLNumber         *string             `gorm:"column:bl_number;type:varchar(100);index" json:"blNumber"`
	BLAmount         decimal.NullDecimal `gorm:"column:bl_amount;type:decimal(12,2)" json:"blAmount"`
	InvoiceReference *string             `gorm:"type:varchar(100)" json:"invoiceReference"`
	InvoiceAmount    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"invoiceAmount"`
	Reconciled       bool                `gorm:"not null;default:false" json:"reconciled"`
	CreatedBy        string              `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

func (d *Delivery) OwnerID() string    { return d.CreatedBy }
func (d *Delivery) OwnerGroupID() uint { return d.GroupID }

// ValidDeliveryStatus reports whether s is a known delivery status
func ValidDeliveryStatus(s string) bool {
	return s == DeliveryStatusPlanned || s == DeliveryStatusDelivered
}

// DeliveryStatusAdvances reports whether moving from -> to never leaves the terminal delivered state
func DeliveryStatusAdvances(from, to string) bool {
	if !ValidDeliveryStatus(from) || !ValidDeliveryStatus(to) {
		return false
	}
	return from == to || from == DeliveryStatusPlanned
}
