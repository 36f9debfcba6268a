package model

import "time"

// Order status values, in lifecycle order
const (
	OrderStatusPending   = "pending"
	OrderStatusPlanned   = "planned"
	OrderStatusDelivered = "delivered"
)

// Quantity units shared by orders, deliveries and DLC products
const (
	UnitPalettes = "palettes"
	UnitColis    = "colis"
)

var orderStatusRank = map[string]int{
	OrderStatusPending:   0,
	OrderStatusPlanned:   1,
	OrderStatusDelivered: 2,
}

// Order is a purchase order placed with a supplier for one store
type Order struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SupplierID  uint      `gorm:"not null;index" json:"supplierId"`
	Supplier    *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	GroupID     uint      `gorm:"not null;index" json:"groupId"`
	Group       *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	PlannedDate time.Time `gorm:"type:date;not null;index" json:"plannedDate"`
	Quantity    *int      `json:"quantity"` // Nullable until a delivery fills it
	Unit        string    `gorm:"type:varchar(20);not null" json:"unit"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Comments    string    `gorm:"type:text" json:"comments"`
	CreatedBy   string    `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (o *Order) OwnerID() string    { return o.CreatedBy }
func (o *Order) OwnerGroupID() uint { return o.GroupID }

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	_, ok := orderStatusRank[s]
	return ok
}

// OrderStatusAdvances reports whether moving from -> to keeps the lifecycle monotonic.
// Staying on the same status counts as a valid (no-op) move.
func OrderStatusAdvances(from, to string) bool {
	f, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	t, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return t >= f
}

// ValidUnit reports whether u is a supported quantity unit
func ValidUnit(u string) bool {
	return u == UnitPalettes || u == UnitColis
}
