package model

import "time"

// Supplier is referenced by orders, deliveries and DLC products
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Contact   string    `gorm:"type:varchar(255)" json:"contact"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	HasDlc    bool      `gorm:"default:false" json:"hasDlc"` // Supplier ships perishable goods tracked in DLC
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
