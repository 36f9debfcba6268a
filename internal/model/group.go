package model

import "time"

// DefaultGroupColor is used when a store is created without an explicit color
const DefaultGroupColor = "#1976D2"

// Group is a physical store/location. Logistics records always belong to exactly one group.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Color     string    `gorm:"type:varchar(7);not null;default:'#1976D2'" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
