package model

import (
	"time"
)

// Role represents a user role with associated permissions
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	DisplayName string       `gorm:"type:varchar(100);not null" json:"displayName"`
	Description string       `gorm:"type:text" json:"description"`
	Color       string       `gorm:"type:varchar(7);not null;default:'#757575'" json:"color"`
	IsSystem    bool         `gorm:"default:false" json:"isSystem"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // e.g. "deliveries.validate"
	DisplayName string `gorm:"type:varchar(255);not null" json:"displayName"`
	Category    string `gorm:"type:varchar(50);not null;index" json:"category"` // "orders", "deliveries"...
	Action      string `gorm:"type:varchar(30);not null" json:"action"`         // read, write, delete, validate, manage
}

// RolePermission is the join row between roles and permissions
type RolePermission struct {
	RoleID       uint `gorm:"primaryKey"`
	PermissionID uint `gorm:"primaryKey"`
}

// UserRole assigns the single effective role of a user
type UserRole struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"userId"`
	RoleID    uint      `gorm:"not null;index" json:"roleId"`
	Role      *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
