package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Built-in role names. The relational user_roles row is authoritative; User.Role only mirrors it.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// User represents an account that can sign in and act on logistics records
type User struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name            string    `gorm:"type:varchar(255)" json:"name"`
	Role            string    `gorm:"type:varchar(50);not null;default:'employee'" json:"role"` // Denormalized copy of user_roles
	Password        string    `gorm:"type:varchar(255);not null" json:"-"`                      // bcrypt hash, never serialized
	PasswordChanged bool      `gorm:"default:false" json:"passwordChanged"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate assigns an opaque UUID identifier when none was provided
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserGroup grants a non-admin user visibility into one store
type UserGroup struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"userId"`
	GroupID   uint      `gorm:"primaryKey;index" json:"groupId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
