package model

import (
	"time"
)

const (
	ActionCreateOrder       = "CREATE_ORDER"
	ActionUpdateOrder       = "UPDATE_ORDER"
	ActionDeleteOrder       = "DELETE_ORDER"
	ActionCreateDelivery    = "CREATE_DELIVERY"
	ActionUpdateDelivery    = "UPDATE_DELIVERY"
	ActionDeleteDelivery    = "DELETE_DELIVERY"
	ActionValidateDelivery  = "VALIDATE_DELIVERY"
	ActionUpdateInvoice     = "UPDATE_INVOICE"
	ActionValidateReconcile = "VALIDATE_RECONCILIATION"
	ActionCreateDlc         = "CREATE_DLC_PRODUCT"
	ActionUpdateDlc         = "UPDATE_DLC_PRODUCT"
	ActionDeleteDlc         = "DELETE_DLC_PRODUCT"
	ActionValidateDlc       = "VALIDATE_DLC_PRODUCT"
	ActionCreateGroup       = "CREATE_GROUP"
	ActionUpdateGroup       = "UPDATE_GROUP"
	ActionDeleteGroup       = "DELETE_GROUP"
	ActionUpdateRolePerms   = "UPDATE_ROLE_PERMISSIONS"
	ActionAssignUserRole    = "ASSIGN_USER_ROLE"
	ActionReplaceUserGroups = "REPLACE_USER_GROUPS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *string   `gorm:"type:varchar(36);index" json:"userId"` // Nil for seed/CLI actions
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(30);index" json:"entityType"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entityId"`
	EntityName string    `gorm:"type:varchar(255)" json:"entityName,omitempty"`
	Details    string    `gorm:"type:text" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}
