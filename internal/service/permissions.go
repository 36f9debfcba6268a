package service

import "logiflow/internal/model"

// Permission codes checked by routes and services
const (
	PermDashboardRead          = "dashboard.read"
	PermGroupsRead             = "groups.read"
	PermGroupsWrite            = "groups.write"
	PermSuppliersRead          = "suppliers.read"
	PermSuppliersWrite         = "suppliers.write"
	PermOrdersRead             = "orders.read"
	PermOrdersWrite            = "orders.write"
	PermOrdersDelete           = "orders.delete"
	PermDeliveriesRead         = "deliveries.read"
	PermDeliveriesWrite        = "deliveries.write"
	PermDeliveriesDelete       = "deliveries.delete"
	PermDeliveriesValidate     = "deliveries.validate"
	PermReconciliationRead     = "reconciliation.read"
	PermReconciliationWrite    = "reconciliation.write"
	PermReconciliationValidate = "reconciliation.validate"
	PermDlcRead                = "dlc.read"
	PermDlcWrite               = "dlc.write"
	PermUsersManage            = "users.manage"
	PermRolesManage            = "roles.manage"
	PermAuditRead              = "audit.read"
)

// DefaultPermissions is the catalog seeded into the permissions table
var DefaultPermissions = []model.Permission{
	{Name: PermDashboardRead, DisplayName: "View dashboard", Category: "dashboard", Action: "read"},
	{Name: PermGroupsRead, DisplayName: "View stores", Category: "groups", Action: "read"},
	{Name: PermGroupsWrite, DisplayName: "Manage stores", Category: "groups", Action: "write"},
	{Name: PermSuppliersRead, DisplayName: "View suppliers", Category: "suppliers", Action: "read"},
	{Name: PermSuppliersWrite, DisplayName: "Manage suppliers", Category: "suppliers", Action: "write"},
	{Name: PermOrdersRead, DisplayName: "View orders", Category: "orders", Action: "read"},
	{Name: PermOrdersWrite, DisplayName: "Create and edit orders", Category: "orders", Action: "write"},
	{Name: PermOrdersDelete, DisplayName: "Delete orders", Category: "orders", Action: "delete"},
	{Name: PermDeliveriesRead, DisplayName: "View deliveries", Category: "deliveries", Action: "read"},
	{Name: PermDeliveriesWrite, DisplayName: "Create and edit deliveries", Category: "deliveries", Action: "write"},
	{Name: PermDeliveriesDelete, DisplayName: "Delete deliveries", Category: "deliveries", Action: "delete"},
	{Name: PermDeliveriesValidate, DisplayName: "Validate deliveries", Category: "deliveries", Action: "validate"},
	{Name: PermReconciliationRead, DisplayName: "View reconciliation", Category: "reconciliation", Action: "read"},
	{Name: PermReconciliationWrite, DisplayName: "Enter invoices", Category: "reconciliation", Action: "write"},
	{Name: PermReconciliationValidate, DisplayName: "Validate reconciliation", Category: "reconciliation", Action: "validate"},
	{Name: PermDlcRead, DisplayName: "View DLC products", Category: "dlc", Action: "read"},
	{Name: PermDlcWrite, DisplayName: "Manage DLC products", Category: "dlc", Action: "write"},
	{Name: PermUsersManage, DisplayName: "Manage users", Category: "administration", Action: "manage"},
	{Name: PermRolesManage, DisplayName: "Manage roles", Category: "administration", Action: "manage"},
	{Name: PermAuditRead, DisplayName: "View audit log", Category: "administration", Action: "read"},
}

// SystemRole describes a built-in role and the permission codes it is seeded with
type SystemRole struct {
	Name        string
	DisplayName string
	Description string
	Color       string
	Permissions []string
}

func allPermissionCodes(except ...string) []string {
	skip := make(map[string]bool, len(except))
	for _, e := range except {
		skip[e] = true
	}
	codes := make([]string, 0, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		if !skip[p.Name] {
			codes = append(codes, p.Name)
		}
	}
	return codes
}

var SystemRoles = []SystemRole{
	{
		Name:        model.RoleAdmin,
		DisplayName: "Administrator",
		Description: "Full access to every store and to administration",
		Color:       "#D32F2F",
		Permissions: allPermissionCodes(),
	},
	{
		Name:        model.RoleManager,
		DisplayName: "Manager",
		Description: "Manages the logistics of assigned stores",
		Color:       "#1976D2",
		Permissions: allPermissionCodes(PermUsersManage, PermRolesManage),
	},
	{
		Name:        model.RoleEmployee,
		DisplayName: "Employee",
		Description: "Handles orders, deliveries and DLC of assigned stores",
		Color:       "#388E3C",
		Permissions: []string{
			PermDashboardRead,
			PermGroupsRead,
			PermSuppliersRead,
			PermOrdersRead, PermOrdersWrite, PermOrdersDelete,
			PermDeliveriesRead, PermDeliveriesWrite, PermDeliveriesValidate,
			PermReconciliationRead,
			PermDlcRead, PermDlcWrite,
		},
	},
}
