package rbac

// Role constants
const (
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

// Permission constants
const (
	PermViewAnalytics     = "view_analytics"
	PermTransferRevenue   = "transfer_revenue"
	PermRequestWithdrawal = "request_withdrawal"
	PermManageCampaigns   = "manage_campaigns"
	PermProcessWithdrawal = "process_withdrawal"
	PermViewAudit         = "view_audit"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleCreator: {
		PermViewAnalytics, PermTransferRevenue, PermRequestWithdrawal,
	},
	RoleAdmin: {
		PermViewAnalytics, PermTransferRevenue, PermRequestWithdrawal,
		PermManageCampaigns, PermProcessWithdrawal, PermViewAudit,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsFinancialOperation checks if permission moves money.
func IsFinancialOperation(permission string) bool {
	return permission == PermTransferRevenue ||
		permission == PermRequestWithdrawal ||
		permission == PermProcessWithdrawal
}
