package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role, perm string
		expected   bool
	}{
		{RoleCreator, PermViewAnalytics, true},
		{RoleCreator, PermTransferRevenue, true},
		{RoleCreator, PermRequestWithdrawal, true},
		{RoleCreator, PermManageCampaigns, false},
		{RoleCreator, PermProcessWithdrawal, false},
		{RoleAdmin, PermManageCampaigns, true},
		{RoleAdmin, PermProcessWithdrawal, true},
		{RoleAdmin, PermViewAudit, true},
		{RoleCreator, PermViewAudit, false},
		{"viewer", PermViewAnalytics, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.perm, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.expected)
			}
		})
	}
}

func TestIsFinancialOperation(t *testing.T) {
	if IsFinancialOperation(PermViewAnalytics) {
		t.Error("viewing analytics is not financial")
	}
	if !IsFinancialOperation(PermProcessWithdrawal) {
		t.Error("processing withdrawals is financial")
	}
}
