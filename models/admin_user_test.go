package models

import "testing"

func TestSetRoleComputesGrants(t *testing.T) {
	a := AdminUser{}
	a.SetRole(RoleSupport)

	perms := a.PermissionList()
	if len(perms) != len(rolePermissions[RoleSupport]) {
		t.Fatalf("grants = %d, want %d", len(perms), len(rolePermissions[RoleSupport]))
	}
	if !a.HasPermission(PermTicketsWrite) {
		t.Fatal("support should hold support_tickets:write")
	}
	if a.HasPermission(PermPaymentsRefund) {
		t.Fatal("support must not hold payments:refund")
	}

	// A role change replaces the grant set wholesale.
	a.SetRole(RoleModerator)
	if !a.HasPermission(PermPropsVerify) {
		t.Fatal("moderator should hold properties:verify")
	}
	if a.HasPermission(PermUsersWrite) {
		t.Fatal("moderator must not hold users:write")
	}
}

func TestSuperAdminHoldsEverything(t *testing.T) {
	a := AdminUser{}
	a.SetRole(RoleSuperAdmin)

	for role, perms := range rolePermissions {
		for _, p := range perms {
			if !a.HasPermission(p) {
				t.Errorf("super_admin missing %s (granted to %s)", p, role)
			}
		}
	}
}

func TestHasPermissionOnEmptyGrantSet(t *testing.T) {
	a := AdminUser{Role: RoleSupport}
	if a.HasPermission(PermUsersRead) {
		t.Fatal("no grants persisted, nothing should pass")
	}
	if got := a.PermissionList(); len(got) != 0 {
		t.Fatalf("grants = %v, want empty", got)
	}
}

func TestPublicAdminUserView(t *testing.T) {
	a := AdminUser{
		FirstName:       "Grace",
		Email:           "grace@example.com",
		Password:        "$2a$12$hash",
		TwoFactorSecret: "otpauth://secret",
		Department:      "trust-and-safety",
	}
	a.SetRole(RoleAdmin)

	pub := a.Public()
	if pub.Email != a.Email || pub.Role != RoleAdmin {
		t.Fatal("public view lost account fields")
	}
	if len(pub.Permissions) != len(rolePermissions[RoleAdmin]) {
		t.Fatalf("permissions = %d, want %d", len(pub.Permissions), len(rolePermissions[RoleAdmin]))
	}
}
