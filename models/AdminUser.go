package models

import (
	"encoding/json"
	"time"

	"golang.org/x/exp/slices"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Admin roles.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleModerator  = "moderator"
	RoleSupport    = "support"
)

// AdminStatuses.
const (
	AdminActive    = "active"
	AdminInactive  = "inactive"
	AdminSuspended = "suspended"
)

// Permission is a named capability granted to an admin role. The set is
// closed: route guards only ever reference these constants.
type Permission string

const (
	PermUsersRead       Permission = "users:read"
	PermUsersWrite      Permission = "users:write"
	PermUsersDelete     Permission = "users:delete"
	PermPropsRead       Permission = "properties:read"
	PermPropsWrite      Permission = "properties:write"
	PermPropsDelete     Permission = "properties:delete"
	PermPropsVerify     Permission = "properties:verify"
	PermBookingsRead    Permission = "bookings:read"
	PermBookingsWrite   Permission = "bookings:write"
	PermBookingsCancel  Permission = "bookings:cancel"
	PermPaymentsRead    Permission = "payments:read"
	PermPaymentsRefund  Permission = "payments:refund"
	PermAnalyticsRead   Permission = "analytics:read"
	PermAnalyticsExport Permission = "analytics:export"
	PermAdminsRead      Permission = "admin_users:read"
	PermAdminsWrite     Permission = "admin_users:write"
	PermAdminsDelete    Permission = "admin_users:delete"
	PermTicketsRead     Permission = "support_tickets:read"
	PermTicketsWrite    Permission = "support_tickets:write"
	PermTicketsClose    Permission = "support_tickets:close"
	PermSettingsRead    Permission = "system_settings:read"
	PermSettingsWrite   Permission = "system_settings:write"
)

// rolePermissions is the grant table. A role's set is computed here once at
// assignment time and persisted on the admin row, not re-derived per check.
var rolePermissions = map[string][]Permission{
	RoleSuperAdmin: {
		PermUsersRead, PermUsersWrite, PermUsersDelete,
		PermPropsRead, PermPropsWrite, PermPropsDelete, PermPropsVerify,
		PermBookingsRead, PermBookingsWrite, PermBookingsCancel,
		PermPaymentsRead, PermPaymentsRefund,
		PermAnalyticsRead, PermAnalyticsExport,
		PermAdminsRead, PermAdminsWrite, PermAdminsDelete,
		PermTicketsRead, PermTicketsWrite, PermTicketsClose,
		PermSettingsRead, PermSettingsWrite,
	},
	RoleAdmin: {
		PermUsersRead, PermUsersWrite,
		PermPropsRead, PermPropsWrite, PermPropsVerify,
		PermBookingsRead, PermBookingsWrite, PermBookingsCancel,
		PermPaymentsRead, PermPaymentsRefund,
		PermAnalyticsRead, PermAnalyticsExport,
		PermAdminsRead,
		PermTicketsRead, PermTicketsWrite, PermTicketsClose,
	},
	RoleModerator: {
		PermUsersRead,
		PermPropsRead, PermPropsWrite, PermPropsVerify,
		PermBookingsRead,
		PermAnalyticsRead,
		PermTicketsRead, PermTicketsWrite,
	},
	RoleSupport: {
		PermUsersRead,
		PermPropsRead,
		PermBookingsRead,
		PermTicketsRead, PermTicketsWrite,
	},
}

// PermissionsForRole returns the closed grant set for a role.
func PermissionsForRole(role string) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// AdminRoles lists the roles recognised for admin accounts.
var AdminRoles = []string{RoleSuperAdmin, RoleAdmin, RoleModerator, RoleSupport}

type AdminUser struct {
	gorm.Model
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" gorm:"uniqueIndex"`
	Password  string `json:"-"`
	Phone     string `json:"phone"`

	Role       string `json:"role" gorm:"type:varchar(20);default:support;index"`
	Department string `json:"department" gorm:"type:varchar(30)"`
	Status     string `json:"status" gorm:"type:varchar(20);default:active;index"`

	// Grant set serialized at role-assignment time via SetRole.
	Permissions datatypes.JSON `json:"permissions"`

	TwoFactorEnabled bool   `json:"twoFactorEnabled" gorm:"default:false"`
	TwoFactorSecret  string `json:"-"`

	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP   string     `json:"-"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
}

// PublicAdminUser is the admin account view returned by the API. No
// credential or 2FA secret fields exist on it.
type PublicAdminUser struct {
	ID          uint         `json:"id"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	Role        string       `json:"role"`
	Department  string       `json:"department"`
	Status      string       `json:"status"`
	Permissions []Permission `json:"permissions"`
	LastLoginAt *time.Time   `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func (a *AdminUser) Public() PublicAdminUser {
	return PublicAdminUser{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Phone:       a.Phone,
		Role:        a.Role,
		Department:  a.Department,
		Status:      a.Status,
		Permissions: a.PermissionList(),
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

// SetRole assigns the role and recomputes the persisted grant set.
func (a *AdminUser) SetRole(role string) {
	a.Role = role
	raw, _ := json.Marshal(PermissionsForRole(role))
	a.Permissions = raw
}

// PermissionList decodes the persisted grant set.
func (a *AdminUser) PermissionList() []Permission {
	var perms []Permission
	if a.Permissions != nil {
		_ = json.Unmarshal(a.Permissions, &perms)
	}
	if perms == nil {
		perms = []Permission{}
	}
	return perms
}

// HasPermission is a set-membership check. Super admins hold every
// permission implicitly.
func (a *AdminUser) HasPermission(p Permission) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return slices.Contains(a.PermissionList(), p)
}

// IsLocked mirrors User.IsLocked for admin accounts.
func (a *AdminUser) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

func (a *AdminUser) ResetLoginAttempts() {
	a.LoginAttempts = 0
	a.LockUntil = nil
}
