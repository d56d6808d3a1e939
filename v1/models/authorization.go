package models

import "gorm.io/gorm"

// Role is the effective authorization level of a caller
type Role string

const (
	RoleAdmin     Role = "admin"     // Catalog and user administration
	RoleCustomer  Role = "customer"  // Authenticated end user
	RoleAnonymous Role = "anonymous" // No identity attached to the request
)

// Identity carries the authority signals of an authenticated caller, as read
// from its user record. A nil *Identity means the caller is anonymous.
type Identity struct {
	UserID      uint     `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	IsStaff     bool     `json:"is_staff"`
	IsSuperuser bool     `json:"is_superuser"`
}

// ResolveRole derives the effective role of an identity. The explicit role
// column and the legacy staff/superuser flags are independent; either one
// grants administrator rights. Every permission check goes through here.
func ResolveRole(identity *Identity) Role {
	if identity == nil {
		return RoleAnonymous
	}
	if identity.Role == UserRoleAdmin || identity.IsStaff || identity.IsSuperuser {
		return RoleAdmin
	}
	return RoleCustomer
}

// ResolvedAdmins is the query form of ResolveRole: it narrows a users query to
// the rows ResolveRole grants administrator rights.
func ResolvedAdmins(db *gorm.DB) *gorm.DB {
	return db.Where("(role = ? OR is_staff = ? OR is_superuser = ?)", UserRoleAdmin, true, true)
}

// FlagOnlyAdmins narrows a users query to admins whose rights come only from
// the legacy flags, i.e. the rows whose role column needs repair.
func FlagOnlyAdmins(db *gorm.DB) *gorm.DB {
	return db.Scopes(ResolvedAdmins).Where("role <> ?", UserRoleAdmin)
}

// Permission represents specific permissions
type Permission string

const (
	// Catalog reads
	PermissionReadCatalog Permission = "catalog:read"

	// Catalog mutations
	PermissionWriteProperty     Permission = "property:write"
	PermissionWritePropertyType Permission = "property_type:write"
	PermissionWriteImage        Permission = "image:write"
	PermissionWriteAgent        Permission = "agent:write"
	PermissionReadInactive      Permission = "property:read:inactive"

	// Contact permissions
	PermissionCreateContact  Permission = "contact:create"
	PermissionManageContacts Permission = "contact:manage"

	// Customer records (saved properties, inquiries, visits, alerts)
	PermissionCustomerRecords Permission = "customer:records"
	PermissionManageRecords   Permission = "customer:records:manage"

	// Administration
	PermissionManageUsers   Permission = "user:manage"
	PermissionReadAnalytics Permission = "analytics:read"
)

// RolePermissions defines what permissions each role has
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionReadCatalog, PermissionReadInactive,
		PermissionWriteProperty, PermissionWritePropertyType, PermissionWriteImage, PermissionWriteAgent,
		PermissionCreateContact, PermissionManageContacts,
		PermissionCustomerRecords, PermissionManageRecords,
		PermissionManageUsers, PermissionReadAnalytics,
	},
	RoleCustomer: {
		PermissionReadCatalog, PermissionCreateContact, PermissionCustomerRecords,
	},
	RoleAnonymous: {
		PermissionReadCatalog, PermissionCreateContact,
	},
}

// HasPermission checks if a role has a specific permission
func (r Role) HasPermission(permission Permission) bool {
	permissions, exists := RolePermissions[r]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	_, exists := RolePermissions[r]
	return exists
}

// EndpointPermission defines the required permission for an endpoint.
// Path may end in "/*" to match any sub-path. When AuthenticationRequired is
// set, anonymous callers get 401 instead of 403.
type EndpointPermission struct {
	Method                 string
	Path                   string
	Permission             Permission
	AuthenticationRequired bool
}

// EndpointPermissions gates whole route families before they reach a handler.
// Services repeat the check for every operation.
var EndpointPermissions = []EndpointPermission{
	{"*", "/api/v1/admin/*", PermissionManageUsers, false},
	{"*", "/api/v1/customer/*", PermissionCustomerRecords, true},
	{"GET", "/api/v1/me", PermissionCustomerRecords, true},
	{"POST", "/api/v1/property-types", PermissionWritePropertyType, false},
	{"PUT", "/api/v1/property-types/*", PermissionWritePropertyType, false},
	{"DELETE", "/api/v1/property-types/*", PermissionWritePropertyType, false},
	{"POST", "/api/v1/agents", PermissionWriteAgent, false},
	{"PUT", "/api/v1/agents/*", PermissionWriteAgent, false},
	{"DELETE", "/api/v1/agents/*", PermissionWriteAgent, false},
	// Property and image writes are gated here so non-admins are refused
	// before the body is decoded
	{"POST", "/api/v1/properties", PermissionWriteProperty, false},
	{"PUT", "/api/v1/properties/*", PermissionWriteProperty, false},
	{"PATCH", "/api/v1/properties/*", PermissionWriteProperty, false},
	{"DELETE", "/api/v1/properties/*", PermissionWriteProperty, false},
	{"POST", "/api/v1/properties/*", PermissionWriteImage, false},
	{"POST", "/api/v1/images/*", PermissionWriteImage, false},
	{"PUT", "/api/v1/images/*", PermissionWriteImage, false},
	{"PATCH", "/api/v1/images/*", PermissionWriteImage, false},
	{"DELETE", "/api/v1/images/*", PermissionWriteImage, false},
}
