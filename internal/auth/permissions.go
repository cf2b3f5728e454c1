package auth

import "slices"

// Permission names one capability a route or handler may demand.
type Permission string

// Capabilities checked by the API layer.
const (
	PermDoorRead       Permission = "door:read"
	PermDoorCommand    Permission = "door:command"
	PermDoorInitialize Permission = "door:initialize"
	PermHistoryRead    Permission = "history:read"
	PermMetricsRead    Permission = "metrics:read"
	PermSystemAdmin    Permission = "system:admin"
)

// rolePermissions is the whole authorisation model: a role grants
// exactly the permissions listed here and nothing else.
var rolePermissions = map[Role][]Permission{
	RoleOperator: {
		PermDoorRead,
		PermDoorCommand,
		PermHistoryRead,
		PermMetricsRead,
	},
	RoleAdmin: {
		PermDoorRead,
		PermDoorCommand,
		PermDoorInitialize,
		PermHistoryRead,
		PermMetricsRead,
		PermSystemAdmin,
	},
}

// HasPermission reports whether role is granted perm. Unknown roles
// hold no permissions.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns a copy of the grants for role, nil when
// the role is unknown.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
