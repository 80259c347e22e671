package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionReportsRead allows viewing the dashboard, charts, search and response details.
	PermissionReportsRead Permission = "reports:read"

	// PermissionReportsExport allows downloading CSV and Excel exports.
	PermissionReportsExport Permission = "reports:export"

	// PermissionQuestionsRead allows viewing the question catalog.
	PermissionQuestionsRead Permission = "questions:read"

	// PermissionQuestionsWrite allows creating, editing and deleting questions and categories.
	PermissionQuestionsWrite Permission = "questions:write"

	// PermissionResponsesDelete allows deleting respondents and responses.
	PermissionResponsesDelete Permission = "responses:delete"

	// PermissionDataPurge allows wiping all survey data.
	PermissionDataPurge Permission = "data:purge"
)

// Role is a fixed admin role.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleViewer     Role = "VIEWER"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionReportsRead,
	PermissionReportsExport,
	PermissionQuestionsRead,
	PermissionQuestionsWrite,
	PermissionResponsesDelete,
	PermissionDataPurge,
}

var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin: AllPermissions,
	RoleViewer: {
		PermissionReportsRead,
		PermissionReportsExport,
		PermissionQuestionsRead,
	},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permission codes granted to the role.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
