package authz

import "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"

// Resource names an access-controlled part of the API surface.
type Resource string

// Action names an operation on a resource.
type Action string

const (
	ResourceUsers        Resource = "users"
	ResourceDepartments  Resource = "departments"
	ResourceJournals     Resource = "journals"
	ResourcePublications Resource = "publications"
	ResourceStatistics   Resource = "statistics"
)

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
	ActionExport Action = "export"
)

type permission struct {
	resource Resource
	action   Action
}

// matrix is the closed permission table. ADMIN is handled as a wildcard in
// Allowed; only the two restricted roles are enumerated here. Department
// scoping for DEPARTMENT_ADMIN is enforced by the services, not the matrix.
var matrix = map[models.UserRole]map[permission]struct{}{
	models.RoleDepartmentAdmin: permSet(
		permission{ResourcePublications, ActionRead},
		permission{ResourcePublications, ActionCreate},
		permission{ResourcePublications, ActionUpdate},
		permission{ResourcePublications, ActionDelete},
		permission{ResourcePublications, ActionImport},
		permission{ResourceJournals, ActionRead},
		permission{ResourceDepartments, ActionRead},
		permission{ResourceStatistics, ActionRead},
		permission{ResourceStatistics, ActionExport},
	),
	models.RoleUser: permSet(
		permission{ResourcePublications, ActionRead},
		permission{ResourcePublications, ActionCreate},
		permission{ResourceJournals, ActionRead},
		permission{ResourceDepartments, ActionRead},
		permission{ResourceStatistics, ActionRead},
	),
}

func permSet(perms ...permission) map[permission]struct{} {
	set := make(map[permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Allowed reports whether the role may perform the action on the resource.
// Unknown roles are always denied.
func Allowed(role models.UserRole, resource Resource, action Action) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleDepartmentAdmin, models.RoleUser:
		_, ok := matrix[role][permission{resource, action}]
		return ok
	default:
		return false
	}
}
