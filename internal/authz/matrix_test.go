package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
)

func TestAdminAllowsEverything(t *testing.T) {
	resources := []Resource{ResourceUsers, ResourceDepartments, ResourceJournals, ResourcePublications, ResourceStatistics}
	actions := []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionImport, ActionExport}
	for _, res := range resources {
		for _, act := range actions {
			assert.True(t, Allowed(models.RoleAdmin, res, act), "admin denied %s:%s", res, act)
		}
	}
}

func TestDepartmentAdminPermissions(t *testing.T) {
	role := models.RoleDepartmentAdmin

	assert.True(t, Allowed(role, ResourcePublications, ActionCreate))
	assert.True(t, Allowed(role, ResourcePublications, ActionImport))
	assert.True(t, Allowed(role, ResourcePublications, ActionDelete))
	assert.True(t, Allowed(role, ResourceStatistics, ActionExport))
	assert.True(t, Allowed(role, ResourceJournals, ActionRead))

	assert.False(t, Allowed(role, ResourceJournals, ActionImport))
	assert.False(t, Allowed(role, ResourceJournals, ActionCreate))
	assert.False(t, Allowed(role, ResourceUsers, ActionRead))
	assert.False(t, Allowed(role, ResourceDepartments, ActionCreate))
}

func TestUserPermissions(t *testing.T) {
	role := models.RoleUser

	assert.True(t, Allowed(role, ResourcePublications, ActionRead))
	assert.True(t, Allowed(role, ResourcePublications, ActionCreate))
	assert.True(t, Allowed(role, ResourceStatistics, ActionRead))

	assert.False(t, Allowed(role, ResourceUsers, ActionRead))
	assert.False(t, Allowed(role, ResourcePublications, ActionUpdate))
	assert.False(t, Allowed(role, ResourcePublications, ActionImport))
	assert.False(t, Allowed(role, ResourceStatistics, ActionExport))
}

func TestUnknownRoleDenied(t *testing.T) {
	assert.False(t, Allowed(models.UserRole("GUEST"), ResourcePublications, ActionRead))
	assert.False(t, Allowed(models.UserRole(""), ResourceJournals, ActionRead))
}

func TestEveryRoleCovered(t *testing.T) {
	for _, role := range models.Roles {
		if role == models.RoleAdmin {
			continue
		}
		_, ok := matrix[role]
		assert.True(t, ok, "role %s missing from matrix", role)
	}
}
