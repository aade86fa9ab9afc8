package policy

import (
	"testing"

	"bloodlink-api-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAdminOnlyActions(t *testing.T) {
	for _, action := range []Action{ActionMatchStock, ActionFulfillStock, ActionAssignVolunteer, ActionManageUsers} {
		assert.True(t, Allows(models.RoleAdmin, action), "%s", action)
		for _, role := range []string{models.RoleDonor, models.RoleHospital, models.RoleBloodBank, models.RoleCollector} {
			assert.False(t, Allows(role, action), "%s should not allow %s", action, role)
		}
	}
}

func TestAnyAuthenticatedActions(t *testing.T) {
	for _, role := range []string{models.RoleDonor, models.RoleHospital, models.RoleBloodBank, models.RoleCollector, models.RoleAdmin} {
		assert.True(t, Allows(role, ActionCreateRequest))
		assert.True(t, Allows(role, ActionVolunteer))
		assert.True(t, Allows(role, ActionCompleteRequest))
	}
}

func TestInventoryActions(t *testing.T) {
	for _, role := range []string{models.RoleHospital, models.RoleBloodBank, models.RoleAdmin} {
		assert.True(t, Allows(role, ActionAddBatch))
		assert.True(t, Allows(role, ActionUpdateBatch))
	}
	assert.False(t, Allows(models.RoleDonor, ActionAddBatch))
	assert.False(t, Allows(models.RoleCollector, ActionViewHistory))
}

func TestCollectionActions(t *testing.T) {
	assert.True(t, Allows(models.RoleCollector, ActionRecordIntake))
	assert.True(t, Allows(models.RoleAdmin, ActionRecordIntake))
	assert.False(t, Allows(models.RoleHospital, ActionRecordIntake))
}

func TestUnknownRoleDeniedEverywhere(t *testing.T) {
	assert.False(t, Allows("superuser", ActionCreateRequest))
	assert.False(t, Allows("", ActionViewStock))
}
