// Package policy is the role/action table behind every guarded engine
// operation. Keeping it a plain table makes authorization testable without
// the HTTP layer; route middleware is only a first coarse gate.
package policy

import "bloodlink-api-server/internal/models"

// Action names one guarded engine operation.
type Action string

const (
	ActionCreateRequest   Action = "request.create"
	ActionVolunteer       Action = "request.volunteer"
	ActionMatchStock      Action = "request.match"
	ActionFulfillStock    Action = "request.fulfill"
	ActionAssignVolunteer Action = "request.assign_volunteer"
	ActionCompleteRequest Action = "request.complete"
	ActionCancelRequest   Action = "request.cancel"
	ActionAttachDocument  Action = "request.attach"

	ActionAddBatch     Action = "inventory.add"
	ActionViewStock    Action = "inventory.view"
	ActionUpdateBatch  Action = "inventory.update_status"
	ActionViewHistory  Action = "inventory.history"
	ActionManageUsers  Action = "users.manage"
	ActionRecordIntake Action = "collection.record"
)

var anyAuthenticated = []string{
	models.RoleDonor, models.RoleHospital, models.RoleBloodBank,
	models.RoleCollector, models.RoleAdmin,
}

var table = map[Action][]string{
	ActionCreateRequest: anyAuthenticated,
	ActionVolunteer:     anyAuthenticated,

	ActionMatchStock:      {models.RoleAdmin},
	ActionFulfillStock:    {models.RoleAdmin},
	ActionAssignVolunteer: {models.RoleAdmin},

	// Ownership (requester-or-admin) is checked by the engine on top of
	// this table.
	ActionCompleteRequest: anyAuthenticated,
	ActionCancelRequest:   anyAuthenticated,
	ActionAttachDocument:  anyAuthenticated,

	ActionAddBatch:    {models.RoleHospital, models.RoleBloodBank, models.RoleAdmin},
	ActionViewStock:   {models.RoleHospital, models.RoleBloodBank, models.RoleAdmin},
	ActionUpdateBatch: {models.RoleHospital, models.RoleBloodBank, models.RoleAdmin},
	ActionViewHistory: {models.RoleHospital, models.RoleBloodBank, models.RoleAdmin},

	ActionManageUsers:  {models.RoleAdmin},
	ActionRecordIntake: {models.RoleCollector, models.RoleAdmin},
}

// Allows reports whether the role may perform the action.
func Allows(role string, action Action) bool {
	for _, r := range table[action] {
		if r == role {
			return true
		}
	}
	return false
}
