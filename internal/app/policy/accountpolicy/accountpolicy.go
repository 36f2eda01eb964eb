// Package accountpolicy provides authorization policies for account administration.
//
// Authorization rules:
//   - Only admins can soft-delete, restore, or change the role/active flag of an account
//   - Nobody can soft-delete their own account
//   - An admin cannot demote or deactivate themselves
//   - Any signed-in user can view an account profile
package accountpolicy

import (
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// CanSoftDelete reports whether actor may mark target for deletion.
func CanSoftDelete(actor authz.Actor, target models.User) bool {
	return actor.IsAdmin() && actor.ID != target.ID
}

// CanRestore reports whether actor may restore a soft-deleted target.
func CanRestore(actor authz.Actor, target models.User) bool {
	return actor.IsAdmin()
}

// CanUpdateStatus reports whether actor may set target's role and active flag
// to the requested values.
func CanUpdateStatus(actor authz.Actor, target models.User, role string, isActive bool) bool {
	if !actor.IsAdmin() {
		return false
	}
	if actor.ID == target.ID {
		// Self-service is limited to no-ops so an admin cannot lock themselves out.
		return role == target.Role && isActive == target.IsActive
	}
	return true
}

// CanList reports whether actor may list every account.
func CanList(actor authz.Actor) bool {
	return actor.IsAdmin()
}
