// Package taskpolicy provides authorization policies for tasks.
//
// Authorization rules:
//   - Admins can create, edit, delete, and view every task
//   - Assignees can view a task and update its status and checklist
//   - Everyone else is refused
package taskpolicy

import (
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// CanManage reports whether actor may create, edit, delete, or change the
// attachments of tasks.
func CanManage(actor authz.Actor) bool {
	return actor.IsAdmin()
}

// CanView reports whether actor may read t.
func CanView(actor authz.Actor, t models.Task) bool {
	return actor.IsAdmin() || t.IsAssigned(actor.ID)
}

// CanUpdateProgress reports whether actor may change t's status or checklist.
func CanUpdateProgress(actor authz.Actor, t models.Task) bool {
	return actor.IsAdmin() || t.IsAssigned(actor.ID)
}
