// Package notificationpolicy provides authorization policies for notifications.
//
// Authorization rules:
//   - The recipient can read, mark, and delete their own notifications
//   - Admins can read, mark, and delete any notification
//   - Only admins can list notifications across all recipients
package notificationpolicy

import (
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// CanAccess reports whether actor may mark n read or delete it.
func CanAccess(actor authz.Actor, n models.Notification) bool {
	return actor.IsAdmin() || actor.ID == n.UserID
}

// CanListAll reports whether actor may list every recipient's notifications.
func CanListAll(actor authz.Actor) bool {
	return actor.IsAdmin()
}
