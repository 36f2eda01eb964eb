// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
)

// listItem is one audit event with actor and target names resolved.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"`
	TargetID      string            `json:"target_id,omitempty"`
	TargetName    string            `json:"target_name,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// categoryOption describes one category and the event types filed under it.
type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"event_types"`
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication", EventTypes: eventTypesForCategory(audit.CategoryAuth)},
		{Value: audit.CategoryAdmin, Label: "Administration", EventTypes: eventTypesForCategory(audit.CategoryAdmin)},
		{Value: audit.CategorySystem, Label: "System", EventTypes: eventTypesForCategory(audit.CategorySystem)},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventRegistered,
	}
	adminEvents := []string{
		audit.EventUserStatusChanged,
		audit.EventUserSoftDeleted,
		audit.EventUserRestored,
		audit.EventUserRestoreFailed,
	}
	systemEvents := []string{
		audit.EventUsersPurged,
		audit.EventNotificationsPurged,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategorySystem:
		return systemEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(systemEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return append(all, systemEvents...)
	default:
		return nil
	}
}

func knownEventType(category, eventType string) bool {
	for _, e := range eventTypesForCategory(category) {
		if e == eventType {
			return true
		}
	}
	return false
}
