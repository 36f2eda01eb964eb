// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"go.uber.org/zap"
)

type Handler struct {
	Events *audit.Store
	Users  *userstore.Store
	Log    *zap.Logger
}

// NewHandler constructs the audit log feature handler.
func NewHandler(events *audit.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Users:  users,
		Log:    logger,
	}
}
