// internal/app/features/systemusers/handler.go
package systemusers

import (
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/accounts"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Tasks    *taskstore.Store
	Accounts *accounts.Manager
	Log      *zap.Logger
}

// NewHandler constructs the account administration handler. Lifecycle
// transitions go through the accounts manager so the policy and audit
// rules live in one place.
func NewHandler(users *userstore.Store, tasks *taskstore.Store, mgr *accounts.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Tasks:    tasks,
		Accounts: mgr,
		Log:      logger,
	}
}
