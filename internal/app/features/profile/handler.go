// internal/app/features/profile/handler.go
package profile

import (
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's own profile endpoints.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler constructs a Handler bound to the given user store and logger.
func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users: users,
		Log:   logger,
	}
}
