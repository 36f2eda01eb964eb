// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.With(sm.RequireRole(models.RoleAdmin)).Get("/all", h.ServeListAll)
	r.Get("/stats", h.ServeStats)
	r.Put("/read-all", h.HandleMarkAllRead)
	r.Put("/{id}/read", h.HandleMarkRead)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
