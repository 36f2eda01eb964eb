// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account routes under the path where this router is
// mounted (typically "/api/v1/users" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{id}", h.ServeView)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Put("/{id}/status", h.HandleUpdateStatus)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Put("/{id}/restore", h.HandleRestore)
	})

	return r
}
