// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature under whatever mount point
// the top-level router chooses (e.g., "/api/v1/dashboard").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.With(sm.RequireRole(models.RoleAdmin)).Get("/", h.ServeDashboard)
		pr.Get("/me", h.ServeMyDashboard)
	})

	return r
}
