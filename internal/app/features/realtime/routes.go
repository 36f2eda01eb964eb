// internal/app/features/realtime/routes.go
package realtime

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeWS)
	return r
}
