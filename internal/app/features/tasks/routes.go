// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)
	r.Put("/{id}/status", h.HandleUpdateStatus)
	r.Put("/{id}/checklist", h.HandleUpdateChecklist)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(models.RoleAdmin))
		ar.Post("/", h.HandleCreate)
		ar.Put("/{id}", h.HandleUpdate)
		ar.Delete("/{id}", h.HandleDelete)
		ar.Post("/{id}/attachments", h.HandleAddAttachment)
		ar.Delete("/{id}/attachments/{publicID}", h.HandleRemoveAttachment)
	})
	return r
}
