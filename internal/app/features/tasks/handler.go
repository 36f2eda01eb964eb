// internal/app/features/tasks/handler.go
package tasks

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/taskflow"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler exposes task management over JSON. Authorization and
// notification fan-out are enforced by the taskflow manager.
type Handler struct {
	Tasks *taskflow.Manager
	Log   *zap.Logger
}

func NewHandler(mgr *taskflow.Manager, logger *zap.Logger) *Handler {
	return &Handler{Tasks: mgr, Log: logger}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, ok := authz.ActorFromRequest(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
	}
	return actor, ok
}

// target resolves the actor and the {id} task parameter.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (authz.Actor, primitive.ObjectID, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return authz.Actor{}, primitive.NilObjectID, false
	}
	id, err := httpjson.ObjectIDParam(r, "id", "task")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	return actor, id, true
}
