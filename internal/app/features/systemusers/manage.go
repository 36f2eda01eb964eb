// internal/app/features/systemusers/manage.go
package systemusers

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// target resolves the acting user and the {id} path parameter.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (authz.Actor, primitive.ObjectID, bool) {
	actor, ok := authz.ActorFromRequest(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
		return authz.Actor{}, primitive.NilObjectID, false
	}
	id, err := httpjson.ObjectIDParam(r, "id", "user")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return authz.Actor{}, primitive.NilObjectID, false
	}
	return actor, id, true
}

type statusRequest struct {
	Role     string `json:"role" validate:"required,role" label:"Role"`
	IsActive *bool  `json:"is_active" validate:"required" label:"is_active"`
}

// HandleUpdateStatus handles PUT /users/{id}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Accounts.UpdateStatus(ctx, actor, id, normalize.Role(req.Role), *req.IsActive)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Log.Info("account status updated",
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("user_id", id.Hex()),
		zap.String("role", u.Role),
		zap.Bool("is_active", u.IsActive))
	httpjson.OK(w, httpjson.M{"message": "user status updated", "user": u})
}

// HandleDelete handles DELETE /users/{id}. The account is only marked for
// deletion; the daily purge removes it after the retention window.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Accounts.SoftDelete(ctx, actor, id)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Log.Info("account soft-deleted",
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("user_id", id.Hex()))
	httpjson.OK(w, httpjson.M{
		"message": "user marked for deletion; it can be restored within 30 days",
		"user":    u,
	})
}

// HandleRestore handles PUT /users/{id}/restore.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Accounts.Restore(ctx, actor, id)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Log.Info("account restored",
		zap.String("actor_id", actor.ID.Hex()),
		zap.String("user_id", id.Hex()))
	httpjson.OK(w, httpjson.M{"message": "user restored", "user": u})
}
