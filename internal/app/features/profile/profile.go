// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeProfile handles GET /me.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"user": u})
}

type updateRequest struct {
	Name   *string        `json:"name" validate:"omitnil,max=100" label:"Name"`
	Avatar *models.Avatar `json:"avatar"`
}

// HandleUpdateProfile handles PUT /me. Omitted fields keep their values.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if req.Name != nil && normalize.Name(*req.Name) == "" {
		httpjson.Error(w, h.Log, apperr.Validation("Name is required."))
		return
	}
	if req.Avatar != nil && !inputval.IsValidHTTPURL(req.Avatar.URL) {
		httpjson.Error(w, h.Log, apperr.Validation("avatar url must be an http or https URL"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, userstore.ProfileUpdate{FullName: req.Name, Avatar: req.Avatar})
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, h.Log, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	h.Log.Info("profile updated", zap.String("user_id", uid.Hex()))
	httpjson.OK(w, httpjson.M{"message": "profile updated", "user": u})
}
