// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const badCredentials = "invalid email or password"

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// HandleLogin handles POST /auth/login.
//
// Accounts that are inactive or pending deletion are refused even with the
// right password.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, nil, req.Email)
			httpjson.Error(w, h.Log, apperr.RateLimited(reason))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, nil, req.Email)
		httpjson.Error(w, h.Log, apperr.Unauthenticated(badCredentials))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, req.Email)
		httpjson.Error(w, h.Log, apperr.Unauthenticated(badCredentials))
		return
	}

	if !u.IsActive || u.PendingDeletion() {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, &u.ID, req.Email)
		httpjson.Error(w, h.Log, apperr.Authorization("this account is deactivated; contact an administrator"))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		httpjson.Error(w, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)

	httpjson.OK(w, httpjson.M{"message": "logged in", "user": u})
}
