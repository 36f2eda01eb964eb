// internal/app/features/register/handler.go
package register

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users       *userstore.Store
	SessionMgr  *auth.SessionManager
	AuditLog    *auditlog.Logger
	InviteToken string // grants the admin role when presented at sign-up
	Log         *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, audit *auditlog.Logger, inviteToken string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		SessionMgr:  sessionMgr,
		AuditLog:    audit,
		InviteToken: inviteToken,
		Log:         logger,
	}
}

type registerRequest struct {
	Name             string         `json:"name" validate:"required,max=100" label:"Name"`
	Email            string         `json:"email" validate:"required,email" label:"Email"`
	Password         string         `json:"password" validate:"required,min=6,max=72" label:"Password"`
	AdminInviteToken string         `json:"adminInviteToken"`
	Avatar           *models.Avatar `json:"avatar"`
}

// roleFor returns admin when token matches the configured invite token.
// An empty configured token disables admin sign-up.
func (h *Handler) roleFor(token string) string {
	if h.InviteToken == "" || token == "" {
		return models.RoleMember
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.InviteToken)) == 1 {
		return models.RoleAdmin
	}
	return models.RoleMember
}

// HandleRegister handles POST /auth/register and signs the new account in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if err := inputval.Struct(req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	if req.Avatar != nil && !inputval.IsValidHTTPURL(req.Avatar.URL) {
		httpjson.Error(w, h.Log, apperr.Validation("avatar url must be an http or https URL"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         h.roleFor(req.AdminInviteToken),
		Avatar:       req.Avatar,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpjson.Error(w, h.Log, apperr.Conflict("an account with this email already exists"))
		return
	}
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("register: save session", zap.Error(err))
	}
	h.AuditLog.Registered(ctx, r, u.ID, u.Role)
	h.Log.Info("account registered", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))

	httpjson.Created(w, httpjson.M{"message": "account created", "user": u})
}
