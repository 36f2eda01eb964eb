// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inbox"
	"github.com/dalemusser/taskhub/internal/app/system/paging"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's notification inbox.
type Handler struct {
	Inbox *inbox.Manager
	Log   *zap.Logger
}

func NewHandler(mgr *inbox.Manager, logger *zap.Logger) *Handler {
	return &Handler{Inbox: mgr, Log: logger}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, ok := authz.ActorFromRequest(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
	}
	return actor, ok
}

// ServeList handles GET /notifications?page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Inbox.List(ctx, actor, paging.Parse(r, "limit", paging.NotificationPageSize))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"data": page})
}

// ServeListAll handles GET /notifications/all. Admin only.
func (h *Handler) ServeListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Inbox.ListAll(ctx, actor, paging.Parse(r, "limit", paging.NotificationPageSize))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"data": page})
}

// ServeStats handles GET /notifications/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stats, err := h.Inbox.Stats(ctx, actor)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"data": stats})
}

// HandleMarkAllRead handles PUT /notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Inbox.MarkAllRead(ctx, actor)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "all notifications marked as read", "modifiedCount": n})
}

// HandleMarkRead handles PUT /notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpjson.ObjectIDParam(r, "id", "notification")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Inbox.MarkRead(ctx, actor, id)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "notification marked as read", "data": n})
}

// HandleDelete handles DELETE /notifications/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpjson.ObjectIDParam(r, "id", "notification")
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Inbox.Delete(ctx, actor, id); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "notification deleted"})
}
