// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	metricsstore "github.com/dalemusser/taskhub/internal/app/store/metrics"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Tasks *taskstore.Store
	DB    *mongo.Database
	Log   *zap.Logger
	now   func() time.Time
}

func NewHandler(tasks *taskstore.Store, db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks: tasks,
		DB:    db,
		Log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ServeDashboard handles GET /dashboard: every task in the system plus
// account and inbox totals. Admin only.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromRequest(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		httpjson.Error(w, h.Log, apperr.Authorization("only admins can view the system dashboard"))
		return
	}
	h.serve(w, r, taskstore.Filter{}, true)
}

// ServeMyDashboard handles GET /dashboard/me: the tasks assigned to the
// signed-in user.
func (h *Handler) ServeMyDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromRequest(r)
	if !ok {
		httpjson.Error(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}
	uid := actor.ID
	h.serve(w, r, taskstore.Filter{AssignedTo: &uid}, false)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, f taskstore.Filter, withAccounts bool) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	d, err := h.Tasks.DashboardFor(ctx, f, h.now())
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	out := httpjson.M{
		"statistics":  d.Statistics,
		"charts":      d.Charts,
		"recentTasks": d.RecentTasks,
	}
	if withAccounts {
		out["accounts"] = metricsstore.FetchDashboardCounts(ctx, h.DB)
	}
	httpjson.OK(w, out)
}
