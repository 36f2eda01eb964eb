// internal/app/features/systemusers/list.go
package systemusers

import (
	"context"
	"net/http"
	"strings"

	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/paging"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userRow is one account in the admin list, decorated with its task counts.
type userRow struct {
	models.User
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

func (u userRow) hasTasks() bool {
	return u.PendingTasks+u.InProgressTasks+u.CompletedTasks > 0
}

func parseFilter(s string) (string, error) {
	f := strings.ToLower(normalize.Filter(s))
	switch f {
	case "", userstore.FilterActive, userstore.FilterInactive, userstore.FilterPending:
		return f, nil
	}
	return "", apperr.Validation("filter must be one of all, active, inactive, pending")
}

// ServeList handles GET /users.
//
// Query: search (name or email substring), filter (all|active|inactive|pending),
// page, page_size. Pagination uses a look-ahead row to report is_next.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(query.Get(r, "filter"))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	p := paging.Parse(r, "page_size", paging.UserPageSize)
	lf := userstore.ListFilter{
		Search: normalize.QueryParam(query.Get(r, "search")),
		Status: filter,
		Skip:   p.Skip(),
		Limit:  p.LimitPlusOne(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx, lf)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	isNext := paging.TrimNext(&users, p.Limit)

	total, err := h.Users.Count(ctx, lf)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := h.Tasks.CountsByAssignee(ctx, ids)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	rows, withTasks := decorate(users, counts)
	httpjson.OK(w, httpjson.M{
		"users":                  rows,
		"users_with_task_counts": withTasks,
		"page":                   p.Page,
		"page_size":              p.Limit,
		"total":                  total,
		"is_next":                isNext,
	})
}

// decorate attaches task counts to users. The second result holds only the
// users that have at least one assigned task.
func decorate(users []models.User, counts map[primitive.ObjectID]taskstore.StatusCounts) ([]userRow, []userRow) {
	rows := make([]userRow, 0, len(users))
	withTasks := []userRow{}
	for _, u := range users {
		c := counts[u.ID]
		row := userRow{
			User:            u,
			PendingTasks:    c.Pending,
			InProgressTasks: c.InProgress,
			CompletedTasks:  c.Completed,
		}
		rows = append(rows, row)
		if row.hasTasks() {
			withTasks = append(withTasks, row)
		}
	}
	return rows, withTasks
}
