// internal/app/features/tasks/tasks.go
package tasks

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/taskflow"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// decode reads and validates a request body into dst.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpjson.Decode(r, dst); err != nil {
		httpjson.Error(w, h.Log, err)
		return false
	}
	if err := inputval.Struct(dst); err != nil {
		httpjson.Error(w, h.Log, err)
		return false
	}
	return true
}

// ServeList handles GET /tasks?status=. Admins see every task, members
// only those assigned to them.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Tasks.List(ctx, actor, normalize.Filter(query.Get(r, "status")))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"tasks": res.Tasks, "statusSummary": res.Summary})
}

// ServeView handles GET /tasks/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Get(ctx, actor, id)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"task": taskflow.View{Task: t, CompletedTodoCount: t.CompletedTodoCount()}})
}

// HandleCreate handles POST /tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.Create(ctx, actor, taskflow.Input{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       *req.DueDate,
		AssignedTo:    objectIDs(req.AssignedTo),
		TodoChecklist: todoItems(req.TodoChecklist),
		Attachments:   attachments(req.Attachments),
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	h.Log.Info("task created",
		zap.String("task_id", t.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Int("assignees", len(t.AssignedTo)))
	httpjson.Created(w, httpjson.M{"message": "task created", "task": t})
}

// HandleUpdate handles PUT /tasks/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.Edit(ctx, actor, id, taskflow.Update{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		AssignedTo:    objectIDs(req.AssignedTo),
		TodoChecklist: todoItems(req.TodoChecklist),
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "task updated", "task": t})
}

// HandleDelete handles DELETE /tasks/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tasks.Delete(ctx, actor, id); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "task deleted"})
}

// HandleUpdateStatus handles PUT /tasks/{id}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.SetStatus(ctx, actor, id, req.Status)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "task status updated", "task": t})
}

// HandleUpdateChecklist handles PUT /tasks/{id}/checklist.
func (h *Handler) HandleUpdateChecklist(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req checklistRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.SetChecklist(ctx, actor, id, todoItems(req.TodoChecklist))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "task checklist updated", "task": t})
}

// HandleAddAttachment handles POST /tasks/{id}/attachments. The file itself
// lives in the external object store; only its metadata is recorded.
func (h *Handler) HandleAddAttachment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req attachmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.AddAttachment(ctx, actor, id, req.model())
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Created(w, httpjson.M{"message": "attachment added", "task": t})
}

// HandleRemoveAttachment handles DELETE /tasks/{id}/attachments/{publicID}.
func (h *Handler) HandleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.RemoveAttachment(ctx, actor, id, chi.URLParam(r, "publicID"))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.OK(w, httpjson.M{"message": "attachment removed", "task": t})
}
