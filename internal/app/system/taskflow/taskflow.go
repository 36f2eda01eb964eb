// Package taskflow applies task mutations: authorization, checklist and
// status derivation, and the notifications sent to assignees.
//
// Notifications are best effort. A failed fan-out is logged by the
// notifier and never fails the mutation that caused it.
package taskflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhub/internal/app/system/progress"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Repository is the task persistence the workflow needs. *taskstore.Store
// satisfies it.
type Repository interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error)
	Save(ctx context.Context, t models.Task) (models.Task, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	AddAttachment(ctx context.Context, id primitive.ObjectID, a models.Attachment) (models.Task, error)
	RemoveAttachment(ctx context.Context, id primitive.ObjectID, publicID string) (models.Task, error)
	List(ctx context.Context, f taskstore.Filter) ([]models.Task, error)
	StatusSummary(ctx context.Context, f taskstore.Filter) (taskstore.StatusCounts, error)
}

// Notifier fans a message out to recipients. *inbox.Manager satisfies it.
type Notifier interface {
	Notify(ctx context.Context, recipients []primitive.ObjectID, title, message string) int
}

// Manager applies task mutations.
type Manager struct {
	repo   Repository
	notify Notifier
	log    *zap.Logger
}

// New creates a Manager. notify may be nil.
func New(repo Repository, notify Notifier, logger *zap.Logger) *Manager {
	return &Manager{repo: repo, notify: notify, log: logger}
}

// Input carries the fields of a new task.
type Input struct {
	Title         string
	Description   string
	Priority      string
	DueDate       time.Time
	AssignedTo    []primitive.ObjectID
	TodoChecklist []models.TodoItem
	Attachments   []models.Attachment
}

// Update carries an edit. Nil fields are left alone.
type Update struct {
	Title         *string
	Description   *string
	Priority      *string
	DueDate       *time.Time
	AssignedTo    []primitive.ObjectID // nil = unchanged
	TodoChecklist []models.TodoItem    // nil = unchanged
}

// View is a task plus its completed checklist count.
type View struct {
	models.Task
	CompletedTodoCount int `json:"completedTodoCount"`
}

// ListResult is the task list with its status summary.
type ListResult struct {
	Tasks   []View                 `json:"tasks"`
	Summary taskstore.StatusCounts `json:"statusSummary"`
}

func (m *Manager) load(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	t, err := m.repo.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, apperr.NotFound("task not found")
	}
	return t, err
}

func (m *Manager) fanout(ctx context.Context, recipients []primitive.ObjectID, title, message string) {
	if m.notify == nil || len(recipients) == 0 {
		return
	}
	m.notify.Notify(ctx, recipients, title, message)
}

// normalizeChecklist trims item text, drops empty items and assigns ids to
// new ones.
func normalizeChecklist(items []models.TodoItem) []models.TodoItem {
	out := make([]models.TodoItem, 0, len(items))
	for _, it := range items {
		it.Text = htmlsanitize.StripTags(it.Text)
		if it.Text == "" {
			continue
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		out = append(out, it)
	}
	return out
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Create stores a new task and notifies its assignees. Admin only.
func (m *Manager) Create(ctx context.Context, actor authz.Actor, in Input) (models.Task, error) {
	if !taskpolicy.CanManage(actor) {
		return models.Task{}, apperr.Authorization("only admins can create tasks")
	}
	title := htmlsanitize.StripTags(in.Title)
	if title == "" {
		return models.Task{}, apperr.Validation("title is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.IsValidPriority(in.Priority) {
		return models.Task{}, apperr.Validationf("priority must be one of %s", strings.Join(models.TaskPriorities, ", "))
	}
	if in.DueDate.IsZero() {
		return models.Task{}, apperr.Validation("due date is required")
	}

	t := models.Task{
		Title:       title,
		Description: htmlsanitize.Description(in.Description),
		Priority:    in.Priority,
		DueDate:     in.DueDate.UTC(),
		AssignedTo:  dedupe(in.AssignedTo),
		CreatedBy:   actor.ID,
		Attachments: in.Attachments,
	}
	progress.ApplyChecklist(&t, normalizeChecklist(in.TodoChecklist))

	created, err := m.repo.Create(ctx, t)
	if err != nil {
		return models.Task{}, err
	}
	m.fanout(ctx, created.AssignedTo, "New task assigned",
		fmt.Sprintf("You have been assigned a new task: %s", created.Title))
	return created, nil
}

// List returns the tasks the actor can see (all for admins, assigned ones
// otherwise), optionally narrowed by status, with a status summary of the
// unfiltered set.
func (m *Manager) List(ctx context.Context, actor authz.Actor, status string) (ListResult, error) {
	if status != "" && !models.IsValidTaskStatus(status) {
		return ListResult{}, apperr.Validationf("status must be one of %s", strings.Join(models.TaskStatuses, ", "))
	}
	f := taskstore.Filter{Status: status}
	if !actor.IsAdmin() {
		uid := actor.ID
		f.AssignedTo = &uid
	}
	tasks, err := m.repo.List(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	summary, err := m.repo.StatusSummary(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	views := make([]View, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, View{Task: t, CompletedTodoCount: t.CompletedTodoCount()})
	}
	return ListResult{Tasks: views, Summary: summary}, nil
}

// Get returns one task if the actor may view it.
func (m *Manager) Get(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Task, error) {
	t, err := m.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !taskpolicy.CanView(actor, t) {
		return models.Task{}, apperr.Authorization("not authorized to view this task")
	}
	return t, nil
}

// Edit applies upd. Admin only. Newly added assignees are notified.
func (m *Manager) Edit(ctx context.Context, actor authz.Actor, id primitive.ObjectID, upd Update) (models.Task, error) {
	if !taskpolicy.CanManage(actor) {
		return models.Task{}, apperr.Authorization("only admins can edit tasks")
	}
	t, err := m.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if upd.Title != nil {
		title := htmlsanitize.StripTags(*upd.Title)
		if title == "" {
			return models.Task{}, apperr.Validation("title cannot be empty")
		}
		t.Title = title
	}
	if upd.Description != nil {
		t.Description = htmlsanitize.Description(*upd.Description)
	}
	if upd.Priority != nil {
		if !models.IsValidPriority(*upd.Priority) {
			return models.Task{}, apperr.Validationf("priority must be one of %s", strings.Join(models.TaskPriorities, ", "))
		}
		t.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate.UTC()
	}

	var added []primitive.ObjectID
	if upd.AssignedTo != nil {
		next := dedupe(upd.AssignedTo)
		for _, uid := range next {
			if !t.IsAssigned(uid) {
				added = append(added, uid)
			}
		}
		t.AssignedTo = next
	}
	if upd.TodoChecklist != nil {
		progress.ApplyChecklist(&t, normalizeChecklist(upd.TodoChecklist))
	}

	saved, err := m.repo.Save(ctx, t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return models.Task{}, err
	}
	m.fanout(ctx, added, "New task assigned",
		fmt.Sprintf("You have been assigned a new task: %s", saved.Title))
	return saved, nil
}

// SetStatus changes a task's status. Admins and assignees may do this.
// Completing a task checks every checklist item and sets progress to 100.
func (m *Manager) SetStatus(ctx context.Context, actor authz.Actor, id primitive.ObjectID, status string) (models.Task, error) {
	if !models.IsValidTaskStatus(status) {
		return models.Task{}, apperr.Validationf("status must be one of %s", strings.Join(models.TaskStatuses, ", "))
	}
	t, err := m.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !taskpolicy.CanUpdateProgress(actor, t) {
		return models.Task{}, apperr.Authorization("not authorized to update this task")
	}

	prev := t.Status
	progress.ApplyStatus(&t, status)
	saved, err := m.repo.Save(ctx, t)
	if err != nil {
		return models.Task{}, err
	}
	if prev != saved.Status {
		m.fanout(ctx, saved.AssignedTo, "Task status updated",
			fmt.Sprintf("Task %q is now %s", saved.Title, saved.Status))
	}
	return saved, nil
}

// SetChecklist replaces the checklist and derives progress and status from
// it. Admins and assignees may do this.
func (m *Manager) SetChecklist(ctx context.Context, actor authz.Actor, id primitive.ObjectID, items []models.TodoItem) (models.Task, error) {
	t, err := m.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if !taskpolicy.CanUpdateProgress(actor, t) {
		return models.Task{}, apperr.Authorization("not authorized to update checklist")
	}

	prev := t.Status
	progress.ApplyChecklist(&t, normalizeChecklist(items))
	saved, err := m.repo.Save(ctx, t)
	if err != nil {
		return models.Task{}, err
	}
	if prev != saved.Status {
		m.fanout(ctx, saved.AssignedTo, "Task status updated",
			fmt.Sprintf("Task %q is now %s", saved.Title, saved.Status))
	}
	return saved, nil
}

// AddAttachment records attachment metadata on a task. Admin only.
func (m *Manager) AddAttachment(ctx context.Context, actor authz.Actor, id primitive.ObjectID, a models.Attachment) (models.Task, error) {
	if !taskpolicy.CanManage(actor) {
		return models.Task{}, apperr.Authorization("only admins can change attachments")
	}
	if a.PublicID == "" || a.URL == "" {
		return models.Task{}, apperr.Validation("attachment public_id and url are required")
	}
	t, err := m.repo.AddAttachment(ctx, id, a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return models.Task{}, err
	}
	m.fanout(ctx, t.AssignedTo, "Task attachment added",
		fmt.Sprintf("A file was attached to task %q", t.Title))
	return t, nil
}

// RemoveAttachment drops the attachment with publicID. Admin only.
func (m *Manager) RemoveAttachment(ctx context.Context, actor authz.Actor, id primitive.ObjectID, publicID string) (models.Task, error) {
	if !taskpolicy.CanManage(actor) {
		return models.Task{}, apperr.Authorization("only admins can change attachments")
	}
	t, err := m.load(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	found := false
	for _, a := range t.Attachments {
		if a.PublicID == publicID {
			found = true
			break
		}
	}
	if !found {
		return models.Task{}, apperr.NotFound("attachment not found")
	}
	t, err = m.repo.RemoveAttachment(ctx, id, publicID)
	if err != nil {
		return models.Task{}, err
	}
	m.fanout(ctx, t.AssignedTo, "Task attachment removed",
		fmt.Sprintf("A file was removed from task %q", t.Title))
	return t, nil
}

// Delete removes a task and notifies its assignees. Admin only.
func (m *Manager) Delete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	if !taskpolicy.CanManage(actor) {
		return apperr.Authorization("only admins can delete tasks")
	}
	t, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if err := m.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("task not found")
		}
		return err
	}
	m.log.Info("task deleted",
		zap.String("task_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Int("assignees", len(t.AssignedTo)))
	m.fanout(ctx, t.AssignedTo, "Task deleted",
		fmt.Sprintf("Task %q was deleted", t.Title))
	return nil
}
