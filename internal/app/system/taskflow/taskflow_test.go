package taskflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/taskflow"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	tasks map[primitive.ObjectID]models.Task
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: map[primitive.ObjectID]models.Task{}}
}

func (r *memRepo) Create(_ context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	r.tasks[t.ID] = t
	return t, nil
}

func (r *memRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, mongo.ErrNoDocuments
	}
	t.TodoChecklist = append([]models.TodoItem(nil), t.TodoChecklist...)
	return t, nil
}

func (r *memRepo) Save(_ context.Context, t models.Task) (models.Task, error) {
	if _, ok := r.tasks[t.ID]; !ok {
		return models.Task{}, mongo.ErrNoDocuments
	}
	r.tasks[t.ID] = t
	return t, nil
}

func (r *memRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.tasks[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.tasks, id)
	return nil
}

func (r *memRepo) AddAttachment(_ context.Context, id primitive.ObjectID, a models.Attachment) (models.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, mongo.ErrNoDocuments
	}
	t.Attachments = append(t.Attachments, a)
	r.tasks[id] = t
	return t, nil
}

func (r *memRepo) RemoveAttachment(_ context.Context, id primitive.ObjectID, publicID string) (models.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, mongo.ErrNoDocuments
	}
	kept := t.Attachments[:0:0]
	for _, a := range t.Attachments {
		if a.PublicID != publicID {
			kept = append(kept, a)
		}
	}
	t.Attachments = kept
	r.tasks[id] = t
	return t, nil
}

func (r *memRepo) List(_ context.Context, f taskstore.Filter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.tasks {
		if f.AssignedTo != nil && !t.IsAssigned(*f.AssignedTo) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *memRepo) StatusSummary(ctx context.Context, f taskstore.Filter) (taskstore.StatusCounts, error) {
	f.Status = ""
	ts, _ := r.List(ctx, f)
	var c taskstore.StatusCounts
	for _, t := range ts {
		c.All++
		switch t.Status {
		case models.TaskPending:
			c.Pending++
		case models.TaskInProgress:
			c.InProgress++
		case models.TaskCompleted:
			c.Completed++
		}
	}
	return c, nil
}

type sent struct {
	recipients []primitive.ObjectID
	title      string
}

type fakeNotifier struct {
	calls []sent
}

func (n *fakeNotifier) Notify(_ context.Context, recipients []primitive.ObjectID, title, _ string) int {
	n.calls = append(n.calls, sent{recipients: recipients, title: title})
	return len(recipients)
}

var (
	admin    = authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	alice    = authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	bob      = authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	tomorrow = time.Now().UTC().Add(24 * time.Hour)
)

func newManager() (*taskflow.Manager, *memRepo, *fakeNotifier) {
	repo := newMemRepo()
	n := &fakeNotifier{}
	return taskflow.New(repo, n, zap.NewNop()), repo, n
}

func seed(t *testing.T, m *taskflow.Manager, items ...models.TodoItem) models.Task {
	t.Helper()
	tk, err := m.Create(context.Background(), admin, taskflow.Input{
		Title:         "Quarterly report",
		Priority:      models.PriorityHigh,
		DueDate:       tomorrow,
		AssignedTo:    []primitive.ObjectID{alice.ID},
		TodoChecklist: items,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return tk
}

func TestCreate(t *testing.T) {
	m, _, n := newManager()
	ctx := context.Background()

	tk, err := m.Create(ctx, admin, taskflow.Input{
		Title:         " <b>Plan</b> sprint ",
		DueDate:       tomorrow,
		AssignedTo:    []primitive.ObjectID{alice.ID, alice.ID, bob.ID},
		TodoChecklist: []models.TodoItem{{Text: "one", Completed: true}, {Text: "two"}, {Text: "  "}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if tk.Title != "Plan sprint" {
		t.Errorf("title: got %q", tk.Title)
	}
	if tk.Priority != models.PriorityMedium {
		t.Errorf("default priority: got %q", tk.Priority)
	}
	if len(tk.AssignedTo) != 2 {
		t.Errorf("assignees not deduplicated: %v", tk.AssignedTo)
	}
	if len(tk.TodoChecklist) != 2 || tk.TodoChecklist[0].ID == "" {
		t.Errorf("checklist not normalized: %+v", tk.TodoChecklist)
	}
	if tk.Progress != 50 || tk.Status != models.TaskInProgress {
		t.Errorf("progress=%d status=%q, want 50 In Progress", tk.Progress, tk.Status)
	}
	if tk.CreatedBy != admin.ID {
		t.Errorf("created_by: got %v", tk.CreatedBy)
	}
	if len(n.calls) != 1 || len(n.calls[0].recipients) != 2 {
		t.Errorf("notifications: %+v", n.calls)
	}
}

func TestCreate_Rejections(t *testing.T) {
	m, _, _ := newManager()
	ctx := context.Background()

	tests := []struct {
		name  string
		actor authz.Actor
		in    taskflow.Input
		kind  apperr.Kind
	}{
		{"member", alice, taskflow.Input{Title: "x", DueDate: tomorrow}, apperr.KindAuthorization},
		{"no title", admin, taskflow.Input{Title: "<i></i>", DueDate: tomorrow}, apperr.KindValidation},
		{"bad priority", admin, taskflow.Input{Title: "x", Priority: "Urgent", DueDate: tomorrow}, apperr.KindValidation},
		{"no due date", admin, taskflow.Input{Title: "x"}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, tt.actor, tt.in)
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("got %v, want kind %q", err, tt.kind)
			}
		})
	}
}

func TestListAndGet_Visibility(t *testing.T) {
	m, _, _ := newManager()
	ctx := context.Background()
	tk := seed(t, m, models.TodoItem{Text: "a", Completed: true}, models.TodoItem{Text: "b"})

	res, err := m.List(ctx, alice, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].CompletedTodoCount != 1 {
		t.Errorf("alice list: %+v", res.Tasks)
	}
	if res.Summary.All != 1 || res.Summary.InProgress != 1 {
		t.Errorf("summary: %+v", res.Summary)
	}

	res, _ = m.List(ctx, bob, "")
	if len(res.Tasks) != 0 {
		t.Errorf("bob sees %d tasks, want 0", len(res.Tasks))
	}
	res, _ = m.List(ctx, admin, models.TaskCompleted)
	if len(res.Tasks) != 0 || res.Summary.All != 1 {
		t.Errorf("admin completed filter: %d tasks, summary %+v", len(res.Tasks), res.Summary)
	}
	if _, err := m.List(ctx, admin, "Done"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad status filter: got %v", err)
	}

	if _, err := m.Get(ctx, alice, tk.ID); err != nil {
		t.Errorf("assignee Get: %v", err)
	}
	if _, err := m.Get(ctx, bob, tk.ID); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("outsider Get: got %v", err)
	}
	if _, err := m.Get(ctx, admin, primitive.NewObjectID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing Get: got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	m, repo, n := newManager()
	ctx := context.Background()
	tk := seed(t, m, models.TodoItem{Text: "a"}, models.TodoItem{Text: "b"})
	n.calls = nil

	if _, err := m.SetStatus(ctx, bob, tk.ID, models.TaskCompleted); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("outsider SetStatus: got %v", err)
	}
	if _, err := m.SetStatus(ctx, alice, tk.ID, "Done"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad status: got %v", err)
	}

	got, err := m.SetStatus(ctx, alice, tk.ID, models.TaskCompleted)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if got.Progress != 100 || got.CompletedTodoCount() != 2 {
		t.Errorf("completed task: progress=%d done=%d", got.Progress, got.CompletedTodoCount())
	}
	if stored := repo.tasks[tk.ID]; stored.Status != models.TaskCompleted {
		t.Errorf("stored status: %q", stored.Status)
	}
	if len(n.calls) != 1 || n.calls[0].title != "Task status updated" {
		t.Errorf("notifications: %+v", n.calls)
	}

	// Same status again is not announced.
	if _, err := m.SetStatus(ctx, alice, tk.ID, models.TaskCompleted); err != nil {
		t.Fatalf("repeat SetStatus failed: %v", err)
	}
	if len(n.calls) != 1 {
		t.Errorf("repeat status notified: %+v", n.calls)
	}
}

func TestSetChecklist(t *testing.T) {
	m, _, n := newManager()
	ctx := context.Background()
	tk := seed(t, m)
	n.calls = nil

	tests := []struct {
		name       string
		items      []models.TodoItem
		wantPct    int
		wantStatus string
	}{
		{"one of three", []models.TodoItem{{Text: "a", Completed: true}, {Text: "b"}, {Text: "c"}}, 33, models.TaskInProgress},
		{"two of three", []models.TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}, {Text: "c"}}, 67, models.TaskInProgress},
		{"all", []models.TodoItem{{Text: "a", Completed: true}}, 100, models.TaskCompleted},
		{"none", []models.TodoItem{{Text: "a"}}, 0, models.TaskPending},
		{"empty", nil, 0, models.TaskPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.SetChecklist(ctx, alice, tk.ID, tt.items)
			if err != nil {
				t.Fatalf("SetChecklist failed: %v", err)
			}
			if got.Progress != tt.wantPct || got.Status != tt.wantStatus {
				t.Errorf("got %d%% %q, want %d%% %q", got.Progress, got.Status, tt.wantPct, tt.wantStatus)
			}
		})
	}

	// Pending -> In Progress -> Completed -> Pending: three status changes.
	if len(n.calls) != 3 {
		t.Errorf("status notifications: got %d, want 3", len(n.calls))
	}

	if _, err := m.SetChecklist(ctx, bob, tk.ID, nil); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("outsider SetChecklist: got %v", err)
	}
}

func TestEdit_NotifiesNewAssignees(t *testing.T) {
	m, _, n := newManager()
	ctx := context.Background()
	tk := seed(t, m)
	n.calls = nil

	title := "Renamed"
	got, err := m.Edit(ctx, admin, tk.ID, taskflow.Update{
		Title:      &title,
		AssignedTo: []primitive.ObjectID{alice.ID, bob.ID},
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got.Title != "Renamed" || len(got.AssignedTo) != 2 {
		t.Errorf("edit result: %+v", got)
	}
	if len(n.calls) != 1 || len(n.calls[0].recipients) != 1 || n.calls[0].recipients[0] != bob.ID {
		t.Errorf("expected only bob notified, got %+v", n.calls)
	}

	if _, err := m.Edit(ctx, alice, tk.ID, taskflow.Update{Title: &title}); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("member Edit: got %v", err)
	}
	bad := "Urgent"
	if _, err := m.Edit(ctx, admin, tk.ID, taskflow.Update{Priority: &bad}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad priority Edit: got %v", err)
	}
}

func TestAttachmentsAndDelete(t *testing.T) {
	m, repo, n := newManager()
	ctx := context.Background()
	tk := seed(t, m)
	n.calls = nil

	att := models.Attachment{PublicID: "f1", URL: "https://cdn.example.com/f1.pdf", Filename: "f1.pdf"}
	if _, err := m.AddAttachment(ctx, alice, tk.ID, att); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("member AddAttachment: got %v", err)
	}
	if _, err := m.AddAttachment(ctx, admin, tk.ID, models.Attachment{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty attachment: got %v", err)
	}
	got, err := m.AddAttachment(ctx, admin, tk.ID, att)
	if err != nil || len(got.Attachments) != 1 {
		t.Fatalf("AddAttachment: %v %+v", err, got.Attachments)
	}
	if _, err := m.RemoveAttachment(ctx, admin, tk.ID, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("remove unknown attachment: got %v", err)
	}
	got, err = m.RemoveAttachment(ctx, admin, tk.ID, "f1")
	if err != nil || len(got.Attachments) != 0 {
		t.Fatalf("RemoveAttachment: %v %+v", err, got.Attachments)
	}

	if err := m.Delete(ctx, alice, tk.ID); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("member Delete: got %v", err)
	}
	if err := m.Delete(ctx, admin, tk.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := repo.tasks[tk.ID]; ok {
		t.Error("task still stored after Delete")
	}
	if err := m.Delete(ctx, admin, tk.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete: got %v", err)
	}

	titles := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		titles = append(titles, c.title)
	}
	want := []string{"Task attachment added", "Task attachment removed", "Task deleted"}
	if len(titles) != len(want) {
		t.Fatalf("notifications: got %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("notification %d: got %q, want %q", i, titles[i], want[i])
		}
	}
}
