package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db  *mongo.Database
	t   *testing.T
	seq int
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active account with the given name and role.
// The email is derived from a per-fixture counter so repeated calls never
// collide on the unique index.
func (f *Fixtures) CreateUser(ctx context.Context, name, role string) models.User {
	f.t.Helper()

	f.seq++
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     name,
		FullNameCI:   text.Fold(name),
		Email:        fmt.Sprintf("user%d@test.com", f.seq),
		PasswordHash: "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixtu",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts an active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, models.RoleAdmin)
}

// CreateMember inserts an active member.
func (f *Fixtures) CreateMember(ctx context.Context, name string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, models.RoleMember)
}

// CreatePendingUser inserts a member that was soft-deleted daysAgo days ago.
func (f *Fixtures) CreatePendingUser(ctx context.Context, name string, daysAgo int) models.User {
	f.t.Helper()

	u := f.CreateMember(ctx, name)
	deletedAt := time.Now().UTC().Add(-time.Duration(daysAgo) * 24 * time.Hour)
	_, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{"is_active": false, "deleted_at": deletedAt},
	})
	if err != nil {
		f.t.Fatalf("failed to soft-delete test user: %v", err)
	}
	u.IsActive = false
	u.DeletedAt = &deletedAt
	return u
}

// CreateNotification inserts a notification for userID with the given
// status, created age days ago.
func (f *Fixtures) CreateNotification(ctx context.Context, userID primitive.ObjectID, status string, ageDays int) models.Notification {
	f.t.Helper()

	created := time.Now().UTC().Add(-time.Duration(ageDays) * 24 * time.Hour)
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     "Test notification",
		Message:   "Something happened",
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}

// CreateTask inserts a task created by createdBy and assigned to assignees.
func (f *Fixtures) CreateTask(ctx context.Context, title, status string, createdBy primitive.ObjectID, assignees ...primitive.ObjectID) models.Task {
	f.t.Helper()

	if assignees == nil {
		assignees = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	tk := models.Task{
		ID:            primitive.NewObjectID(),
		Title:         title,
		Priority:      models.PriorityMedium,
		Status:        status,
		DueDate:       now.Add(7 * 24 * time.Hour),
		AssignedTo:    assignees,
		CreatedBy:     createdBy,
		TodoChecklist: []models.TodoItem{},
		Attachments:   []models.Attachment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == models.TaskCompleted {
		tk.Progress = 100
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, tk); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return tk
}
