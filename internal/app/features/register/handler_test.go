package register_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/features/register"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const inviteToken = "let-me-in"

func newTestHandler(t *testing.T) (*register.Handler, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	users := userstore.New(db)
	return register.NewHandler(users, sessionMgr, nil, inviteToken, logger), users
}

func TestHandleRegister_Roles(t *testing.T) {
	h, users := newTestHandler(t)

	tests := []struct {
		email string
		token string
		role  string
	}{
		{"member@example.com", "", models.RoleMember},
		{"admin@example.com", inviteToken, models.RoleAdmin},
		{"guess@example.com", "wrong-token", models.RoleMember},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/register", map[string]any{
				"name":             "New Person",
				"email":            tt.email,
				"password":         "secret123",
				"adminInviteToken": tt.token,
			}))
			rec.AssertStatus(t, http.StatusCreated)

			ctx, cancel := testutil.TestContext()
			defer cancel()
			u, err := users.GetByEmail(ctx, tt.email)
			if err != nil {
				t.Fatalf("GetByEmail failed: %v", err)
			}
			if u.Role != tt.role {
				t.Errorf("role: got %q, want %q", u.Role, tt.role)
			}
			if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) != nil {
				t.Error("stored hash does not match password")
			}
		})
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)
	body := map[string]any{"name": "Dup", "email": "dup@example.com", "password": "secret123"}

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/register", body))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/register", body))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertErrorKind(t, "conflict")
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"short password", map[string]any{"name": "A", "email": "a@example.com", "password": "123"}},
		{"missing name", map[string]any{"email": "a@example.com", "password": "secret123"}},
		{"bad avatar", map[string]any{"name": "A", "email": "a@example.com", "password": "secret123", "avatar": map[string]string{"url": "javascript:x"}}},
		{"unknown field", map[string]any{"name": "A", "email": "a@example.com", "password": "secret123", "role": "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/register", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}
