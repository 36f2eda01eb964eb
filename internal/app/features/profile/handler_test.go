package profile_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/features/profile"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return profile.NewHandler(userstore.New(db), zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeProfile(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateMember(ctx, "Profile Owner")

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/me", testutil.AsTestUser(u)))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"full_name":"Profile Owner"`)
}

func TestServeProfile_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewRequest(http.MethodGet, "/me"))

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeProfile_MissingAccount(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/me", testutil.MemberUser()))

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleUpdateProfile(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateMember(ctx, "Old Name")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantBody   string
	}{
		{"rename", map[string]any{"name": "New  Name"}, http.StatusOK, `"full_name":"New Name"`},
		{"avatar", map[string]any{"avatar": map[string]string{"public_id": "a1", "url": "https://img.example.com/a1.png"}}, http.StatusOK, `"public_id":"a1"`},
		{"bad avatar url", map[string]any{"avatar": map[string]string{"public_id": "a2", "url": "ftp://x"}}, http.StatusBadRequest, `"validation"`},
		{"empty name", map[string]any{"name": ""}, http.StatusBadRequest, `"validation"`},
		{"unknown field", map[string]any{"email": "x@example.com"}, http.StatusBadRequest, `"validation"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleUpdateProfile(rec, testutil.NewAuthenticatedJSONRequest(http.MethodPut, "/me", testutil.AsTestUser(u), tt.body))
			rec.AssertStatus(t, tt.wantStatus)
			rec.AssertContains(t, tt.wantBody)
		})
	}
}
