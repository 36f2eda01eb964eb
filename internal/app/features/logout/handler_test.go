package logout_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/features/logout"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *logout.Handler {
	t.Helper()
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sessionMgr, nil, logger)
}

func TestHandleLogout_ClearsSessionCookie(t *testing.T) {
	h := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/auth/logout", testutil.MemberUser())
	rec := testutil.NewRecorder()
	h.HandleLogout(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"success":true`)

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge: got %d, want < 0", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be cleared")
	}
}

func TestHandleLogout_Anonymous(t *testing.T) {
	h := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, testutil.NewRequest(http.MethodPost, "/auth/logout"))

	rec.AssertStatus(t, http.StatusOK)
}
