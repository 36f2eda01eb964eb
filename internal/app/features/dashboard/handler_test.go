package dashboard_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/features/dashboard"
	metricsstore "github.com/dalemusser/taskhub/internal/app/store/metrics"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

type dashboardBody struct {
	Statistics struct {
		TotalTasks     int64 `json:"totalTasks"`
		PendingTasks   int64 `json:"pendingTasks"`
		CompletedTasks int64 `json:"completedTasks"`
		OverdueTasks   int64 `json:"overdueTasks"`
	} `json:"statistics"`
	Charts struct {
		TaskDistribution   map[string]int64 `json:"taskDistribution"`
		TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
	} `json:"charts"`
	RecentTasks []models.Task        `json:"recentTasks"`
	Accounts    *metricsstore.Counts `json:"accounts"`
}

func newTestHandler(t *testing.T) (*dashboard.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return dashboard.NewHandler(taskstore.New(db), db, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeDashboard(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin")
	member := fx.CreateMember(ctx, "Member")
	fx.CreateTask(ctx, "a", models.TaskPending, admin.ID, member.ID)
	fx.CreateTask(ctx, "b", models.TaskCompleted, admin.ID, member.ID)
	fx.CreateTask(ctx, "c", models.TaskInProgress, admin.ID)

	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", testutil.AsTestUser(admin)))
	rec.AssertStatus(t, http.StatusOK)

	var body dashboardBody
	rec.DecodeJSON(t, &body)
	if body.Statistics.TotalTasks != 3 || body.Statistics.PendingTasks != 1 || body.Statistics.CompletedTasks != 1 {
		t.Errorf("statistics: %+v", body.Statistics)
	}
	if body.Charts.TaskDistribution["All"] != 3 || body.Charts.TaskDistribution[models.TaskInProgress] != 1 {
		t.Errorf("distribution: %+v", body.Charts.TaskDistribution)
	}
	if body.Charts.TaskPriorityLevels[models.PriorityMedium] != 3 || body.Charts.TaskPriorityLevels[models.PriorityHigh] != 0 {
		t.Errorf("priorities: %+v", body.Charts.TaskPriorityLevels)
	}
	if len(body.RecentTasks) != 3 {
		t.Errorf("recent: got %d, want 3", len(body.RecentTasks))
	}
	if body.Accounts == nil || body.Accounts.Admins != 1 || body.Accounts.Members != 1 {
		t.Errorf("accounts: got %+v", body.Accounts)
	}
}

func TestServeDashboard_MemberForbidden(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", testutil.MemberUser()))

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeMyDashboard(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin")
	member := fx.CreateMember(ctx, "Member")
	fx.CreateTask(ctx, "mine", models.TaskPending, admin.ID, member.ID)
	fx.CreateTask(ctx, "not mine", models.TaskPending, admin.ID)

	rec := testutil.NewRecorder()
	h.ServeMyDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard/me", testutil.AsTestUser(member)))
	rec.AssertStatus(t, http.StatusOK)

	var body dashboardBody
	rec.DecodeJSON(t, &body)
	if body.Statistics.TotalTasks != 1 || len(body.RecentTasks) != 1 || body.RecentTasks[0].Title != "mine" {
		t.Errorf("got total=%d recent=%+v", body.Statistics.TotalTasks, body.RecentTasks)
	}
	if body.Accounts != nil {
		t.Error("member dashboard should not include account totals")
	}
}

func TestServeMyDashboard_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeMyDashboard(rec, testutil.NewRequest(http.MethodGet, "/dashboard/me"))

	rec.AssertStatus(t, http.StatusUnauthorized)
}
