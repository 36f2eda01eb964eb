package metricsstore_test

import (
	"testing"

	metricsstore "github.com/dalemusser/taskhub/internal/app/store/metrics"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if got := metricsstore.FetchDashboardCounts(ctx, db); got != (metricsstore.Counts{}) {
		t.Errorf("expected zero counts, got %+v", got)
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin")
	member := fx.CreateMember(ctx, "Active Member")
	fx.CreateMember(ctx, "Another Member")
	disabled := fx.CreateMember(ctx, "Disabled")
	if err := userstore.New(db).UpdateStatus(ctx, disabled.ID, models.RoleMember, false); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	fx.CreatePendingUser(ctx, "Pending", 5)

	fx.CreateNotification(ctx, member.ID, models.NotificationUnread, 0)
	fx.CreateNotification(ctx, member.ID, models.NotificationUnread, 1)
	fx.CreateNotification(ctx, admin.ID, models.NotificationRead, 2)

	want := metricsstore.Counts{
		Admins:              1,
		Members:             2,
		Inactive:            1,
		PendingDeletion:     1,
		UnreadNotifications: 2,
		ReadNotifications:   1,
	}
	if got := metricsstore.FetchDashboardCounts(ctx, db); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
